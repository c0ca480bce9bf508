// Package codec turns sessions into bytes for stores that persist outside the process.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Codec serializes sessions.
type Codec interface {
	Marshal(s *domain.Session) ([]byte, error)
	Unmarshal(data []byte) (*domain.Session, error)
}

type jsonCodec struct {
	indent bool
}

// JSON returns the plain JSON codec. This is the default for every store.
func JSON() Codec {
	return jsonCodec{}
}

// IndentedJSON is JSON with two-space indentation, for files people read.
func IndentedJSON() Codec {
	return jsonCodec{indent: true}
}

func (c jsonCodec) Marshal(s *domain.Session) ([]byte, error) {
	if c.indent {
		return json.MarshalIndent(s, "", "  ")
	}
	return json.Marshal(s)
}

func (c jsonCodec) Unmarshal(data []byte) (*domain.Session, error) {
	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if s.ActiveChoices == nil {
		s.ActiveChoices = []domain.Choice{}
	}
	return &s, nil
}
