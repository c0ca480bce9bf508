package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/chatflow/pkg/domain"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
// Every message is written as one JSON object; system output uses {"type":"system"}.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
	MaxSize int

	mu sync.Mutex
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, msgs []domain.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range msgs {
		if err := h.Encoder.Encode(m); err != nil {
			return err
		}
	}
	return nil
}

// Input accepts a JSON string, an object with a "text" field, or plain text.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	for {
		line, err := h.Reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			if err != nil {
				return "", err
			}
			continue
		}

		text := line
		var str string
		var obj struct {
			Text string `json:"text"`
		}
		if json.Unmarshal([]byte(line), &str) == nil {
			text = str
		} else if json.Unmarshal([]byte(line), &obj) == nil {
			text = obj.Text
		}

		clean, serr := SanitizeInputLimit(text, h.MaxSize)
		if serr != nil {
			if oerr := h.SystemOutput(ctx, serr.Error()); oerr != nil {
				return "", oerr
			}
			if err != nil {
				return "", err
			}
			continue
		}
		return clean, nil
	}
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(map[string]string{"type": "system", "text": msg})
}
