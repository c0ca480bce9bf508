package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format identifies a graph serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from a file extension. Unknown extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// rawDocument accepts the loose shapes graph editors export: payload either at the
// top level or nested under "data", "type" as an alias of "kind", "options" as an
// alias of "choices", choices as bare strings, numbers where strings are expected.
type rawDocument struct {
	Nodes []rawNode `mapstructure:"nodes"`
	Edges []rawEdge `mapstructure:"edges"`
}

type rawPayload struct {
	Text    string      `mapstructure:"text"`
	Prompt  string      `mapstructure:"prompt"`
	Choices []rawChoice `mapstructure:"choices"`
	Options []rawChoice `mapstructure:"options"`
}

type rawNode struct {
	ID         string      `mapstructure:"id"`
	Kind       string      `mapstructure:"kind"`
	Type       string      `mapstructure:"type"`
	rawPayload `mapstructure:",squash"`
	Data       *rawPayload `mapstructure:"data"`
}

type rawChoice struct {
	Label string `mapstructure:"label"`
	Digit string `mapstructure:"digit"`
}

type rawEdge struct {
	Source      string `mapstructure:"source"`
	Target      string `mapstructure:"target"`
	ChoiceIndex *int   `mapstructure:"choiceIndex"`
}

// Parse decodes a serialized document and loads it.
func Parse(data []byte, format Format) (*Graph, error) {
	var raw map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, decodeError(fmt.Errorf("yaml: %w", err))
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, decodeError(fmt.Errorf("json: %w", err))
		}
	default:
		return nil, fmt.Errorf("unsupported graph format %q", format)
	}
	return Decode(raw)
}

// Decode loads a graph from an already-parsed generic map.
func Decode(raw map[string]any) (*Graph, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, err
	}
	return Load(doc)
}

// LoadFile reads, parses and loads a graph file.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph %s: %w", path, err)
	}
	g, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load graph %s: %w", path, err)
	}
	return g, nil
}

func decodeDocument(raw map[string]any) (Document, error) {
	if raw == nil {
		return Document{}, decodeError(fmt.Errorf("empty document"))
	}

	var rd rawDocument
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       stringToChoiceHook,
		Result:           &rd,
	})
	if err != nil {
		return Document{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Document{}, decodeError(err)
	}

	doc := Document{
		Nodes: make([]domain.Node, 0, len(rd.Nodes)),
		Edges: make([]domain.Edge, 0, len(rd.Edges)),
	}
	for _, rn := range rd.Nodes {
		doc.Nodes = append(doc.Nodes, rn.toNode())
	}
	for _, re := range rd.Edges {
		doc.Edges = append(doc.Edges, domain.Edge{Source: re.Source, Target: re.Target, ChoiceIndex: re.ChoiceIndex})
	}
	return doc, nil
}

func (rn rawNode) toNode() domain.Node {
	kindName := rn.Kind
	if kindName == "" {
		kindName = rn.Type
	}
	// Unknown kinds are kept verbatim and reported by Load.
	kind, err := domain.ParseNodeKind(kindName)
	if err != nil {
		kind = domain.NodeKind(kindName)
	}

	p := rn.rawPayload
	if rn.Data != nil {
		p = p.merge(*rn.Data)
	}
	choices := p.Choices
	if len(choices) == 0 {
		choices = p.Options
	}

	n := domain.Node{ID: rn.ID, Kind: kind}
	switch kind {
	case domain.KindSendMessage, domain.KindFinalize:
		n.Text = p.Text
	case domain.KindOptions:
		n.Prompt = p.Prompt
		if n.Prompt == "" {
			n.Prompt = p.Text
		}
		n.Choices = make([]domain.Choice, 0, len(choices))
		for _, c := range choices {
			n.Choices = append(n.Choices, domain.Choice{Label: c.Label, Digit: strings.TrimSpace(c.Digit)})
		}
	}
	return n
}

// merge fills empty fields of p from nested.
func (p rawPayload) merge(nested rawPayload) rawPayload {
	if p.Text == "" {
		p.Text = nested.Text
	}
	if p.Prompt == "" {
		p.Prompt = nested.Prompt
	}
	if len(p.Choices) == 0 {
		p.Choices = nested.Choices
	}
	if len(p.Options) == 0 {
		p.Options = nested.Options
	}
	return p
}

var rawChoiceType = reflect.TypeOf(rawChoice{})

func stringToChoiceHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != rawChoiceType || from.Kind() != reflect.String {
		return data, nil
	}
	return rawChoice{Label: data.(string)}, nil
}

func decodeError(err error) error {
	return &FormatError{Issues: []Issue{{Code: IssueDecode, Reason: err.Error()}}}
}
