package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
)

func TestJSONHandler_Output(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), buf)

	msgs := []domain.Message{
		{SessionID: "s", NodeID: "hello", Kind: domain.MessageText, Text: "Oi!"},
		{SessionID: "s", NodeID: "menu", Kind: domain.MessagePrompt, Text: "Escolha:", Choices: []domain.Choice{{Label: "A"}}},
	}
	if err := handler.Output(context.Background(), msgs); err != nil {
		t.Fatalf("Output failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 JSON lines, got %d: %q", len(lines), buf.String())
	}
	var got domain.Message
	if err := json.Unmarshal([]byte(lines[1]), &got); err != nil {
		t.Fatalf("Invalid JSON line: %v", err)
	}
	if got.Kind != domain.MessagePrompt || len(got.Choices) != 1 {
		t.Errorf("Unexpected decoded message: %+v", got)
	}
}

func TestJSONHandler_Input(t *testing.T) {
	input := "\"quoted\"\n{\"text\": \"2\"}\n\nplain text\nlast"
	handler := NewJSONHandler(strings.NewReader(input), &bytes.Buffer{})
	ctx := context.Background()

	for _, want := range []string{"quoted", "2", "plain text", "last"} {
		got, err := handler.Input(ctx)
		if err != nil {
			t.Fatalf("Input failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
	if _, err := handler.Input(ctx); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestJSONHandler_SystemOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := NewJSONHandler(strings.NewReader(""), buf)
	if err := handler.SystemOutput(context.Background(), "hi"); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != `{"text":"hi","type":"system"}` {
		t.Errorf("Unexpected system line: %s", buf.String())
	}
}
