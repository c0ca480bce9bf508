package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
)

func TestTextHandler_Output(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader(""), outBuf)

	handler.Renderer = func(s string) (string, error) {
		return "Rendered: " + s, nil
	}

	err := handler.Output(context.Background(), []domain.Message{{Text: "Hello World"}})
	if err != nil {
		t.Fatalf("Output failed: %v", err)
	}

	expected := "Rendered: Hello World"
	if !strings.Contains(outBuf.String(), expected) {
		t.Errorf("Expected output to contain '%s', got '%s'", expected, outBuf.String())
	}
}

func TestTextHandler_Input(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("  my user input \nNull\x00Byte\n"), outBuf)
	ctx := context.Background()

	val, err := handler.Input(ctx)
	if err != nil {
		t.Fatalf("Input failed: %v", err)
	}
	if val != "my user input" {
		t.Errorf("Expected 'my user input', got '%s'", val)
	}

	val, err = handler.Input(ctx)
	if err != nil {
		t.Fatalf("Input failed: %v", err)
	}
	if val != "NullByte" {
		t.Errorf("Expected control characters stripped, got %q", val)
	}

	if _, err := handler.Input(ctx); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

func TestTextHandler_InputTooLargeRetries(t *testing.T) {
	outBuf := &bytes.Buffer{}
	handler := NewTextHandler(strings.NewReader("123456\n1\n"), outBuf, WithTextHandlerMaxSize(3))

	val, err := handler.Input(context.Background())
	if err != nil {
		t.Fatalf("Input failed: %v", err)
	}
	if val != "1" {
		t.Errorf("Expected oversized line to be skipped, got %q", val)
	}
	if !strings.Contains(outBuf.String(), "exceeds maximum") {
		t.Errorf("Expected feedback about the rejected line, got %q", outBuf.String())
	}
}

func TestTextHandler_InputCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	handler := NewTextHandler(pr, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := handler.Input(ctx); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
