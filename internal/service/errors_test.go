package service

import (
	"errors"
	"testing"
)

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "question", Message: "must not be empty"}
	want := "validation error on field question: must not be empty"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestValidationErrorUnwrapsToInvalidInput(t *testing.T) {
	var err error = &ValidationError{Field: "question", Message: "must not be empty"}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("expected ValidationError to match ErrInvalidInput")
	}
}

func TestErrorKindWrappers(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"embedding", EmbeddingError("dense embed failed", cause), ErrEmbedding},
		{"search", SearchError("qdrant query failed", cause), ErrSearch},
		{"generation", GenerationError("llm call failed", cause), ErrGeneration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("expected error to match sentinel %v", tt.sentinel)
			}
			if !errors.Is(tt.err, cause) {
				t.Error("expected error to preserve the wrapped cause")
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "context") != nil {
		t.Error("expected nil when wrapping nil error")
	}

	cause := errors.New("boom")
	wrapped := WrapError(cause, "doing thing")
	if !errors.Is(wrapped, cause) {
		t.Error("expected wrapped error to match cause")
	}
	if wrapped.Error() != "doing thing: boom" {
		t.Errorf("unexpected message: %q", wrapped.Error())
	}
}
