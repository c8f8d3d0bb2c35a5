package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmbedding is returned when a dense or sparse embedding call fails.
	ErrEmbedding = errors.New("embedding error")
	// ErrSearch is returned when the vector search backend fails.
	ErrSearch = errors.New("search error")
	// ErrGeneration is returned when the text generation backend fails.
	ErrGeneration = errors.New("generation error")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// EmbeddingError wraps err as an embedding failure with context.
func EmbeddingError(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrEmbedding, msg, err)
}

// SearchError wraps err as a vector search failure with context.
func SearchError(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSearch, msg, err)
}

// GenerationError wraps err as a text generation failure with context.
func GenerationError(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrGeneration, msg, err)
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
