package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoding indicates the encoder was unavailable or rejected an input.
	ErrEncoding = errors.New("encoding failed")

	// ErrEmptyCorpus indicates an index build was given zero usable rows.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrEmptyIndex indicates retrieval against a missing or empty index.
	ErrEmptyIndex = errors.New("empty index")

	// ErrModelUnavailable indicates the encoder could not be constructed or reached at startup.
	ErrModelUnavailable = errors.New("model unavailable")
)

// EncodingError wraps a failure to encode one or more texts.
type EncodingError struct {
	Encoder string
	Err     error
}

func (e *EncodingError) Error() string {
	if e.Encoder == "" {
		return fmt.Sprintf("encoding failed: %v", e.Err)
	}
	return fmt.Sprintf("encoding failed (%s): %v", e.Encoder, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

// NewEncodingError builds an EncodingError from a formatted message.
func NewEncodingError(encoder, format string, args ...any) *EncodingError {
	return &EncodingError{Encoder: encoder, Err: fmt.Errorf(format, args...)}
}

// ModelUnavailableError reports that an encoder could not be loaded.
type ModelUnavailableError struct {
	Encoder string
	Err     error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model unavailable (%s): %v", e.Encoder, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

func (e *ModelUnavailableError) Is(target error) bool { return target == ErrModelUnavailable }
