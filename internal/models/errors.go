package models

import (
	"errors"
	"fmt"
)

// Error kinds raised by parsers, mappers and fetchers. Every one of them is a
// recoverable failure for the orchestrator.
var (
	ErrInvalidFormat       = errors.New("invalid playlist format")
	ErrTimeout             = errors.New("upstream timeout")
	ErrEmptyResult         = errors.New("empty result")
	ErrUnsupportedResource = errors.New("unsupported resource")
)

// HTTPError is a non-2xx upstream response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}
