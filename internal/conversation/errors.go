package conversation

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the Store. Match them with errors.Is.
var (
	ErrNotFound          = errors.New("conversation not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrArchived          = errors.New("conversation is archived")
	ErrInvalidInput      = errors.New("invalid input")
	ErrPersistence       = errors.New("persistence failure")
)

func notFound(id string) error {
	return fmt.Errorf("conversation: %w: %s", ErrNotFound, id)
}

// persistence wraps a storage error so that callers can match both
// ErrPersistence and the underlying driver error.
func persistence(op string, err error) error {
	return fmt.Errorf("conversation: %s: %w: %w", op, ErrPersistence, err)
}
