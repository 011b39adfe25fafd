package graph

import (
	"context"
	"fmt"
)

// Store persists trees. SaveTree has MERGE semantics: persons are created
// or updated by id; a relationship is created once per (start, end, type)
// and only when both endpoints already exist, either in the store or
// earlier in the same tree.
type Store interface {
	SaveTree(ctx context.Context, t Tree) error
	LoadTree(ctx context.Context) (Tree, error)
	Close(ctx context.Context) error
}

// RetryableError marks a store failure that may succeed on retry, such as
// an unavailable backend.
type RetryableError struct {
	Backend string
	Err     error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("%s (retryable): %v", e.Backend, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }
