package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KV.Get for a slot that was never written.
var ErrNotFound = errors.New("slot not found")

// KV is a durable store of named slots. Put replaces the whole value of a
// slot atomically: readers see either the old or the new value.
type KV interface {
	Get(ctx context.Context, slot string) ([]byte, error)
	Put(ctx context.Context, slot string, value []byte) error
}
