// Package docstore provides a keyed JSON document store. Documents are
// consumer-defined JSON with no schema enforcement; reads after a write to
// the same key always observe that write.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when no document exists for the key.
var ErrNotFound = errors.New("document not found")

// Document pairs a key with its stored JSON.
type Document struct {
	Key  string
	Data json.RawMessage
}

// Store is a keyed JSON document store.
//
// Set replaces the whole document (last-writer-wins); there is no partial
// update or compare-and-swap. Delete of an absent key succeeds.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, doc any) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Document, error)
}
