package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Store used in tests and local development.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]json.RawMessage
}

// NewMemory creates an empty in-memory document store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]json.RawMessage)}
}

var _ Store = (*Memory)(nil)

// Get retrieves the document stored under key.
func (s *Memory) Get(_ context.Context, key string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make(json.RawMessage, len(doc))
	copy(out, doc)
	return out, nil
}

// Set stores doc under key, replacing any existing document.
func (s *Memory) Set(_ context.Context, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %q: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = data
	return nil
}

// Delete removes the document under key. Deleting an absent key succeeds.
func (s *Memory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, key)
	return nil
}

// List returns all documents whose key starts with prefix, sorted by key.
func (s *Memory) List(_ context.Context, prefix string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []Document
	for key, doc := range s.docs {
		if strings.HasPrefix(key, prefix) {
			out := make(json.RawMessage, len(doc))
			copy(out, doc)
			docs = append(docs, Document{Key: key, Data: out})
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })
	return docs, nil
}
