// Package memstore is an in-memory object store used behind the local presigned receiver.
package memstore

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// ErrNotFound is returned for unknown keys
var ErrNotFound = errors.New("object not found")

// Object is a stored upload
type Object struct {
	Key         string
	ContentType string
	Data        []byte
	UpdatedAt   time.Time
}

// Store keeps objects in memory, keyed by file key
type Store struct {
	mu      sync.RWMutex
	objects map[string]*Object
}

// New creates an empty store
func New() *Store {
	return &Store{
		objects: make(map[string]*Object),
	}
}

// Put stores the contents of reader under key, replacing any previous object
func (s *Store) Put(ctx context.Context, key, contentType string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = &Object{
		Key:         key,
		ContentType: contentType,
		Data:        data,
		UpdatedAt:   time.Now().UTC(),
	}
	return nil
}

// Get returns a copy of the object stored under key
func (s *Store) Get(ctx context.Context, key string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, exists := s.objects[key]
	if !exists {
		return nil, ErrNotFound
	}

	copied := *obj
	copied.Data = append([]byte(nil), obj.Data...)
	return &copied, nil
}

// Len returns the number of stored objects
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
