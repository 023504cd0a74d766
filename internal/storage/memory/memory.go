// Package memory is an in-process storage.Repository used by tests and the
// memory backend.
package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"revtrack/internal/storage"
)

type Store struct {
	mu     sync.Mutex
	data   map[string][]byte
	closed bool
}

func New() *Store {
	return &Store{data: map[string][]byte{}}
}

// NewFromDir seeds the store from <dir>/<collection>.json files. Missing
// files leave the collection empty.
func NewFromDir(dir string) (*Store, error) {
	s := New()
	if dir == "" {
		return s, nil
	}
	for _, name := range storage.Collections {
		b, err := os.ReadFile(filepath.Join(dir, name+".json"))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.data[name] = b
	}
	return s, nil
}

// Load implements storage.Repository.
func (s *Store) Load(_ context.Context, collection string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, storage.ErrClosed
	}
	b, ok := s.data[collection]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

// Save implements storage.Repository.
func (s *Store) Save(ctx context.Context, snapshots ...storage.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	for _, snap := range snapshots {
		s.data[snap.Collection] = append([]byte(nil), snap.Payload...)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
