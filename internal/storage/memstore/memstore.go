// Package memstore is an in-process storage.Store used for development and tests.
package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/sundayezeilo/shortlinks/internal/storage"
)

// Store keeps keys in a map guarded by a RWMutex.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storage.Store = (*Store)(nil)

// New returns a Store preloaded with keys (payloads left empty).
func New(keys ...string) *Store {
	s := &Store{data: make(map[string][]byte, len(keys))}
	for _, k := range keys {
		s.data[k] = nil
	}
	return s
}

// ListKeys matches the domain exactly and the code prefix case-insensitively,
// like redisstore.MatchPattern.
func (s *Store) ListKeys(ctx context.Context, domain, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := domain + "/"
	want := strings.ToLower(prefix)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k := range s.data {
		code, ok := strings.CutPrefix(k, dir)
		if ok && strings.HasPrefix(strings.ToLower(code), want) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *Store) Reserve(ctx context.Context, domain, code string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := storage.Key(domain, code)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; ok {
		return storage.ErrKeyExists
	}
	s.data[key] = slices.Clone(payload)
	return nil
}

func (s *Store) Put(ctx context.Context, domain, code string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.data[storage.Key(domain, code)] = slices.Clone(payload)
	s.mu.Unlock()
	return nil
}

func (s *Store) Remove(ctx context.Context, domain, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.data, storage.Key(domain, code))
	s.mu.Unlock()
	return nil
}

// Get returns the payload stored under key.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Len returns the number of keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
