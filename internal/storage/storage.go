// Package storage defines the flat, domain-organized key space that records
// every published short link. Keys have the form "{domain}/{code}" and the
// code segment is always stored lowercase.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrKeyExists is returned by Reserve when the key is already taken.
var ErrKeyExists = errors.New("storage: key already exists")

// Lister lists existing keys under a domain.
type Lister interface {
	// ListKeys returns every key under domain whose code starts with prefix,
	// compared case-insensitively. Keys are unique; order is unspecified.
	ListKeys(ctx context.Context, domain, prefix string) ([]string, error)
}

// Store is a Lister that can also publish and retract short-link keys.
type Store interface {
	Lister
	// Reserve writes payload under the key only if the key does not exist yet.
	Reserve(ctx context.Context, domain, code string, payload []byte) error
	// Put writes payload under the key unconditionally.
	Put(ctx context.Context, domain, code string, payload []byte) error
	// Remove deletes the key. Removing a missing key is not an error.
	Remove(ctx context.Context, domain, code string) error
}

// Key returns the storage key of code under domain.
func Key(domain, code string) string {
	return domain + "/" + strings.ToLower(code)
}

// CodeOf returns the terminal path segment of key.
func CodeOf(key string) string {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}
	return key
}
