// Package redisstore keeps the short-link key space in Redis. Each published
// link is a string key "{domain}/{code}" holding the link's JSON view.
package redisstore

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/redis/go-redis/v9"

	"github.com/sundayezeilo/shortlinks/internal/storage"
)

// DefaultScanCount is the COUNT hint passed to SCAN.
const DefaultScanCount = 256

// Store implements storage.Store on a Redis client.
type Store struct {
	client    redis.UniversalClient
	scanCount int64
}

var _ storage.Store = (*Store)(nil)

// New returns a Store using client.
func New(client redis.UniversalClient) *Store {
	return &Store{
		client:    client,
		scanCount: DefaultScanCount,
	}
}

// ListKeys walks SCAN with a case-insensitive MATCH pattern and drops the
// duplicates SCAN may return while the keyspace is rehashing.
func (s *Store) ListKeys(ctx context.Context, domain, prefix string) ([]string, error) {
	pattern := MatchPattern(domain, prefix)

	seen := make(map[string]struct{})
	var keys []string

	iter := s.client.Scan(ctx, 0, pattern, s.scanCount).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys %q: %w", pattern, err)
	}
	return keys, nil
}

func (s *Store) Reserve(ctx context.Context, domain, code string, payload []byte) error {
	key := storage.Key(domain, code)
	ok, err := s.client.SetNX(ctx, key, payload, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve key %q: %w", key, err)
	}
	if !ok {
		return storage.ErrKeyExists
	}
	return nil
}

func (s *Store) Put(ctx context.Context, domain, code string, payload []byte) error {
	key := storage.Key(domain, code)
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to put key %q: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, domain, code string) error {
	key := storage.Key(domain, code)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to remove key %q: %w", key, err)
	}
	return nil
}

// MatchPattern builds the SCAN MATCH glob for keys under domain whose code
// starts with prefix. Glob metacharacters are escaped and every letter of
// the prefix becomes a two-case class, so "aB" matches "ab", "AB", "Ab".
func MatchPattern(domain, prefix string) string {
	var b strings.Builder
	b.Grow(len(domain) + 4*len(prefix) + 2)

	writeEscaped(&b, domain)
	b.WriteByte('/')
	for _, r := range prefix {
		lower, upper := unicode.ToLower(r), unicode.ToUpper(r)
		if lower == upper {
			writeEscaped(&b, string(r))
			continue
		}
		b.WriteByte('[')
		b.WriteRune(lower)
		b.WriteRune(upper)
		b.WriteByte(']')
	}
	b.WriteByte('*')
	return b.String()
}

func writeEscaped(b *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '^':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
}
