// Package codegen draws random short-code candidates.
// Generators take their randomness from an injected source so callers can
// make draws reproducible. All generators are safe for concurrent use.
package codegen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// maxHexLength is the number of hex digits in a UUID.
	maxHexLength = 32
)

var (
	errNonPositiveLength = errors.New("length must be positive")

	// ErrExhausted is returned by a Sequence that has handed out every code.
	ErrExhausted = errors.New("codegen: sequence exhausted")
)

// Generator generates short-code candidates.
type Generator interface {
	Generate(length int) (string, error)
}

// Option configures a generator.
type Option func(*options)

type options struct {
	source io.Reader
}

// WithSource sets the randomness source. Defaults to crypto/rand.Reader.
// A non-concurrent source is serialized by the generator.
func WithSource(r io.Reader) Option {
	return func(o *options) {
		if r != nil {
			o.source = r
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{source: rand.Reader}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// lockedReader serializes reads from a source that is not safe for concurrent use.
type lockedReader struct {
	mu sync.Mutex
	r  io.Reader
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}

func wrapSource(r io.Reader) io.Reader {
	if r == rand.Reader {
		return r
	}
	return &lockedReader{r: r}
}

/***************
 * Base62
 ***************/

type base62Generator struct {
	source io.Reader
}

// NewBase62 returns a generator of random base62 strings.
func NewBase62(opts ...Option) Generator {
	o := buildOptions(opts)
	return &base62Generator{source: wrapSource(o.source)}
}

// Generate generates a random base62 string of the specified length.
func (g *base62Generator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", errNonPositiveLength
	}

	b := make([]byte, length)
	if _, err := io.ReadFull(g.source, b); err != nil {
		return "", err
	}

	for i := range b {
		b[i] = base62Chars[int(b[i])%len(base62Chars)]
	}

	return string(b), nil
}

/***************
 * Hex (UUID prefix)
 ***************/

type hexGenerator struct {
	source io.Reader
}

// NewHex returns a generator that takes the leading hex digits of a random
// UUID. With length 8 a code is exactly the UUID's first segment.
func NewHex(opts ...Option) Generator {
	o := buildOptions(opts)
	return &hexGenerator{source: wrapSource(o.source)}
}

func (g *hexGenerator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", errNonPositiveLength
	}
	if length > maxHexLength {
		return "", fmt.Errorf("length must be at most %d", maxHexLength)
	}

	id, err := uuid.NewRandomFromReader(g.source)
	if err != nil {
		return "", err
	}
	digits := strings.ReplaceAll(id.String(), "-", "")
	return digits[:length], nil
}

/***************
 * Sequence
 ***************/

// Sequence hands out a fixed list of codes in order, ignoring the requested
// length. It is meant for tests that need to script allocator draws.
type Sequence struct {
	mu    sync.Mutex
	codes []string
	next  int
}

// NewSequence returns a Sequence over codes.
func NewSequence(codes ...string) *Sequence {
	return &Sequence{codes: append([]string(nil), codes...)}
}

func (s *Sequence) Generate(int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.codes) {
		return "", ErrExhausted
	}
	code := s.codes[s.next]
	s.next++
	return code, nil
}

// Drawn reports how many codes have been handed out.
func (s *Sequence) Drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// New returns the generator registered under name: "hex" or "base62".
func New(name string, opts ...Option) (Generator, error) {
	switch name {
	case "hex", "":
		return NewHex(opts...), nil
	case "base62":
		return NewBase62(opts...), nil
	default:
		return nil, fmt.Errorf("unknown code generator %q", name)
	}
}
