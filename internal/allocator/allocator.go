// Package allocator hands out short codes that stay unambiguous under
// prefix lookups within a domain.
//
// A candidate code is checked against every existing key whose code starts
// with the candidate minus its last two characters. Comparisons ignore case.
// The candidate is rejected when, for some existing code:
//
//	existing == code                  exact match
//	existing == code[:len(code)-2]    an existing shorter neighbor
//	existing[:len(existing)-2] == code an existing longer neighbor
//
// Codes of two characters or fewer are checked against the whole domain.
package allocator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sundayezeilo/shortlinks/codegen"
	"github.com/sundayezeilo/shortlinks/internal/errx"
	"github.com/sundayezeilo/shortlinks/internal/storage"
)

const (
	DefaultCodeLength  = 8
	DefaultMaxAttempts = 10

	// neighborhood is how many trailing characters are ignored when looking
	// for prefix neighbors.
	neighborhood = 2
)

// Reason explains the outcome of a check.
type Reason uint8

const (
	Available Reason = iota
	ExactMatch
	ShorterNeighbor
	LongerNeighbor
)

func (r Reason) String() string {
	switch r {
	case Available:
		return "available"
	case ExactMatch:
		return "exact_match"
	case ShorterNeighbor:
		return "shorter_neighbor"
	case LongerNeighbor:
		return "longer_neighbor"
	default:
		return fmt.Sprintf("Reason(%d)", r)
	}
}

// Verdict is the result of checking one code.
type Verdict struct {
	Code   string
	Reason Reason
	// Conflicting is the existing key that caused the rejection.
	Conflicting string
}

// Available reports whether the code may be used.
func (v Verdict) Available() bool { return v.Reason == Available }

// Allocator draws and checks short codes against a storage.Lister.
type Allocator struct {
	lister      storage.Lister
	generator   codegen.Generator
	length      int
	maxAttempts int
	logger      *slog.Logger
}

// Config holds optional allocator settings.
type Config struct {
	Generator   codegen.Generator // default: codegen.NewHex()
	CodeLength  int               // default: DefaultCodeLength
	MaxAttempts int               // draws per Allocate call (default: DefaultMaxAttempts)
	Logger      *slog.Logger
}

// New returns an Allocator that checks candidates against lister.
func New(lister storage.Lister, config *Config) *Allocator {
	if config == nil {
		config = &Config{}
	}

	gen := config.Generator
	if gen == nil {
		gen = codegen.NewHex()
	}

	length := config.CodeLength
	if length <= 0 {
		length = DefaultCodeLength
	}

	attempts := config.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Allocator{
		lister:      lister,
		generator:   gen,
		length:      length,
		maxAttempts: attempts,
		logger:      logger,
	}
}

// Allocate draws candidates until one is available under domain.
// It gives up with an errx.Capacity error after MaxAttempts draws.
func (a *Allocator) Allocate(ctx context.Context, domain string) (string, error) {
	code, _, err := a.AllocateWithin(ctx, domain, a.maxAttempts)
	return code, err
}

// AllocateWithin is Allocate with an explicit draw budget. draws is the number
// of candidates taken from the generator, also on error, so a caller that
// retries can spend a single budget across several calls.
func (a *Allocator) AllocateWithin(ctx context.Context, domain string, budget int) (code string, draws int, err error) {
	const op = "allocator.Allocate"

	if domain == "" {
		return "", 0, errx.E(op, errx.Invalid, errors.New("domain cannot be empty"))
	}

	for draws < budget {
		code, err := a.generator.Generate(a.length)
		if err != nil {
			return "", draws, errx.E(op, errx.Unavailable, fmt.Errorf("failed to draw code: %w", err))
		}
		draws++

		verdict, err := a.check(ctx, domain, code, "")
		if err != nil {
			return "", draws, errx.Wrap(op, err)
		}
		if verdict.Available() {
			return code, draws, nil
		}

		a.logger.DebugContext(ctx, "code candidate rejected",
			"domain", domain,
			"code", code,
			"reason", verdict.Reason.String(),
			"conflicting", verdict.Conflicting,
			"attempt", draws,
		)
	}

	a.logger.WarnContext(ctx, "code allocation exhausted",
		"domain", domain,
		"attempts", draws,
	)
	return "", draws, errx.E(op, errx.Capacity,
		fmt.Errorf("no free code in domain %q after %d attempts", domain, draws))
}

// Check evaluates code under domain.
func (a *Allocator) Check(ctx context.Context, domain, code string) (Verdict, error) {
	const op = "allocator.Check"

	v, err := a.check(ctx, domain, code, "")
	if err != nil {
		return Verdict{}, errx.Wrap(op, err)
	}
	return v, nil
}

// CheckReplacement evaluates code as the new code of a link whose current
// code is current, so the link's own key does not count against it.
func (a *Allocator) CheckReplacement(ctx context.Context, domain, code, current string) (Verdict, error) {
	const op = "allocator.CheckReplacement"

	v, err := a.check(ctx, domain, code, current)
	if err != nil {
		return Verdict{}, errx.Wrap(op, err)
	}
	return v, nil
}

// IsValid reports whether code is available under domain.
func (a *Allocator) IsValid(ctx context.Context, domain, code string) (bool, error) {
	v, err := a.Check(ctx, domain, code)
	if err != nil {
		return false, err
	}
	return v.Available(), nil
}

func (a *Allocator) check(ctx context.Context, domain, code, ignore string) (Verdict, error) {
	const op = "allocator.check"

	if domain == "" {
		return Verdict{}, errx.E(op, errx.Invalid, errors.New("domain cannot be empty"))
	}
	if code == "" {
		return Verdict{}, errx.E(op, errx.Invalid, errors.New("code cannot be empty"))
	}

	keys, err := a.lister.ListKeys(ctx, domain, shorten(code))
	if err != nil {
		return Verdict{}, errx.E(op, errx.Unavailable, err)
	}

	if ignore != "" {
		keys = withoutCode(keys, ignore)
	}
	return Evaluate(code, keys), nil
}

// Evaluate applies the collision rules to code against existing keys.
// Exact matches are looked for across all keys before neighbors.
func Evaluate(code string, keys []string) Verdict {
	shorter := shorten(code)

	for _, key := range keys {
		if strings.EqualFold(storage.CodeOf(key), code) {
			return Verdict{Code: code, Reason: ExactMatch, Conflicting: key}
		}
	}

	for _, key := range keys {
		existing := storage.CodeOf(key)
		if shorter != "" && strings.EqualFold(existing, shorter) {
			return Verdict{Code: code, Reason: ShorterNeighbor, Conflicting: key}
		}
		if strings.EqualFold(shorten(existing), code) {
			return Verdict{Code: code, Reason: LongerNeighbor, Conflicting: key}
		}
	}

	return Verdict{Code: code, Reason: Available}
}

// shorten drops the last two characters of code.
func shorten(code string) string {
	if len(code) <= neighborhood {
		return ""
	}
	return code[:len(code)-neighborhood]
}

func withoutCode(keys []string, code string) []string {
	out := keys[:0:0]
	for _, key := range keys {
		if !strings.EqualFold(storage.CodeOf(key), code) {
			out = append(out, key)
		}
	}
	return out
}
