// Package seed loads domains and artists from a YAML file and upserts them,
// so links can reference them.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"gopkg.in/yaml.v3"

	"github.com/sundayezeilo/shortlinks/internal/db"
)

// namespace derives stable IDs for entries that do not carry one, so applying
// the same file twice updates rather than duplicates.
var namespace = uuid.MustParse("6f1c2a8e-3b4d-5e6f-8a9b-0c1d2e3f4a5b")

// File is the seed document.
type File struct {
	Domains []Domain `yaml:"domains"`
	Artists []Artist `yaml:"artists"`
}

type Domain struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type Artist struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
}

// Result reports what Apply wrote.
type Result struct {
	Domains []db.Domain
	Artists []db.Artist
}

// Load reads and parses a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a seed document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks names and IDs. Domain names must be unique.
func (f *File) Validate() error {
	var errs []error
	names := make(map[string]struct{}, len(f.Domains))

	for i, d := range f.Domains {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("domains[%d]: name cannot be empty", i))
			continue
		}
		if strings.Contains(name, "/") {
			errs = append(errs, fmt.Errorf("domains[%d]: name %q cannot contain '/'", i, name))
		}
		if _, dup := names[name]; dup {
			errs = append(errs, fmt.Errorf("domains[%d]: duplicate name %q", i, name))
		}
		names[name] = struct{}{}
		if _, err := parseID(d.ID, "domain", name); err != nil {
			errs = append(errs, fmt.Errorf("domains[%d]: %w", i, err))
		}
	}

	for i, a := range f.Artists {
		if strings.TrimSpace(a.Name) == "" {
			errs = append(errs, fmt.Errorf("artists[%d]: name cannot be empty", i))
			continue
		}
		if _, err := parseID(a.ID, "artist", a.Name); err != nil {
			errs = append(errs, fmt.Errorf("artists[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

func parseID(raw, kind, name string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.NewSHA1(namespace, []byte(kind+"/"+strings.TrimSpace(name))), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id, nil
}

// ErrRename is returned when the file renames a domain that already has
// links. Their keys are published under the old name, so the allocator would
// stop seeing them.
var ErrRename = errors.New("cannot rename a domain that has links")

// Querier is the subset of db.Querier used by Apply.
type Querier interface {
	GetDomain(ctx context.Context, id uuid.UUID) (db.Domain, error)
	ListLinksByDomain(ctx context.Context, domainID uuid.UUID) ([]db.Link, error)
	UpsertDomain(ctx context.Context, arg db.UpsertDomainParams) (db.Domain, error)
	UpsertArtist(ctx context.Context, arg db.UpsertArtistParams) (db.Artist, error)
}

// Apply upserts every entry of f in one transaction. Renaming a domain that
// has links fails with ErrRename and nothing is written.
func Apply(ctx context.Context, store db.TxStore, f *File) (Result, error) {
	var res Result
	err := store.ExecTx(ctx, func(q db.Querier) error {
		var err error
		res, err = apply(ctx, q, f)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func apply(ctx context.Context, q Querier, f *File) (Result, error) {
	var res Result

	for _, d := range f.Domains {
		name := strings.TrimSpace(d.Name)
		id, err := parseID(d.ID, "domain", name)
		if err != nil {
			return Result{}, err
		}
		if err := checkRename(ctx, q, id, name); err != nil {
			return Result{}, err
		}
		row, err := q.UpsertDomain(ctx, db.UpsertDomainParams{ID: id, Name: name})
		if err != nil {
			return Result{}, fmt.Errorf("domain %q: %w", name, err)
		}
		res.Domains = append(res.Domains, row)
	}

	for _, a := range f.Artists {
		id, err := parseID(a.ID, "artist", a.Name)
		if err != nil {
			return Result{}, err
		}
		row, err := q.UpsertArtist(ctx, db.UpsertArtistParams{
			ID:    id,
			Name:  strings.TrimSpace(a.Name),
			Label: a.Label,
		})
		if err != nil {
			return Result{}, fmt.Errorf("artist %q: %w", a.Name, err)
		}
		res.Artists = append(res.Artists, row)
	}

	return res, nil
}

func checkRename(ctx context.Context, q Querier, id uuid.UUID, name string) error {
	current, err := q.GetDomain(ctx, id)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("domain %q: %w", name, err)
	case current.Name == name:
		return nil
	}

	links, err := q.ListLinksByDomain(ctx, id)
	if err != nil {
		return fmt.Errorf("domain %q: %w", name, err)
	}
	if len(links) > 0 {
		return fmt.Errorf("domain %s (%q, %d links) to %q: %w", id, current.Name, len(links), name, ErrRename)
	}
	return nil
}
