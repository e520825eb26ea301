package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sundayezeilo/shortlinks/internal/db"
)

type fakeQuerier struct {
	domains map[uuid.UUID]db.Domain
	artists map[uuid.UUID]db.Artist
	links   map[uuid.UUID]int // links per domain
	err     error
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		domains: make(map[uuid.UUID]db.Domain),
		artists: make(map[uuid.UUID]db.Artist),
		links:   make(map[uuid.UUID]int),
	}
}

func (f *fakeQuerier) GetDomain(_ context.Context, id uuid.UUID) (db.Domain, error) {
	if f.err != nil {
		return db.Domain{}, f.err
	}
	d, ok := f.domains[id]
	if !ok {
		return db.Domain{}, pgx.ErrNoRows
	}
	return d, nil
}

func (f *fakeQuerier) ListLinksByDomain(_ context.Context, domainID uuid.UUID) ([]db.Link, error) {
	return make([]db.Link, f.links[domainID]), nil
}

func (f *fakeQuerier) UpsertDomain(_ context.Context, arg db.UpsertDomainParams) (db.Domain, error) {
	if f.err != nil {
		return db.Domain{}, f.err
	}
	d := db.Domain{ID: arg.ID, Name: arg.Name}
	f.domains[d.ID] = d
	return d, nil
}

func (f *fakeQuerier) UpsertArtist(_ context.Context, arg db.UpsertArtistParams) (db.Artist, error) {
	if f.err != nil {
		return db.Artist{}, f.err
	}
	a := db.Artist{ID: arg.ID, Name: arg.Name, Label: arg.Label}
	f.artists[a.ID] = a
	return a, nil
}

const sample = `
domains:
  - id: 0192a6c4-2f1e-7c3a-9b1d-5e8f7a6b4c3d
    name: sho.rt
  - name: " lnk.to "
artists:
  - name: Nina Simone
    label: Philips
  - id: 0192a6c4-2f1e-7c3a-9b1d-000000000001
    name: Miles Davis
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	if len(f.Domains) != 2 || len(f.Artists) != 2 {
		t.Fatalf("Parse() = %d domains, %d artists", len(f.Domains), len(f.Artists))
	}
	if f.Artists[0].Label != "Philips" {
		t.Errorf("Artists[0].Label = %q, want Philips", f.Artists[0].Label)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"not yaml", "domains: [", "failed to parse"},
		{"empty domain name", "domains:\n  - id: \"\"\n    name: \"\"\n", "name cannot be empty"},
		{"slash in domain", "domains:\n  - name: a/b\n", "cannot contain"},
		{"duplicate domain", "domains:\n  - name: sho.rt\n  - name: sho.rt\n", "duplicate name"},
		{"bad domain id", "domains:\n  - id: nope\n    name: sho.rt\n", "invalid id"},
		{"empty artist name", "artists:\n  - label: x\n", "name cannot be empty"},
		{"bad artist id", "artists:\n  - id: not-a-uuid\n    name: Nina\n", "invalid id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("failed to write seed file: %v", err)
	}

	if _, err := Load(path); err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}

func TestApply(t *testing.T) {
	f, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	ctx := context.Background()

	t.Run("upserts every entry", func(t *testing.T) {
		q := newFakeQuerier()
		res, err := apply(ctx, q, f)
		if err != nil {
			t.Fatalf("apply() unexpected error: %v", err)
		}
		if len(res.Domains) != 2 || len(res.Artists) != 2 {
			t.Fatalf("apply() = %+v", res)
		}
		if res.Domains[0].ID != uuid.MustParse("0192a6c4-2f1e-7c3a-9b1d-5e8f7a6b4c3d") {
			t.Errorf("explicit domain id not kept: %v", res.Domains[0].ID)
		}
		if res.Domains[1].Name != "lnk.to" {
			t.Errorf("domain name = %q, want trimmed lnk.to", res.Domains[1].Name)
		}
	})

	t.Run("derived ids are stable", func(t *testing.T) {
		q := newFakeQuerier()
		first, err := apply(ctx, q, f)
		if err != nil {
			t.Fatalf("apply() unexpected error: %v", err)
		}
		second, err := apply(ctx, q, f)
		if err != nil {
			t.Fatalf("apply() unexpected error: %v", err)
		}
		if first.Artists[0].ID != second.Artists[0].ID || first.Domains[1].ID != second.Domains[1].ID {
			t.Error("re-applying the file produced new ids")
		}
		if len(q.domains) != 2 || len(q.artists) != 2 {
			t.Errorf("rows = %d domains, %d artists; want 2 and 2", len(q.domains), len(q.artists))
		}
	})

	t.Run("renaming a domain without links", func(t *testing.T) {
		q := newFakeQuerier()
		id := uuid.MustParse("0192a6c4-2f1e-7c3a-9b1d-5e8f7a6b4c3d")
		q.domains[id] = db.Domain{ID: id, Name: "old.rt"}

		res, err := apply(ctx, q, f)
		if err != nil {
			t.Fatalf("apply() unexpected error: %v", err)
		}
		if res.Domains[0].Name != "sho.rt" {
			t.Errorf("domain name = %q, want sho.rt", res.Domains[0].Name)
		}
	})

	t.Run("renaming a domain with links", func(t *testing.T) {
		q := newFakeQuerier()
		id := uuid.MustParse("0192a6c4-2f1e-7c3a-9b1d-5e8f7a6b4c3d")
		q.domains[id] = db.Domain{ID: id, Name: "old.rt"}
		q.links[id] = 3

		_, err := apply(ctx, q, f)
		if !errors.Is(err, ErrRename) {
			t.Fatalf("apply() error = %v, want ErrRename", err)
		}
		if q.domains[id].Name != "old.rt" {
			t.Errorf("domain renamed to %q", q.domains[id].Name)
		}
	})

	t.Run("same name with links", func(t *testing.T) {
		q := newFakeQuerier()
		id := uuid.MustParse("0192a6c4-2f1e-7c3a-9b1d-5e8f7a6b4c3d")
		q.domains[id] = db.Domain{ID: id, Name: "sho.rt"}
		q.links[id] = 3

		if _, err := apply(ctx, q, f); err != nil {
			t.Fatalf("apply() unexpected error: %v", err)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		q := newFakeQuerier()
		q.err = errors.New("connection reset")
		if _, err := apply(ctx, q, f); err == nil || !strings.Contains(err.Error(), "sho.rt") {
			t.Errorf("apply() error = %v, want one naming the domain", err)
		}
	})
}
