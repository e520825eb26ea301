package link

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sundayezeilo/shortlinks/internal/db"
	"github.com/sundayezeilo/shortlinks/internal/errx"
	"github.com/sundayezeilo/shortlinks/internal/idgen"
)

/***************
 * Fake store
 ***************/

// fakeTxStore is an in-memory db.TxStore. ExecTx restores the previous state
// when fn fails.
type fakeTxStore struct {
	domains     map[uuid.UUID]db.Domain
	artists     map[uuid.UUID]db.Artist
	links       map[uuid.UUID]db.Link
	linkArtists []db.LinkArtist

	errs      map[string]error
	calls     []string
	commits   int
	rollbacks int
	now       time.Time
}

var _ db.TxStore = (*fakeTxStore)(nil)

func newFakeTxStore() *fakeTxStore {
	return &fakeTxStore{
		domains: make(map[uuid.UUID]db.Domain),
		artists: make(map[uuid.UUID]db.Artist),
		links:   make(map[uuid.UUID]db.Link),
		errs:    make(map[string]error),
		now:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func (s *fakeTxStore) ts() pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: s.now, Valid: true}
}

func (s *fakeTxStore) call(name string) error {
	s.calls = append(s.calls, name)
	return s.errs[name]
}

func (s *fakeTxStore) count(name string) int {
	n := 0
	for _, c := range s.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (s *fakeTxStore) ExecTx(_ context.Context, fn func(db.Querier) error) error {
	domains := maps.Clone(s.domains)
	artists := maps.Clone(s.artists)
	links := maps.Clone(s.links)
	linkArtists := slices.Clone(s.linkArtists)

	if err := fn(s); err != nil {
		s.domains, s.artists, s.links, s.linkArtists = domains, artists, links, linkArtists
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

func (s *fakeTxStore) AddLinkArtist(_ context.Context, arg db.AddLinkArtistParams) error {
	if err := s.call("AddLinkArtist"); err != nil {
		return err
	}
	la := db.LinkArtist{LinkID: arg.LinkID, ArtistID: arg.ArtistID}
	if !slices.Contains(s.linkArtists, la) {
		s.linkArtists = append(s.linkArtists, la)
	}
	return nil
}

func (s *fakeTxStore) CountLinkArtists(_ context.Context, linkID uuid.UUID) (int64, error) {
	if err := s.call("CountLinkArtists"); err != nil {
		return 0, err
	}
	var n int64
	for _, la := range s.linkArtists {
		if la.LinkID == linkID {
			n++
		}
	}
	return n, nil
}

func (s *fakeTxStore) CreateArtist(_ context.Context, arg db.CreateArtistParams) (db.Artist, error) {
	if err := s.call("CreateArtist"); err != nil {
		return db.Artist{}, err
	}
	if _, ok := s.artists[arg.ID]; ok {
		return db.Artist{}, &pgconn.PgError{Code: pgUniqueViolation}
	}
	a := db.Artist{ID: arg.ID, Name: arg.Name, Label: arg.Label, CreatedAt: s.ts()}
	s.artists[a.ID] = a
	return a, nil
}

func (s *fakeTxStore) CreateLink(_ context.Context, arg db.CreateLinkParams) (db.Link, error) {
	if err := s.call("CreateLink"); err != nil {
		return db.Link{}, err
	}
	if _, ok := s.domains[arg.DomainID]; !ok {
		return db.Link{}, &pgconn.PgError{Code: pgForeignKeyViolation}
	}
	if _, ok := s.links[arg.ID]; ok {
		return db.Link{}, &pgconn.PgError{Code: pgUniqueViolation}
	}
	l := db.Link{
		ID:        arg.ID,
		DomainID:  arg.DomainID,
		Code:      arg.Code,
		Title:     arg.Title,
		Url:       arg.Url,
		MediaType: arg.MediaType,
		IsActive:  arg.IsActive,
		CreatedAt: s.ts(),
		UpdatedAt: s.ts(),
	}
	s.links[l.ID] = l
	return l, nil
}

func (s *fakeTxStore) GetArtist(_ context.Context, id uuid.UUID) (db.Artist, error) {
	if err := s.call("GetArtist"); err != nil {
		return db.Artist{}, err
	}
	a, ok := s.artists[id]
	if !ok {
		return db.Artist{}, pgx.ErrNoRows
	}
	return a, nil
}

func (s *fakeTxStore) GetDomain(_ context.Context, id uuid.UUID) (db.Domain, error) {
	if err := s.call("GetDomain"); err != nil {
		return db.Domain{}, err
	}
	d, ok := s.domains[id]
	if !ok {
		return db.Domain{}, pgx.ErrNoRows
	}
	return d, nil
}

func (s *fakeTxStore) GetDomainByName(_ context.Context, name string) (db.Domain, error) {
	if err := s.call("GetDomainByName"); err != nil {
		return db.Domain{}, err
	}
	for _, d := range s.domains {
		if d.Name == name {
			return d, nil
		}
	}
	return db.Domain{}, pgx.ErrNoRows
}

func (s *fakeTxStore) GetLink(_ context.Context, id uuid.UUID) (db.Link, error) {
	if err := s.call("GetLink"); err != nil {
		return db.Link{}, err
	}
	l, ok := s.links[id]
	if !ok {
		return db.Link{}, pgx.ErrNoRows
	}
	return l, nil
}

func (s *fakeTxStore) GetLinkForUpdate(_ context.Context, id uuid.UUID) (db.Link, error) {
	if err := s.call("GetLinkForUpdate"); err != nil {
		return db.Link{}, err
	}
	l, ok := s.links[id]
	if !ok {
		return db.Link{}, pgx.ErrNoRows
	}
	return l, nil
}

func (s *fakeTxStore) ListLinkArtists(_ context.Context, linkID uuid.UUID) ([]db.Artist, error) {
	if err := s.call("ListLinkArtists"); err != nil {
		return nil, err
	}
	var out []db.Artist
	for _, la := range s.linkArtists {
		if la.LinkID == linkID {
			out = append(out, s.artists[la.ArtistID])
		}
	}
	slices.SortFunc(out, func(a, b db.Artist) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (s *fakeTxStore) ListLinksByDomain(_ context.Context, domainID uuid.UUID) ([]db.Link, error) {
	if err := s.call("ListLinksByDomain"); err != nil {
		return nil, err
	}
	var out []db.Link
	for _, l := range s.links {
		if l.DomainID == domainID {
			out = append(out, l)
		}
	}
	slices.SortFunc(out, func(a, b db.Link) int { return strings.Compare(a.Code, b.Code) })
	return out, nil
}

func (s *fakeTxStore) UpdateLink(_ context.Context, arg db.UpdateLinkParams) (db.Link, error) {
	if err := s.call("UpdateLink"); err != nil {
		return db.Link{}, err
	}
	l, ok := s.links[arg.ID]
	if !ok {
		return db.Link{}, pgx.ErrNoRows
	}
	l.Code = arg.Code
	l.Title = arg.Title
	l.Url = arg.Url
	l.MediaType = arg.MediaType
	l.IsActive = arg.IsActive
	l.UpdatedAt = pgtype.Timestamptz{Time: s.now.Add(time.Minute), Valid: true}
	s.links[l.ID] = l
	return l, nil
}

func (s *fakeTxStore) UpsertArtist(_ context.Context, arg db.UpsertArtistParams) (db.Artist, error) {
	if err := s.call("UpsertArtist"); err != nil {
		return db.Artist{}, err
	}
	a := db.Artist{ID: arg.ID, Name: arg.Name, Label: arg.Label, CreatedAt: s.ts()}
	s.artists[a.ID] = a
	return a, nil
}

func (s *fakeTxStore) UpsertDomain(_ context.Context, arg db.UpsertDomainParams) (db.Domain, error) {
	if err := s.call("UpsertDomain"); err != nil {
		return db.Domain{}, err
	}
	d := db.Domain{ID: arg.ID, Name: arg.Name, CreatedAt: s.ts()}
	s.domains[d.ID] = d
	return d, nil
}

/***************
 * Helpers
 ***************/

func newTestRepo(t *testing.T, ids ...uuid.UUID) (*fakeTxStore, Repository, db.Domain) {
	t.Helper()
	store := newFakeTxStore()
	d := db.Domain{ID: uuid.New(), Name: "sho.rt", CreatedAt: store.ts()}
	store.domains[d.ID] = d

	cfg := &RepositoryConfig{}
	if len(ids) > 0 {
		cfg.IDGenerator = idgen.Fixed(ids...)
	}
	return store, NewRepository(store, cfg), d
}

/***************
 * Mapping
 ***************/

func TestMustTime(t *testing.T) {
	now := time.Now()

	got, err := mustTime(pgtype.Timestamptz{Time: now, Valid: true}, "created_at")
	if err != nil {
		t.Fatalf("mustTime() unexpected error: %v", err)
	}
	if !got.Equal(now) {
		t.Errorf("mustTime() = %v, want %v", got, now)
	}

	_, err = mustTime(pgtype.Timestamptz{}, "updated_at")
	if err == nil || !strings.Contains(err.Error(), "updated_at") {
		t.Errorf("mustTime() error = %v, want one naming updated_at", err)
	}
}

func TestToDomainLink(t *testing.T) {
	ts := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	d := db.Domain{ID: uuid.New(), Name: "sho.rt"}
	row := db.Link{
		ID: uuid.New(), DomainID: d.ID, Code: "abc", Title: "t", Url: "u",
		MediaType: "video", IsActive: true, CreatedAt: ts, UpdatedAt: ts,
	}

	t.Run("maps every column", func(t *testing.T) {
		artist := db.Artist{ID: uuid.New(), Name: "Nina", Label: "Philips"}
		l, err := toDomainLink(row, d, []db.Artist{artist})
		if err != nil {
			t.Fatalf("toDomainLink() unexpected error: %v", err)
		}
		if l.ID != row.ID || l.Code != "abc" || l.URL != "u" || l.MediaType != "video" || !l.IsActive {
			t.Errorf("toDomainLink() = %+v", l)
		}
		if l.Domain != (Domain{ID: d.ID, Name: "sho.rt"}) {
			t.Errorf("Domain = %+v", l.Domain)
		}
		if len(l.Artists) != 1 || l.Artists[0] != (Artist{ID: artist.ID, Name: "Nina", Label: "Philips"}) {
			t.Errorf("Artists = %+v", l.Artists)
		}
	})

	t.Run("no artists stays nil", func(t *testing.T) {
		l, err := toDomainLink(row, d, []db.Artist{})
		if err != nil {
			t.Fatalf("toDomainLink() unexpected error: %v", err)
		}
		if l.Artists != nil {
			t.Errorf("Artists = %v, want nil", l.Artists)
		}
	})

	t.Run("null timestamp", func(t *testing.T) {
		bad := row
		bad.UpdatedAt = pgtype.Timestamptz{}
		if _, err := toDomainLink(bad, d, nil); err == nil {
			t.Fatal("expected error for NULL updated_at")
		}
	})
}

func TestMapRepoError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errx.Kind
	}{
		{"no rows", pgx.ErrNoRows, errx.NotFound},
		{"wrapped no rows", fmt.Errorf("domain x: %w", pgx.ErrNoRows), errx.NotFound},
		{"foreign key", &pgconn.PgError{Code: pgForeignKeyViolation}, errx.NotFound},
		{"unique", &pgconn.PgError{Code: pgUniqueViolation}, errx.Conflict},
		{"serialization", &pgconn.PgError{Code: pgSerializationFailure}, errx.Conflict},
		{"deadlock", &pgconn.PgError{Code: pgDeadlockDetected}, errx.Conflict},
		{"other pg error", &pgconn.PgError{Code: "53300"}, errx.Unavailable},
		{"plain error", errors.New("connection refused"), errx.Unavailable},
		{"kind preserved", errx.E("hook", errx.Capacity, errors.New("x")), errx.Capacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapRepoError("op", tt.err)
			if got := errx.KindOf(err); got != tt.want {
				t.Errorf("mapRepoError() kind = %v, want %v", got, tt.want)
			}
			if got := errx.OpOf(err); got != "op" {
				t.Errorf("mapRepoError() op = %q, want op", got)
			}
			if !errors.Is(err, tt.err) {
				t.Error("mapRepoError() lost the cause")
			}
		})
	}

	if mapRepoError("op", nil) != nil {
		t.Error("mapRepoError(nil) != nil")
	}
}

/***************
 * CreateLink
 ***************/

func TestRepo_CreateLink(t *testing.T) {
	ctx := context.Background()

	t.Run("stores an active link and reads it back", func(t *testing.T) {
		linkID := uuid.New()
		store, r, d := newTestRepo(t, linkID)

		created, err := r.CreateLink(ctx, Link{DomainID: d.ID, Code: "abc", Title: "t", URL: "u"}, nil)
		if err != nil {
			t.Fatalf("CreateLink() unexpected error: %v", err)
		}
		if created.ID != linkID {
			t.Errorf("ID = %v, want generated %v", created.ID, linkID)
		}
		if !created.IsActive || !store.links[linkID].IsActive {
			t.Error("link not stored active")
		}
		if created.Domain.Name != "sho.rt" {
			t.Errorf("Domain = %+v", created.Domain)
		}
		if created.CreatedAt.IsZero() {
			t.Error("CreatedAt not populated")
		}
		if store.commits != 1 {
			t.Errorf("commits = %d, want 1", store.commits)
		}
	})

	t.Run("caller id is kept", func(t *testing.T) {
		_, r, d := newTestRepo(t)
		id := uuid.New()

		created, err := r.CreateLink(ctx, Link{ID: id, DomainID: d.ID, Code: "abc", URL: "u"}, nil)
		if err != nil {
			t.Fatalf("CreateLink() unexpected error: %v", err)
		}
		if created.ID != id {
			t.Errorf("ID = %v, want %v", created.ID, id)
		}
	})

	t.Run("unknown domain", func(t *testing.T) {
		store, r, _ := newTestRepo(t)

		_, err := r.CreateLink(ctx, Link{DomainID: uuid.New(), Code: "abc", URL: "u"}, nil)
		wantKind(t, err, errx.NotFound)
		if len(store.links) != 0 || store.rollbacks != 1 {
			t.Errorf("links = %d, rollbacks = %d", len(store.links), store.rollbacks)
		}
	})

	t.Run("existing and new artists", func(t *testing.T) {
		store, r, d := newTestRepo(t)
		a1 := db.Artist{ID: uuid.New(), Name: "Nina", Label: "Philips", CreatedAt: store.ts()}
		store.artists[a1.ID] = a1
		a2 := uuid.New()

		created, err := r.CreateLink(ctx, Link{
			DomainID: d.ID, Code: "abc", URL: "u",
			Artists: []Artist{
				{ID: a1.ID, Name: "ignored"},
				{ID: a2, Name: "Miles", Label: "Columbia"},
			},
		}, nil)
		if err != nil {
			t.Fatalf("CreateLink() unexpected error: %v", err)
		}

		if got := store.count("CreateArtist"); got != 1 {
			t.Errorf("CreateArtist called %d times, want 1", got)
		}
		if store.artists[a1.ID].Name != "Nina" {
			t.Errorf("existing artist overwritten: %+v", store.artists[a1.ID])
		}
		if store.artists[a2].Name != "Miles" {
			t.Errorf("new artist not stored: %+v", store.artists[a2])
		}
		if len(created.Artists) != 2 {
			t.Fatalf("len(Artists) = %d, want 2", len(created.Artists))
		}
		if created.Artists[0].Name != "Miles" || created.Artists[1].Name != "Nina" {
			t.Errorf("Artists = %+v, want ordered by name", created.Artists)
		}
	})

	t.Run("artist without id gets one", func(t *testing.T) {
		linkID, artistID := uuid.New(), uuid.New()
		store, r, d := newTestRepo(t, linkID, artistID)

		created, err := r.CreateLink(ctx, Link{
			DomainID: d.ID, Code: "abc", URL: "u",
			Artists: []Artist{{Name: "Anon"}},
		}, nil)
		if err != nil {
			t.Fatalf("CreateLink() unexpected error: %v", err)
		}
		if _, ok := store.artists[artistID]; !ok {
			t.Errorf("artist not stored under generated id %v", artistID)
		}
		if len(created.Artists) != 1 || created.Artists[0].ID != artistID {
			t.Errorf("Artists = %+v", created.Artists)
		}
	})

	t.Run("repeated artist collapses", func(t *testing.T) {
		store, r, d := newTestRepo(t)
		a := uuid.New()

		created, err := r.CreateLink(ctx, Link{
			DomainID: d.ID, Code: "abc", URL: "u",
			Artists: []Artist{{ID: a, Name: "Nina"}, {ID: a, Name: "Nina"}},
		}, nil)
		if err != nil {
			t.Fatalf("CreateLink() unexpected error: %v", err)
		}
		if len(created.Artists) != 1 || len(store.linkArtists) != 1 || len(store.artists) != 1 {
			t.Errorf("artists = %d, associations = %d, rows = %d",
				len(created.Artists), len(store.linkArtists), len(store.artists))
		}
	})

	t.Run("artist shared by two links", func(t *testing.T) {
		store, r, d := newTestRepo(t)
		a := Artist{ID: uuid.New(), Name: "Nina"}

		for _, code := range []string{"one", "two"} {
			if _, err := r.CreateLink(ctx, Link{DomainID: d.ID, Code: code, URL: "u", Artists: []Artist{a}}, nil); err != nil {
				t.Fatalf("CreateLink(%s) unexpected error: %v", code, err)
			}
		}
		if len(store.artists) != 1 {
			t.Errorf("artist rows = %d, want 1", len(store.artists))
		}
		if len(store.linkArtists) != 2 {
			t.Errorf("associations = %d, want 2", len(store.linkArtists))
		}
	})

	t.Run("artist lookup failure rolls back", func(t *testing.T) {
		store, r, d := newTestRepo(t)
		store.errs["GetArtist"] = errors.New("connection reset")

		_, err := r.CreateLink(ctx, Link{
			DomainID: d.ID, Code: "abc", URL: "u",
			Artists: []Artist{{ID: uuid.New(), Name: "Nina"}},
		}, nil)
		wantKind(t, err, errx.Unavailable)
		if store.count("CreateArtist") != 0 {
			t.Error("CreateArtist called after a failed lookup")
		}
		if len(store.links) != 0 {
			t.Errorf("links = %d after rollback, want 0", len(store.links))
		}
	})

	t.Run("hook sees the created link", func(t *testing.T) {
		_, r, d := newTestRepo(t)
		var before, after Link

		created, err := r.CreateLink(ctx, Link{DomainID: d.ID, Code: "abc", URL: "u"},
			func(_ context.Context, b, a Link) error {
				before, after = b, a
				return nil
			})
		if err != nil {
			t.Fatalf("CreateLink() unexpected error: %v", err)
		}
		if before.ID != uuid.Nil {
			t.Errorf("before = %+v, want zero", before)
		}
		if after.ID != created.ID || after.Domain.Name != "sho.rt" {
			t.Errorf("after = %+v", after)
		}
	})

	t.Run("hook error rolls back everything", func(t *testing.T) {
		store, r, d := newTestRepo(t)

		_, err := r.CreateLink(ctx, Link{
			DomainID: d.ID, Code: "abc", URL: "u",
			Artists: []Artist{{ID: uuid.New(), Name: "New"}},
		}, func(context.Context, Link, Link) error {
			return errx.E("hook", errx.Conflict, errors.New("taken"))
		})
		wantKind(t, err, errx.Conflict)
		if len(store.links) != 0 || len(store.artists) != 0 || len(store.linkArtists) != 0 {
			t.Errorf("state left after rollback: links=%d artists=%d associations=%d",
				len(store.links), len(store.artists), len(store.linkArtists))
		}
	})

	t.Run("duplicate id is a conflict", func(t *testing.T) {
		_, r, d := newTestRepo(t)
		id := uuid.New()

		if _, err := r.CreateLink(ctx, Link{ID: id, DomainID: d.ID, Code: "abc", URL: "u"}, nil); err != nil {
			t.Fatalf("CreateLink() unexpected error: %v", err)
		}
		_, err := r.CreateLink(ctx, Link{ID: id, DomainID: d.ID, Code: "xyz", URL: "u"}, nil)
		wantKind(t, err, errx.Conflict)
	})

	t.Run("id generation failure", func(t *testing.T) {
		_, r, d := newTestRepo(t, uuid.New())
		a := []Artist{{Name: "needs an id"}}

		_, err := r.CreateLink(ctx, Link{DomainID: d.ID, Code: "abc", URL: "u", Artists: a}, nil)
		wantKind(t, err, errx.Unavailable)
	})
}

/***************
 * UpdateLink and reads
 ***************/

func TestRepo_UpdateLink(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*fakeTxStore, Repository, Link) {
		t.Helper()
		store, r, d := newTestRepo(t)
		l, err := r.CreateLink(ctx, Link{
			DomainID: d.ID, Code: "old", Title: "t0", URL: "u0", MediaType: "audio",
			Artists: []Artist{{ID: uuid.New(), Name: "Nina"}},
		}, nil)
		if err != nil {
			t.Fatalf("seed CreateLink() unexpected error: %v", err)
		}
		return store, r, l
	}

	t.Run("overwrites fields and keeps artists", func(t *testing.T) {
		store, r, orig := seed(t)
		row := store.links[orig.ID]
		row.IsActive = false
		store.links[orig.ID] = row

		var before, after Link
		updated, err := r.UpdateLink(ctx, Link{ID: orig.ID, Code: "code", Title: "title", URL: "url"},
			func(_ context.Context, b, a Link) error {
				before, after = b, a
				return nil
			})
		if err != nil {
			t.Fatalf("UpdateLink() unexpected error: %v", err)
		}

		if updated.Code != "code" || updated.Title != "title" || updated.URL != "url" || updated.MediaType != "" {
			t.Errorf("updated = %+v", updated)
		}
		if !updated.IsActive {
			t.Error("update did not re-activate the link")
		}
		if len(updated.Artists) != 1 || updated.Artists[0].Name != "Nina" {
			t.Errorf("Artists = %+v, want unchanged", updated.Artists)
		}
		if before.Code != "old" || after.Code != "code" {
			t.Errorf("hook saw before=%q after=%q", before.Code, after.Code)
		}
		if !updated.UpdatedAt.After(updated.CreatedAt) {
			t.Error("UpdatedAt not advanced")
		}
	})

	t.Run("missing link", func(t *testing.T) {
		store, r, _ := seed(t)

		_, err := r.UpdateLink(ctx, Link{ID: uuid.New(), Code: "x", URL: "u"}, nil)
		wantKind(t, err, errx.NotFound)
		if store.count("UpdateLink") != 0 {
			t.Error("UpdateLink issued for a missing row")
		}
	})

	t.Run("hook error restores the row", func(t *testing.T) {
		store, r, orig := seed(t)

		_, err := r.UpdateLink(ctx, Link{ID: orig.ID, Code: "new", URL: "u"},
			func(context.Context, Link, Link) error {
				return errx.E("hook", errx.Unavailable, errors.New("redis down"))
			})
		wantKind(t, err, errx.Unavailable)
		if store.links[orig.ID].Code != "old" {
			t.Errorf("code = %q after rollback, want old", store.links[orig.ID].Code)
		}
	})
}

func TestRepo_Reads(t *testing.T) {
	ctx := context.Background()
	store, r, d := newTestRepo(t)

	for _, code := range []string{"bbb", "aaa"} {
		if _, err := r.CreateLink(ctx, Link{DomainID: d.ID, Code: code, URL: "u"}, nil); err != nil {
			t.Fatalf("CreateLink() unexpected error: %v", err)
		}
	}

	t.Run("GetDomain", func(t *testing.T) {
		got, err := r.GetDomain(ctx, d.ID)
		if err != nil {
			t.Fatalf("GetDomain() unexpected error: %v", err)
		}
		if got != (Domain{ID: d.ID, Name: "sho.rt"}) {
			t.Errorf("GetDomain() = %+v", got)
		}

		_, err = r.GetDomain(ctx, uuid.New())
		wantKind(t, err, errx.NotFound)
	})

	t.Run("GetLink not found", func(t *testing.T) {
		_, err := r.GetLink(ctx, uuid.New())
		wantKind(t, err, errx.NotFound)
	})

	t.Run("ListLinksByDomain", func(t *testing.T) {
		links, err := r.ListLinksByDomain(ctx, d.ID)
		if err != nil {
			t.Fatalf("ListLinksByDomain() unexpected error: %v", err)
		}
		if len(links) != 2 || links[0].Code != "aaa" || links[1].Code != "bbb" {
			t.Errorf("ListLinksByDomain() = %+v", links)
		}
		for _, l := range links {
			if l.Domain.Name != "sho.rt" {
				t.Errorf("link %s missing domain", l.Code)
			}
		}

		_, err = r.ListLinksByDomain(ctx, uuid.New())
		wantKind(t, err, errx.NotFound)
	})

	t.Run("storage failure", func(t *testing.T) {
		store.errs["ListLinksByDomain"] = errors.New("connection reset")
		_, err := r.ListLinksByDomain(ctx, d.ID)
		wantKind(t, err, errx.Unavailable)
	})
}
