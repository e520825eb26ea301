package link

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sundayezeilo/shortlinks/internal/db"
	"github.com/sundayezeilo/shortlinks/internal/errx"
	"github.com/sundayezeilo/shortlinks/internal/idgen"
)

type repo struct {
	store db.TxStore
	ids   idgen.Generator
}

// RepositoryConfig holds configuration for the repository
type RepositoryConfig struct {
	IDGenerator idgen.Generator
}

// NewRepository creates a Repository backed by store.
func NewRepository(store db.TxStore, config *RepositoryConfig) Repository {
	if config == nil {
		config = &RepositoryConfig{}
	}

	// Default: UUID v7 (good for DB locality). Retry once by default inside idgen.NewV7.
	if config.IDGenerator == nil {
		config.IDGenerator = idgen.NewV7(idgen.WithRetries(1))
	}

	return &repo{
		store: store,
		ids:   config.IDGenerator,
	}
}

func mustTime(ts pgtype.Timestamptz, field string) (time.Time, error) {
	if !ts.Valid {
		return time.Time{}, fmt.Errorf("%s unexpectedly NULL", field)
	}
	return ts.Time, nil
}

func toDomain(x db.Domain) Domain {
	return Domain{ID: x.ID, Name: x.Name}
}

func toArtists(rows []db.Artist) []Artist {
	if len(rows) == 0 {
		return nil
	}
	out := make([]Artist, len(rows))
	for i, a := range rows {
		out[i] = Artist{ID: a.ID, Name: a.Name, Label: a.Label}
	}
	return out
}

func toDomainLink(x db.Link, domain db.Domain, artists []db.Artist) (Link, error) {
	createdAt, err := mustTime(x.CreatedAt, "created_at")
	if err != nil {
		return Link{}, err
	}
	updatedAt, err := mustTime(x.UpdatedAt, "updated_at")
	if err != nil {
		return Link{}, err
	}

	return Link{
		ID:        x.ID,
		DomainID:  x.DomainID,
		Code:      x.Code,
		Title:     x.Title,
		URL:       x.Url,
		MediaType: x.MediaType,
		IsActive:  x.IsActive,
		Domain:    toDomain(domain),
		Artists:   toArtists(artists),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func (r *repo) newID() (uuid.UUID, error) {
	id, err := r.ids.Generate()
	if err != nil {
		return uuid.Nil, errx.E("link.repo.newID", errx.Unavailable, err)
	}
	return id, nil
}

func (r *repo) GetDomain(ctx context.Context, id uuid.UUID) (Domain, error) {
	const op = "link.repo.GetDomain"

	row, err := r.store.GetDomain(ctx, id)
	if err != nil {
		return Domain{}, mapRepoError(op, err)
	}
	return toDomain(row), nil
}

func (r *repo) GetLink(ctx context.Context, id uuid.UUID) (Link, error) {
	const op = "link.repo.GetLink"

	link, err := loadLink(ctx, r.store, id)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return link, nil
}

func (r *repo) ListLinksByDomain(ctx context.Context, domainID uuid.UUID) ([]Link, error) {
	const op = "link.repo.ListLinksByDomain"

	domain, err := r.store.GetDomain(ctx, domainID)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	rows, err := r.store.ListLinksByDomain(ctx, domainID)
	if err != nil {
		return nil, mapRepoError(op, err)
	}

	links := make([]Link, 0, len(rows))
	for _, row := range rows {
		artists, err := r.store.ListLinkArtists(ctx, row.ID)
		if err != nil {
			return nil, mapRepoError(op, err)
		}
		link, err := toDomainLink(row, domain, artists)
		if err != nil {
			return nil, errx.E(op, errx.Internal, err)
		}
		links = append(links, link)
	}
	return links, nil
}

// CreateLink inserts the link, any artists not yet stored and the link-artist
// associations in one transaction. The link is always stored active.
func (r *repo) CreateLink(ctx context.Context, link Link, hook CommitHook) (Link, error) {
	const op = "link.repo.CreateLink"

	if link.ID == uuid.Nil {
		id, err := r.newID()
		if err != nil {
			return Link{}, errx.Wrap(op, err)
		}
		link.ID = id
	}

	var created Link
	err := r.store.ExecTx(ctx, func(q db.Querier) error {
		if _, err := q.GetDomain(ctx, link.DomainID); err != nil {
			return fmt.Errorf("domain %s: %w", link.DomainID, err)
		}

		if _, err := q.CreateLink(ctx, db.CreateLinkParams{
			ID:        link.ID,
			DomainID:  link.DomainID,
			Code:      link.Code,
			Title:     link.Title,
			Url:       link.URL,
			MediaType: link.MediaType,
			IsActive:  true,
		}); err != nil {
			return err
		}

		if err := r.attachArtists(ctx, q, link.ID, link.Artists); err != nil {
			return err
		}

		var err error
		created, err = loadLink(ctx, q, link.ID)
		if err != nil {
			return err
		}

		if hook != nil {
			return hook(ctx, Link{}, created)
		}
		return nil
	})
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return created, nil
}

// UpdateLink overwrites the code, title, url and media type of an existing
// link and marks it active. Domain and artists are left untouched.
func (r *repo) UpdateLink(ctx context.Context, link Link, hook CommitHook) (Link, error) {
	const op = "link.repo.UpdateLink"

	var updated Link
	err := r.store.ExecTx(ctx, func(q db.Querier) error {
		row, err := q.GetLinkForUpdate(ctx, link.ID)
		if err != nil {
			return fmt.Errorf("link %s: %w", link.ID, err)
		}
		before, err := loadLinkRow(ctx, q, row)
		if err != nil {
			return err
		}

		if _, err := q.UpdateLink(ctx, db.UpdateLinkParams{
			ID:        link.ID,
			Code:      link.Code,
			Title:     link.Title,
			Url:       link.URL,
			MediaType: link.MediaType,
			IsActive:  true,
		}); err != nil {
			return err
		}

		updated, err = loadLink(ctx, q, link.ID)
		if err != nil {
			return err
		}

		if hook != nil {
			return hook(ctx, before, updated)
		}
		return nil
	})
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}
	return updated, nil
}

// attachArtists associates every artist with the link. An artist already in
// the store is attached by reference; any other is inserted first. Repeated
// IDs collapse into a single association.
func (r *repo) attachArtists(ctx context.Context, q db.Querier, linkID uuid.UUID, artists []Artist) error {
	seen := make(map[uuid.UUID]struct{}, len(artists))

	for _, a := range artists {
		if a.ID == uuid.Nil {
			id, err := r.newID()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}

		_, err := q.GetArtist(ctx, a.ID)
		switch {
		case err == nil:
		case errors.Is(err, pgx.ErrNoRows):
			if _, err := q.CreateArtist(ctx, db.CreateArtistParams{
				ID:    a.ID,
				Name:  a.Name,
				Label: a.Label,
			}); err != nil {
				return fmt.Errorf("artist %s: %w", a.ID, err)
			}
		default:
			return fmt.Errorf("artist %s: %w", a.ID, err)
		}

		if err := q.AddLinkArtist(ctx, db.AddLinkArtistParams{
			LinkID:   linkID,
			ArtistID: a.ID,
		}); err != nil {
			return fmt.Errorf("artist %s: %w", a.ID, err)
		}
	}
	return nil
}

func loadLink(ctx context.Context, q db.Querier, id uuid.UUID) (Link, error) {
	row, err := q.GetLink(ctx, id)
	if err != nil {
		return Link{}, fmt.Errorf("link %s: %w", id, err)
	}
	return loadLinkRow(ctx, q, row)
}

func loadLinkRow(ctx context.Context, q db.Querier, row db.Link) (Link, error) {
	domain, err := q.GetDomain(ctx, row.DomainID)
	if err != nil {
		return Link{}, fmt.Errorf("domain %s: %w", row.DomainID, err)
	}
	artists, err := q.ListLinkArtists(ctx, row.ID)
	if err != nil {
		return Link{}, err
	}

	link, err := toDomainLink(row, domain, artists)
	if err != nil {
		return Link{}, errx.E("link.repo.loadLink", errx.Internal, err)
	}
	return link, nil
}
