package db

import (
	"context"

	"github.com/google/uuid"
)

type Querier interface {
	AddLinkArtist(ctx context.Context, arg AddLinkArtistParams) error
	CountLinkArtists(ctx context.Context, linkID uuid.UUID) (int64, error)
	CreateArtist(ctx context.Context, arg CreateArtistParams) (Artist, error)
	CreateLink(ctx context.Context, arg CreateLinkParams) (Link, error)
	GetArtist(ctx context.Context, id uuid.UUID) (Artist, error)
	GetDomain(ctx context.Context, id uuid.UUID) (Domain, error)
	GetDomainByName(ctx context.Context, name string) (Domain, error)
	GetLink(ctx context.Context, id uuid.UUID) (Link, error)
	GetLinkForUpdate(ctx context.Context, id uuid.UUID) (Link, error)
	ListLinkArtists(ctx context.Context, linkID uuid.UUID) ([]Artist, error)
	ListLinksByDomain(ctx context.Context, domainID uuid.UUID) ([]Link, error)
	UpdateLink(ctx context.Context, arg UpdateLinkParams) (Link, error)
	UpsertArtist(ctx context.Context, arg UpsertArtistParams) (Artist, error)
	UpsertDomain(ctx context.Context, arg UpsertDomainParams) (Domain, error)
}

var _ Querier = (*Queries)(nil)
