package db

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Artist struct {
	ID        uuid.UUID
	Name      string
	Label     string
	CreatedAt pgtype.Timestamptz
}

type Domain struct {
	ID        uuid.UUID
	Name      string
	CreatedAt pgtype.Timestamptz
}

type Link struct {
	ID        uuid.UUID
	DomainID  uuid.UUID
	Code      string
	Title     string
	Url       string
	MediaType string
	IsActive  bool
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type LinkArtist struct {
	LinkID   uuid.UUID
	ArtistID uuid.UUID
}
