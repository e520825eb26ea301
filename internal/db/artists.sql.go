package db

import (
	"context"

	"github.com/google/uuid"
)

const getArtist = `-- name: GetArtist :one
SELECT id, name, label, created_at FROM artists
WHERE id = $1
`

func (q *Queries) GetArtist(ctx context.Context, id uuid.UUID) (Artist, error) {
	row := q.db.QueryRow(ctx, getArtist, id)
	var i Artist
	err := row.Scan(&i.ID, &i.Name, &i.Label, &i.CreatedAt)
	return i, err
}

const createArtist = `-- name: CreateArtist :one
INSERT INTO artists (id, name, label)
VALUES ($1, $2, $3)
RETURNING id, name, label, created_at
`

type CreateArtistParams struct {
	ID    uuid.UUID
	Name  string
	Label string
}

func (q *Queries) CreateArtist(ctx context.Context, arg CreateArtistParams) (Artist, error) {
	row := q.db.QueryRow(ctx, createArtist, arg.ID, arg.Name, arg.Label)
	var i Artist
	err := row.Scan(&i.ID, &i.Name, &i.Label, &i.CreatedAt)
	return i, err
}

const upsertArtist = `-- name: UpsertArtist :one
INSERT INTO artists (id, name, label)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, label = EXCLUDED.label
RETURNING id, name, label, created_at
`

type UpsertArtistParams struct {
	ID    uuid.UUID
	Name  string
	Label string
}

func (q *Queries) UpsertArtist(ctx context.Context, arg UpsertArtistParams) (Artist, error) {
	row := q.db.QueryRow(ctx, upsertArtist, arg.ID, arg.Name, arg.Label)
	var i Artist
	err := row.Scan(&i.ID, &i.Name, &i.Label, &i.CreatedAt)
	return i, err
}
