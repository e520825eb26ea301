package db

import (
	"context"

	"github.com/google/uuid"
)

const getDomain = `-- name: GetDomain :one
SELECT id, name, created_at FROM domains
WHERE id = $1
`

func (q *Queries) GetDomain(ctx context.Context, id uuid.UUID) (Domain, error) {
	row := q.db.QueryRow(ctx, getDomain, id)
	var i Domain
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const getDomainByName = `-- name: GetDomainByName :one
SELECT id, name, created_at FROM domains
WHERE name = $1
`

func (q *Queries) GetDomainByName(ctx context.Context, name string) (Domain, error) {
	row := q.db.QueryRow(ctx, getDomainByName, name)
	var i Domain
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const upsertDomain = `-- name: UpsertDomain :one
INSERT INTO domains (id, name)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name, created_at
`

type UpsertDomainParams struct {
	ID   uuid.UUID
	Name string
}

func (q *Queries) UpsertDomain(ctx context.Context, arg UpsertDomainParams) (Domain, error) {
	row := q.db.QueryRow(ctx, upsertDomain, arg.ID, arg.Name)
	var i Domain
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}
