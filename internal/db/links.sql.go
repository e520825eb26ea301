package db

import (
	"context"

	"github.com/google/uuid"
)

const createLink = `-- name: CreateLink :one
INSERT INTO links (id, domain_id, code, title, url, media_type, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, domain_id, code, title, url, media_type, is_active, created_at, updated_at
`

type CreateLinkParams struct {
	ID        uuid.UUID
	DomainID  uuid.UUID
	Code      string
	Title     string
	Url       string
	MediaType string
	IsActive  bool
}

func (q *Queries) CreateLink(ctx context.Context, arg CreateLinkParams) (Link, error) {
	row := q.db.QueryRow(ctx, createLink,
		arg.ID,
		arg.DomainID,
		arg.Code,
		arg.Title,
		arg.Url,
		arg.MediaType,
		arg.IsActive,
	)
	var i Link
	err := row.Scan(
		&i.ID,
		&i.DomainID,
		&i.Code,
		&i.Title,
		&i.Url,
		&i.MediaType,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getLink = `-- name: GetLink :one
SELECT id, domain_id, code, title, url, media_type, is_active, created_at, updated_at FROM links
WHERE id = $1
`

func (q *Queries) GetLink(ctx context.Context, id uuid.UUID) (Link, error) {
	row := q.db.QueryRow(ctx, getLink, id)
	var i Link
	err := row.Scan(
		&i.ID,
		&i.DomainID,
		&i.Code,
		&i.Title,
		&i.Url,
		&i.MediaType,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getLinkForUpdate = `-- name: GetLinkForUpdate :one
SELECT id, domain_id, code, title, url, media_type, is_active, created_at, updated_at FROM links
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetLinkForUpdate(ctx context.Context, id uuid.UUID) (Link, error) {
	row := q.db.QueryRow(ctx, getLinkForUpdate, id)
	var i Link
	err := row.Scan(
		&i.ID,
		&i.DomainID,
		&i.Code,
		&i.Title,
		&i.Url,
		&i.MediaType,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateLink = `-- name: UpdateLink :one
UPDATE links
SET code = $2,
    title = $3,
    url = $4,
    media_type = $5,
    is_active = $6,
    updated_at = now()
WHERE id = $1
RETURNING id, domain_id, code, title, url, media_type, is_active, created_at, updated_at
`

type UpdateLinkParams struct {
	ID        uuid.UUID
	Code      string
	Title     string
	Url       string
	MediaType string
	IsActive  bool
}

func (q *Queries) UpdateLink(ctx context.Context, arg UpdateLinkParams) (Link, error) {
	row := q.db.QueryRow(ctx, updateLink,
		arg.ID,
		arg.Code,
		arg.Title,
		arg.Url,
		arg.MediaType,
		arg.IsActive,
	)
	var i Link
	err := row.Scan(
		&i.ID,
		&i.DomainID,
		&i.Code,
		&i.Title,
		&i.Url,
		&i.MediaType,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listLinksByDomain = `-- name: ListLinksByDomain :many
SELECT id, domain_id, code, title, url, media_type, is_active, created_at, updated_at FROM links
WHERE domain_id = $1
ORDER BY created_at, id
`

func (q *Queries) ListLinksByDomain(ctx context.Context, domainID uuid.UUID) ([]Link, error) {
	rows, err := q.db.Query(ctx, listLinksByDomain, domainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Link
	for rows.Next() {
		var i Link
		if err := rows.Scan(
			&i.ID,
			&i.DomainID,
			&i.Code,
			&i.Title,
			&i.Url,
			&i.MediaType,
			&i.IsActive,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
