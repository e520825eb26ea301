package db

import (
	"context"

	"github.com/google/uuid"
)

const addLinkArtist = `-- name: AddLinkArtist :exec
INSERT INTO link_artists (link_id, artist_id)
VALUES ($1, $2)
ON CONFLICT (link_id, artist_id) DO NOTHING
`

type AddLinkArtistParams struct {
	LinkID   uuid.UUID
	ArtistID uuid.UUID
}

func (q *Queries) AddLinkArtist(ctx context.Context, arg AddLinkArtistParams) error {
	_, err := q.db.Exec(ctx, addLinkArtist, arg.LinkID, arg.ArtistID)
	return err
}

const countLinkArtists = `-- name: CountLinkArtists :one
SELECT count(*) FROM link_artists
WHERE link_id = $1
`

func (q *Queries) CountLinkArtists(ctx context.Context, linkID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countLinkArtists, linkID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const listLinkArtists = `-- name: ListLinkArtists :many
SELECT a.id, a.name, a.label, a.created_at FROM artists a
JOIN link_artists la ON la.artist_id = a.id
WHERE la.link_id = $1
ORDER BY a.name, a.id
`

func (q *Queries) ListLinkArtists(ctx context.Context, linkID uuid.UUID) ([]Artist, error) {
	rows, err := q.db.Query(ctx, listLinkArtists, linkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Artist
	for rows.Next() {
		var i Artist
		if err := rows.Scan(&i.ID, &i.Name, &i.Label, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
