package link

import (
	"context"

	"github.com/google/uuid"
)

// CommitHook runs inside the write transaction after every statement has
// succeeded and before commit. before is the persisted link prior to the
// write (zero on create) and after is the link as it will be committed.
// A non-nil error rolls the transaction back.
type CommitHook func(ctx context.Context, before, after Link) error

// Repository defines the persistence operations for the Link aggregate.
// Every write runs in a single transaction and returns the aggregate re-read
// inside that transaction.
type Repository interface {
	GetDomain(ctx context.Context, id uuid.UUID) (Domain, error)
	CreateLink(ctx context.Context, link Link, hook CommitHook) (Link, error)
	UpdateLink(ctx context.Context, link Link, hook CommitHook) (Link, error)
	GetLink(ctx context.Context, id uuid.UUID) (Link, error)
	ListLinksByDomain(ctx context.Context, domainID uuid.UUID) ([]Link, error)
}
