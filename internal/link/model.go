package link

import (
	"time"

	"github.com/google/uuid"
)

// Domain is the namespace a link's code is unique within.
type Domain struct {
	ID   uuid.UUID
	Name string
}

type Artist struct {
	ID    uuid.UUID
	Name  string
	Label string
}

// Link is the short-link aggregate. Domain and Artists are populated on every
// link returned by the repository.
type Link struct {
	ID        uuid.UUID
	DomainID  uuid.UUID
	Code      string
	Title     string
	URL       string
	MediaType string
	IsActive  bool
	Domain    Domain
	Artists   []Artist
	CreatedAt time.Time
	UpdatedAt time.Time
}
