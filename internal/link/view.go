package link

import "github.com/google/uuid"

// View is the outward representation of a Link.
type View struct {
	ID        uuid.UUID    `json:"id"`
	Code      string       `json:"code"`
	DomainID  uuid.UUID    `json:"domainId"`
	IsActive  bool         `json:"isActive"`
	MediaType string       `json:"mediaType"`
	Title     string       `json:"title"`
	URL       string       `json:"url"`
	Artists   []ViewArtist `json:"artists,omitempty"`
}

type ViewArtist struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Label string    `json:"label"`
}

// Project renders l as a View. Artists stays nil when l has none, so the
// field is absent from the JSON encoding rather than an empty list.
func Project(l Link) View {
	v := View{
		ID:        l.ID,
		Code:      l.Code,
		DomainID:  l.DomainID,
		IsActive:  l.IsActive,
		MediaType: l.MediaType,
		Title:     l.Title,
		URL:       l.URL,
	}

	if len(l.Artists) > 0 {
		v.Artists = make([]ViewArtist, len(l.Artists))
		for i, a := range l.Artists {
			v.Artists[i] = ViewArtist{
				ID:    a.ID,
				Name:  a.Name,
				Label: a.Label,
			}
		}
	}
	return v
}
