package link

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sundayezeilo/shortlinks/internal/errx"
	"github.com/sundayezeilo/shortlinks/internal/httpx"
)

// ArtistRequest is an artist in a create request. A missing ID creates a new artist.
type ArtistRequest struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Label string    `json:"label,omitempty"`
}

// CreateLinkRequest represents the JSON request body for creating a link.
type CreateLinkRequest struct {
	ID        uuid.UUID       `json:"id"`
	DomainID  uuid.UUID       `json:"domainId"`
	Code      string          `json:"code,omitempty"` // optional: allocated when empty
	Title     string          `json:"title,omitempty"`
	URL       string          `json:"url"`
	MediaType string          `json:"mediaType,omitempty"`
	Artists   []ArtistRequest `json:"artists,omitempty"`
}

// UpdateLinkRequest represents the JSON request body for updating a link.
type UpdateLinkRequest struct {
	Code      string `json:"code"`
	Title     string `json:"title,omitempty"`
	URL       string `json:"url"`
	MediaType string `json:"mediaType,omitempty"`
}

// CodeResponse is returned by the code generation endpoint.
type CodeResponse struct {
	Code string `json:"code"`
}

// CheckCodeResponse is returned by the code check endpoint.
type CheckCodeResponse struct {
	Code        string `json:"code"`
	Valid       bool   `json:"valid"`
	Reason      string `json:"reason"`
	Conflicting string `json:"conflicting,omitempty"`
}

// Handler provides HTTP handlers for the link service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
	}
}

// Routes registers the link endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/links", h.CreateLink)
	r.Get("/links/{id}", h.GetLink)
	r.Put("/links/{id}", h.UpdateLink)
	r.Post("/domains/{domainID}/codes", h.GenerateCode)
	r.Get("/domains/{domainID}/codes/{code}", h.CheckCode)
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

// CreateLink handles POST requests to create a new link.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	req, err := httpx.DecodeJSON[CreateLinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request",
			"error", err.Error(),
		)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	link := Link{
		ID:        req.ID,
		DomainID:  req.DomainID,
		Code:      req.Code,
		Title:     req.Title,
		URL:       req.URL,
		MediaType: req.MediaType,
	}
	for _, a := range req.Artists {
		link.Artists = append(link.Artists, Artist{ID: a.ID, Name: a.Name, Label: a.Label})
	}

	created, err := h.service.CreateLink(ctx, link)
	if err != nil {
		h.handleError(ctx, logger, w, err)
		return
	}

	logger.InfoContext(ctx, "link created successfully",
		"link_id", created.ID.String(),
		"domain", created.Domain.Name,
		"code", created.Code,
		"custom_code", req.Code != "",
		"artists", len(created.Artists),
	)

	httpx.WriteJSON(w, http.StatusCreated, Project(created))
}

// GetLink handles GET requests for a single link.
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	id, ok := h.pathUUID(w, r, logger, "id")
	if !ok {
		return
	}

	link, err := h.service.GetLink(ctx, id)
	if err != nil {
		h.handleError(ctx, logger, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, Project(link))
}

// UpdateLink handles PUT requests replacing a link's code, title, url and media type.
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	id, ok := h.pathUUID(w, r, logger, "id")
	if !ok {
		return
	}

	req, err := httpx.DecodeJSON[UpdateLinkRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request",
			"error", err.Error(),
		)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	updated, err := h.service.UpdateLink(ctx, Link{
		ID:        id,
		Code:      req.Code,
		Title:     req.Title,
		URL:       req.URL,
		MediaType: req.MediaType,
	})
	if err != nil {
		h.handleError(ctx, logger, w, err)
		return
	}

	logger.InfoContext(ctx, "link updated successfully",
		"link_id", updated.ID.String(),
		"code", updated.Code,
	)

	httpx.WriteJSON(w, http.StatusOK, Project(updated))
}

// GenerateCode handles POST requests for a fresh code in a domain.
func (h *Handler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	domainID, ok := h.pathUUID(w, r, logger, "domainID")
	if !ok {
		return
	}

	code, err := h.service.GenerateUniqueCode(ctx, domainID)
	if err != nil {
		h.handleError(ctx, logger, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, CodeResponse{Code: code})
}

// CheckCode handles GET requests reporting whether a code is free in a domain.
func (h *Handler) CheckCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	domainID, ok := h.pathUUID(w, r, logger, "domainID")
	if !ok {
		return
	}

	verdict, err := h.service.CheckCode(ctx, domainID, chi.URLParam(r, "code"))
	if err != nil {
		h.handleError(ctx, logger, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, CheckCodeResponse{
		Code:        verdict.Code,
		Valid:       verdict.Available(),
		Reason:      verdict.Reason.String(),
		Conflicting: verdict.Conflicting,
	})
}

func (h *Handler) pathUUID(w http.ResponseWriter, r *http.Request, logger *slog.Logger, param string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.WarnContext(r.Context(), "invalid path id",
			"param", param,
			"value", raw,
		)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_id", param+" must be a UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// handleError maps a service error onto the response by its kind.
func (h *Handler) handleError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error) {
	kind := errx.KindOf(err)
	logger = logger.With(
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	)

	switch kind {
	case errx.Invalid:
		logger.WarnContext(ctx, "invalid link request")
		httpx.WriteKind(w, kind, err.Error(), nil)

	case errx.NotFound:
		logger.WarnContext(ctx, "referenced entity not found")
		httpx.WriteKind(w, kind, "domain or link doesn't exist", nil)

	case errx.Conflict:
		logger.WarnContext(ctx, "code conflict")
		httpx.WriteKind(w, kind,
			"This code is already taken or too close to an existing one",
			map[string]string{
				"hint": "Try a different code or let us generate one for you",
			})

	case errx.Capacity:
		logger.ErrorContext(ctx, "code space exhausted")
		httpx.WriteKind(w, kind,
			"No free code could be found for this domain. Please try again.", nil)

	default:
		logger.ErrorContext(ctx, "link request failed")
		httpx.WriteKind(w, kind,
			"Unable to process the link at this time. Please try again.", nil)
	}
}
