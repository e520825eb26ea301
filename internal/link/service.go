package link

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/shortlinks/internal/allocator"
	"github.com/sundayezeilo/shortlinks/internal/errx"
	"github.com/sundayezeilo/shortlinks/internal/storage"
	"github.com/sundayezeilo/shortlinks/internal/storage/memstore"
)

const (
	MaxCodeLength      = 64
	MinCodeLength      = 3
	MaxURLLength       = 2048
	DefaultMaxAttempts = allocator.DefaultMaxAttempts

	// releaseTimeout bounds the cleanup of a key reserved by a transaction
	// that failed to commit.
	releaseTimeout = 5 * time.Second
)

// CodeAllocator hands out and checks short codes within a domain.
type CodeAllocator interface {
	Allocate(ctx context.Context, domain string) (string, error)
	// AllocateWithin draws at most budget candidates and reports how many it drew.
	AllocateWithin(ctx context.Context, domain string, budget int) (code string, draws int, err error)
	Check(ctx context.Context, domain, code string) (allocator.Verdict, error)
	CheckReplacement(ctx context.Context, domain, code, current string) (allocator.Verdict, error)
}

// Service defines the link lifecycle operations.
type Service interface {
	CreateLink(ctx context.Context, link Link) (Link, error)
	UpdateLink(ctx context.Context, link Link) (Link, error)
	GetLink(ctx context.Context, id uuid.UUID) (Link, error)
	GenerateUniqueCode(ctx context.Context, domainID uuid.UUID) (string, error)
	CheckCode(ctx context.Context, domainID uuid.UUID, code string) (allocator.Verdict, error)
	SyncDomain(ctx context.Context, domainID uuid.UUID) (int, error)
	ProjectView(link *Link) (View, error)
}

type service struct {
	repo        Repository
	allocator   CodeAllocator
	store       storage.Store
	maxAttempts int
	logger      *slog.Logger
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	// Store receives the published key of every link (default: in-memory).
	Store storage.Store
	// Allocator defaults to an allocator.Allocator over Store.
	Allocator   CodeAllocator
	MaxAttempts int // code draws per create, lost races included (default: DefaultMaxAttempts)
	Logger      *slog.Logger
}

// NewService creates a new service instance.
func NewService(repo Repository, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store := config.Store
	if store == nil {
		store = memstore.New()
	}

	alloc := config.Allocator
	if alloc == nil {
		alloc = allocator.New(store, &allocator.Config{Logger: logger})
	}

	attempts := config.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	return &service{
		repo:        repo,
		allocator:   alloc,
		store:       store,
		maxAttempts: attempts,
		logger:      logger,
	}
}

// CreateLink persists a new active link. A supplied code must pass the
// allocator's collision rules; otherwise a code is allocated, and a code lost
// to a concurrent create is replaced with a fresh one.
func (s *service) CreateLink(ctx context.Context, link Link) (Link, error) {
	const op = "link.service.CreateLink"

	if link.DomainID == uuid.Nil {
		return Link{}, errx.E(op, errx.Invalid, errors.New("domain id is required"))
	}
	if err := validateURL(link.URL); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}
	if link.Code != "" {
		if err := validateCode(link.Code); err != nil {
			return Link{}, errx.E(op, errx.Invalid, err)
		}
	}

	domain, err := s.repo.GetDomain(ctx, link.DomainID)
	if err != nil {
		return Link{}, errx.Wrap(op, err)
	}
	link.IsActive = true

	// Supplied code: check it and create once
	if link.Code != "" {
		verdict, err := s.allocator.Check(ctx, domain.Name, link.Code)
		if err != nil {
			return Link{}, errx.Wrap(op, err)
		}
		if !verdict.Available() {
			return Link{}, errx.E(op, errx.Conflict, rejection(verdict))
		}
		created, _, err := s.create(ctx, domain, link)
		if err != nil {
			return Link{}, errx.Wrap(op, err)
		}
		return created, nil
	}

	// Allocated code: draws rejected by the listing and codes lost at
	// reservation share one budget of maxAttempts draws.
	budget := s.maxAttempts
	for attempt := 1; budget > 0; attempt++ {
		code, draws, err := s.allocator.AllocateWithin(ctx, domain.Name, budget)
		budget -= max(draws, 1)
		if err != nil {
			return Link{}, errx.Wrap(op, err)
		}
		link.Code = code

		created, taken, err := s.create(ctx, domain, link)
		if err == nil {
			return created, nil
		}
		if !taken {
			return Link{}, errx.Wrap(op, err)
		}

		s.logger.WarnContext(ctx, "allocated code lost a race, retrying",
			"domain", domain.Name,
			"code", code,
			"attempt", attempt,
			"draws_left", budget,
			"error", err.Error(),
		)
	}

	return Link{}, errx.E(op, errx.Capacity,
		fmt.Errorf("could not persist a unique code in domain %q within %d draws", domain.Name, s.maxAttempts))
}

// create persists link and publishes its key. taken reports whether the
// failure was the code being published by someone else first.
func (s *service) create(ctx context.Context, domain Domain, link Link) (created Link, taken bool, err error) {
	const op = "link.service.create"

	pub := &publication{store: s.store, domain: domain.Name}
	created, err = s.repo.CreateLink(ctx, link, pub.hook)
	if err != nil {
		pub.release(ctx, s.logger)
		return Link{}, pub.taken, errx.Wrap(op, err)
	}
	return created, false, nil
}

// UpdateLink overwrites the code, title, url and media type of an existing
// link and re-activates it.
func (s *service) UpdateLink(ctx context.Context, link Link) (Link, error) {
	const op = "link.service.UpdateLink"

	if link.ID == uuid.Nil {
		return Link{}, errx.E(op, errx.Invalid, errors.New("link id is required"))
	}
	if err := validateCode(link.Code); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}
	if err := validateURL(link.URL); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}

	current, err := s.repo.GetLink(ctx, link.ID)
	if err != nil {
		return Link{}, errx.Wrap(op, err)
	}

	if !strings.EqualFold(current.Code, link.Code) {
		verdict, err := s.allocator.CheckReplacement(ctx, current.Domain.Name, link.Code, current.Code)
		if err != nil {
			return Link{}, errx.Wrap(op, err)
		}
		if !verdict.Available() {
			return Link{}, errx.E(op, errx.Conflict, rejection(verdict))
		}
	}

	pub := &publication{store: s.store, domain: current.Domain.Name}
	updated, err := s.repo.UpdateLink(ctx, link, pub.hook)
	if err != nil {
		pub.release(ctx, s.logger)
		return Link{}, errx.Wrap(op, err)
	}

	// The link is committed. Storage failures from here on are logged and
	// repaired by a domain sync.
	if pub.republish {
		if err := s.republish(ctx, pub.domain, updated); err != nil {
			s.logger.ErrorContext(ctx, "failed to republish updated link",
				"domain", pub.domain,
				"code", updated.Code,
				"link_id", updated.ID.String(),
				"error", err.Error(),
			)
		}
	}
	if pub.replaced != "" {
		if err := s.store.Remove(ctx, pub.domain, pub.replaced); err != nil {
			s.logger.ErrorContext(ctx, "failed to remove replaced code",
				"domain", pub.domain,
				"code", pub.replaced,
				"link_id", updated.ID.String(),
				"error", err.Error(),
			)
		}
	}
	return updated, nil
}

func (s *service) republish(ctx context.Context, domain string, link Link) error {
	payload, err := json.Marshal(Project(link))
	if err != nil {
		return err
	}
	return s.store.Put(ctx, domain, link.Code, payload)
}

func (s *service) GetLink(ctx context.Context, id uuid.UUID) (Link, error) {
	const op = "link.service.GetLink"

	if id == uuid.Nil {
		return Link{}, errx.E(op, errx.Invalid, errors.New("link id is required"))
	}

	link, err := s.repo.GetLink(ctx, id)
	if err != nil {
		return Link{}, errx.Wrap(op, err)
	}
	return link, nil
}

// GenerateUniqueCode allocates a code that is currently free in the domain.
// The code is not reserved.
func (s *service) GenerateUniqueCode(ctx context.Context, domainID uuid.UUID) (string, error) {
	const op = "link.service.GenerateUniqueCode"

	if domainID == uuid.Nil {
		return "", errx.E(op, errx.Invalid, errors.New("domain id is required"))
	}

	domain, err := s.repo.GetDomain(ctx, domainID)
	if err != nil {
		return "", errx.Wrap(op, err)
	}

	code, err := s.allocator.Allocate(ctx, domain.Name)
	if err != nil {
		return "", errx.Wrap(op, err)
	}
	return code, nil
}

func (s *service) CheckCode(ctx context.Context, domainID uuid.UUID, code string) (allocator.Verdict, error) {
	const op = "link.service.CheckCode"

	if domainID == uuid.Nil {
		return allocator.Verdict{}, errx.E(op, errx.Invalid, errors.New("domain id is required"))
	}
	if err := validateCode(code); err != nil {
		return allocator.Verdict{}, errx.E(op, errx.Invalid, err)
	}

	domain, err := s.repo.GetDomain(ctx, domainID)
	if err != nil {
		return allocator.Verdict{}, errx.Wrap(op, err)
	}

	verdict, err := s.allocator.Check(ctx, domain.Name, code)
	if err != nil {
		return allocator.Verdict{}, errx.Wrap(op, err)
	}
	return verdict, nil
}

// SyncDomain republishes the key of every link in the domain and returns how
// many were written.
func (s *service) SyncDomain(ctx context.Context, domainID uuid.UUID) (int, error) {
	const op = "link.service.SyncDomain"

	if domainID == uuid.Nil {
		return 0, errx.E(op, errx.Invalid, errors.New("domain id is required"))
	}

	links, err := s.repo.ListLinksByDomain(ctx, domainID)
	if err != nil {
		return 0, errx.Wrap(op, err)
	}

	for i, l := range links {
		payload, err := json.Marshal(Project(l))
		if err != nil {
			return i, errx.E(op, errx.Internal, err)
		}
		if err := s.store.Put(ctx, l.Domain.Name, l.Code, payload); err != nil {
			return i, errx.E(op, errx.Unavailable, err)
		}
	}

	s.logger.InfoContext(ctx, "domain synced to storage",
		"domain_id", domainID.String(),
		"links", len(links),
	)
	return len(links), nil
}

func (s *service) ProjectView(link *Link) (View, error) {
	const op = "link.service.ProjectView"

	if link == nil {
		return View{}, errx.E(op, errx.Invalid, errors.New("link cannot be nil"))
	}
	return Project(*link), nil
}

// publication writes a link's key to storage from inside the write
// transaction. A new code is reserved so a concurrent writer of the same key
// loses with a conflict. An unchanged code is left alone until commit.
type publication struct {
	store  storage.Store
	domain string

	// reserved is the code this publication reserved, if any.
	reserved string
	// replaced is the previous code of an updated link whose key must be
	// removed once the transaction commits.
	replaced string
	// taken is set when the key already existed.
	taken bool
	// republish is set when an update kept its code; the key is overwritten
	// only after the transaction commits.
	republish bool
}

func (p *publication) hook(ctx context.Context, before, after Link) error {
	const op = "link.service.publish"

	if before.ID != uuid.Nil && strings.EqualFold(before.Code, after.Code) {
		p.republish = true
		return nil
	}

	payload, err := json.Marshal(Project(after))
	if err != nil {
		return errx.E(op, errx.Internal, err)
	}

	err = p.store.Reserve(ctx, p.domain, after.Code, payload)
	switch {
	case errors.Is(err, storage.ErrKeyExists):
		p.taken = true
		return errx.E(op, errx.Conflict,
			fmt.Errorf("code %q is already published in domain %q", after.Code, p.domain))
	case err != nil:
		return errx.E(op, errx.Unavailable, err)
	}

	p.reserved = after.Code
	if before.ID != uuid.Nil {
		p.replaced = before.Code
	}
	return nil
}

// release removes the reserved key after a transaction that did not commit.
func (p *publication) release(ctx context.Context, logger *slog.Logger) {
	if p.reserved == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := p.store.Remove(ctx, p.domain, p.reserved); err != nil {
		logger.ErrorContext(ctx, "failed to release reserved code",
			"domain", p.domain,
			"code", p.reserved,
			"error", err.Error(),
		)
		return
	}
	p.reserved = ""
	p.replaced = ""
}

func rejection(v allocator.Verdict) error {
	return fmt.Errorf("code %q rejected: %s (conflicts with %q)", v.Code, v.Reason, v.Conflicting)
}

func validateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return errors.New("url cannot be empty")
	}
	if len(rawURL) > MaxURLLength {
		return errors.New("url too long (max 2048 characters)")
	}
	return nil
}

func validateCode(code string) error {
	if code == "" {
		return errors.New("code cannot be empty")
	}
	if len(code) < MinCodeLength {
		return errors.New("code too short (minimum 3 characters)")
	}
	if len(code) > MaxCodeLength {
		return errors.New("code too long (maximum 64 characters)")
	}

	if strings.HasPrefix(code, "-") || strings.HasPrefix(code, "_") ||
		strings.HasSuffix(code, "-") || strings.HasSuffix(code, "_") {
		return errors.New("code cannot start or end with dash or underscore")
	}

	for _, char := range code {
		if !isValidCodeChar(char) {
			return errors.New("code contains invalid characters (only alphanumeric, dash, and underscore allowed)")
		}
	}
	return nil
}

func isValidCodeChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	default:
		return false
	}
}
