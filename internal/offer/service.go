package offer

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/kasap-ot/thesis-project/internal/apperr"
	"github.com/kasap-ot/thesis-project/internal/auth"
)

// Store is the persistence the offer service needs.
type Store interface {
	Create(ctx context.Context, companyID int64, d Draft) (Offer, error)
	Get(ctx context.Context, id int64) (Offer, error)
	Update(ctx context.Context, id, companyID int64, d Draft) (Offer, error)
	Delete(ctx context.Context, id, companyID int64) error
	ListByCompany(ctx context.Context, companyID int64) ([]Offer, error)
	Search(ctx context.Context, region Region, s Search) ([]Brief, error)
	StudentRegion(ctx context.Context, studentID int64) (Region, error)
}

// Parser turns an uploaded offer document into a draft.
type Parser interface {
	Parse(ctx context.Context, filename string, data []byte) (Draft, error)
}

// Service coordinates offer ownership checks and search.
type Service struct {
	store  Store
	parser Parser
}

// NewService creates a service. parser may be nil when document import is
// not configured.
func NewService(store Store, parser Parser) *Service {
	return &Service{store: store, parser: parser}
}

// Create posts a new offer for the calling company.
func (s *Service) Create(ctx context.Context, caller auth.Caller, companyID int64, d Draft) (Offer, error) {
	if err := auth.AuthorizeCompany(caller, &companyID); err != nil {
		return Offer{}, err
	}
	if err := d.Validate(); err != nil {
		return Offer{}, err
	}
	return s.store.Create(ctx, companyID, d)
}

// CreateFromFile sends the document to the parser service and posts the
// resulting offer.
func (s *Service) CreateFromFile(ctx context.Context, caller auth.Caller, companyID int64, filename string, data []byte) (Offer, error) {
	if err := auth.AuthorizeCompany(caller, &companyID); err != nil {
		return Offer{}, err
	}
	if s.parser == nil {
		return Offer{}, apperr.New(apperr.KindUnavailable, "offer document import is not configured", nil)
	}
	if len(data) == 0 {
		return Offer{}, apperr.Invalid("empty offer document")
	}
	d, err := s.parser.Parse(ctx, filename, data)
	if err != nil {
		log.WithError(err).WithField("company_id", companyID).Warn("offer document parse failed")
		return Offer{}, apperr.New(apperr.KindInvalid, "offer document could not be parsed", err)
	}
	return s.Create(ctx, caller, companyID, d)
}

// Get returns any offer; offers are public to authenticated callers.
func (s *Service) Get(ctx context.Context, id int64) (Offer, error) {
	return s.store.Get(ctx, id)
}

// Update rewrites an offer owned by the caller.
func (s *Service) Update(ctx context.Context, caller auth.Caller, id int64, d Draft) (Offer, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Offer{}, err
	}
	if err := auth.AuthorizeCompany(caller, current.CompanyID); err != nil {
		return Offer{}, err
	}
	if err := d.Validate(); err != nil {
		return Offer{}, err
	}
	return s.store.Update(ctx, id, caller.ID, d)
}

// Delete removes an offer owned by the caller.
func (s *Service) Delete(ctx context.Context, caller auth.Caller, id int64) error {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.AuthorizeCompany(caller, current.CompanyID); err != nil {
		return err
	}
	return s.store.Delete(ctx, id, caller.ID)
}

// ListByCompany returns a company's offers.
func (s *Service) ListByCompany(ctx context.Context, companyID int64) ([]Offer, error) {
	return s.store.ListByCompany(ctx, companyID)
}

// Search lists the offers the calling student is allowed to see.
func (s *Service) Search(ctx context.Context, caller auth.Caller, q Search) ([]Brief, error) {
	if caller.Role != auth.RoleStudent {
		return nil, apperr.Forbidden("only students search offers")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	region, err := s.store.StudentRegion(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("search offers: %w", err)
	}
	return s.store.Search(ctx, region, q)
}
