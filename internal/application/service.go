package application

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kasap-ot/thesis-project/internal/apperr"
	"github.com/kasap-ot/thesis-project/internal/auth"
	"github.com/kasap-ot/thesis-project/internal/metrics"
	"github.com/kasap-ot/thesis-project/internal/notify"
	"github.com/kasap-ot/thesis-project/internal/offer"
)

// Store is the persistence the lifecycle needs. Each write method runs its
// read-check-write in one transaction.
type Store interface {
	OfferOwner(ctx context.Context, offerID int64) (*int64, error)
	Target(ctx context.Context, studentID, offerID int64) (Target, error)
	Insert(ctx context.Context, studentID, offerID int64) (Application, error)
	Get(ctx context.Context, studentID, offerID int64) (Application, error)
	Accept(ctx context.Context, companyID, offerID, studentID int64) (AcceptResult, error)
	Cancel(ctx context.Context, studentID, offerID int64) (CancelResult, error)
	Advance(ctx context.Context, companyID, offerID, studentID int64, action Action) (Status, error)
	Applicants(ctx context.Context, offerID int64, f ApplicantFilter) ([]Applicant, error)
	ListByStudent(ctx context.Context, studentID int64) ([]StudentApplication, error)

	CreateStudentReport(ctx context.Context, companyID int64, r StudentReport) (StudentReport, error)
	UpdateStudentReport(ctx context.Context, companyID int64, r StudentReport) (StudentReport, error)
	DeleteStudentReport(ctx context.Context, companyID, studentID, offerID int64) error
	StudentReport(ctx context.Context, studentID, offerID int64) (StudentReport, error)
	CreateCompanyReport(ctx context.Context, r CompanyReport) (CompanyReport, error)
	UpdateCompanyReport(ctx context.Context, r CompanyReport) (CompanyReport, error)
	DeleteCompanyReport(ctx context.Context, studentID, offerID int64) error
	CompanyReport(ctx context.Context, studentID, offerID int64) (CompanyReport, error)
}

// notifyTimeout bounds a post-commit publish.
const notifyTimeout = 3 * time.Second

// Service runs lifecycle operations on behalf of an explicit caller.
type Service struct {
	store    Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
}

// NewService creates a service. notifier and m may be nil.
func NewService(store Store, notifier notify.Notifier, m *metrics.Metrics) *Service {
	return &Service{store: store, notifier: notifier, metrics: m}
}

// Apply submits the calling student's application. Regional offers only
// accept students from the same region.
func (s *Service) Apply(ctx context.Context, caller auth.Caller, studentID, offerID int64) (Application, error) {
	if err := auth.AuthorizeStudent(caller, studentID); err != nil {
		return Application{}, err
	}
	target, err := s.store.Target(ctx, studentID, offerID)
	if err != nil {
		return Application{}, s.record("apply", err)
	}
	if !offer.Visible(target.OfferRegion, target.StudentRegion) {
		return Application{}, s.record("apply", apperr.Forbidden("offer is not open to the student's region"))
	}
	a, err := s.store.Insert(ctx, studentID, offerID)
	if err != nil {
		return Application{}, s.record("apply", err)
	}
	s.record("apply", nil)
	s.publish(ctx, notify.NewApplicant(offerID))
	return a, nil
}

// Get returns one application to its student or to the offer's company.
func (s *Service) Get(ctx context.Context, caller auth.Caller, studentID, offerID int64) (Application, error) {
	if err := s.authorizeReader(ctx, caller, studentID, offerID); err != nil {
		return Application{}, err
	}
	return s.store.Get(ctx, studentID, offerID)
}

// Accept picks the winner of an offer and rejects the remaining waiting
// applicants.
func (s *Service) Accept(ctx context.Context, caller auth.Caller, offerID, studentID int64) (AcceptResult, error) {
	if err := s.authorizeOwner(ctx, caller, offerID); err != nil {
		return AcceptResult{}, err
	}
	res, err := s.store.Accept(ctx, caller.ID, offerID, studentID)
	if err != nil {
		return AcceptResult{}, s.record(string(ActionAccept), err)
	}
	s.record(string(ActionAccept), nil)
	s.publish(ctx, notify.StatusChanged(offerID, string(StatusAccepted), res.AcceptedStudentID))
	if len(res.RejectedStudentIDs) > 0 {
		s.publish(ctx, notify.StatusChanged(offerID, string(StatusRejected), res.RejectedStudentIDs...))
	}
	return res, nil
}

// Cancel withdraws the calling student's waiting or accepted application.
func (s *Service) Cancel(ctx context.Context, caller auth.Caller, studentID, offerID int64) (CancelResult, error) {
	if err := auth.AuthorizeStudent(caller, studentID); err != nil {
		return CancelResult{}, err
	}
	res, err := s.store.Cancel(ctx, studentID, offerID)
	if err != nil {
		return CancelResult{}, s.record(string(ActionCancel), err)
	}
	s.record(string(ActionCancel), nil)
	s.publish(ctx, notify.ApplicantCancelled(offerID))
	if len(res.ResetStudentIDs) > 0 {
		s.publish(ctx, notify.StatusChanged(offerID, string(StatusWaiting), res.ResetStudentIDs...))
	}
	return res, nil
}

// StartOffer moves an accepted application to ONGOING.
func (s *Service) StartOffer(ctx context.Context, caller auth.Caller, studentID, offerID int64) (Status, error) {
	return s.advance(ctx, caller, studentID, offerID, ActionStart)
}

// CompleteOffer moves an ongoing application to COMPLETED.
func (s *Service) CompleteOffer(ctx context.Context, caller auth.Caller, studentID, offerID int64) (Status, error) {
	return s.advance(ctx, caller, studentID, offerID, ActionComplete)
}

func (s *Service) advance(ctx context.Context, caller auth.Caller, studentID, offerID int64, action Action) (Status, error) {
	if err := s.authorizeOwner(ctx, caller, offerID); err != nil {
		return "", err
	}
	to, err := s.store.Advance(ctx, caller.ID, offerID, studentID, action)
	if err != nil {
		return "", s.record(string(action), err)
	}
	s.record(string(action), nil)
	s.publish(ctx, notify.StatusChanged(offerID, string(to), studentID))
	return to, nil
}

// FilterApplicants lists the applicants of an offer owned by the caller.
func (s *Service) FilterApplicants(ctx context.Context, caller auth.Caller, offerID int64, f ApplicantFilter) ([]Applicant, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(ctx, caller, offerID); err != nil {
		return nil, err
	}
	return s.store.Applicants(ctx, offerID, f)
}

// ListByStudent returns the calling student's applications.
func (s *Service) ListByStudent(ctx context.Context, caller auth.Caller, studentID int64) ([]StudentApplication, error) {
	if err := auth.AuthorizeStudent(caller, studentID); err != nil {
		return nil, err
	}
	return s.store.ListByStudent(ctx, studentID)
}

func (s *Service) authorizeOwner(ctx context.Context, caller auth.Caller, offerID int64) error {
	if caller.Role != auth.RoleCompany {
		return apperr.Forbidden("only companies manage offers")
	}
	owner, err := s.store.OfferOwner(ctx, offerID)
	if err != nil {
		return err
	}
	return auth.AuthorizeCompany(caller, owner)
}

// authorizeReader lets the student or the offer's company through.
func (s *Service) authorizeReader(ctx context.Context, caller auth.Caller, studentID, offerID int64) error {
	if caller.Role == auth.RoleStudent {
		return auth.AuthorizeStudent(caller, studentID)
	}
	return s.authorizeOwner(ctx, caller, offerID)
}

func (s *Service) record(action string, err error) error {
	result := "ok"
	if err != nil {
		result = string(apperr.KindOf(err))
	}
	s.metrics.Transition(action, result)
	return err
}

// publish runs after commit. It outlives request cancellation and never
// fails the operation.
func (s *Service) publish(ctx context.Context, n notify.Notification) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(ctx, n); err != nil {
		log.WithError(err).WithFields(log.Fields{"kind": n.Kind, "offer_id": n.OfferID}).
			Warn("notification not published")
		s.metrics.Notification(string(n.Kind), "failed")
		return
	}
	s.metrics.Notification(string(n.Kind), "published")
}
