package application

import (
	"context"
	"strings"
	"sync"

	"github.com/kasap-ot/thesis-project/internal/apperr"
	"github.com/kasap-ot/thesis-project/internal/offer"
)

type pair struct{ student, offer int64 }

type memOffer struct {
	company *int64
	region  offer.Region
}

type memStudent struct {
	region     offer.Region
	university string
	gpa        float64
	credits    int
	subjects   map[string]int
}

// memStore mirrors the Postgres repository semantics under one mutex.
type memStore struct {
	mu             sync.Mutex
	offers         map[int64]memOffer
	students       map[int64]memStudent
	apps           map[pair]Status
	studentReports map[pair]StudentReport
	companyReports map[pair]CompanyReport
}

func newMemStore() *memStore {
	return &memStore{
		offers:         map[int64]memOffer{},
		students:       map[int64]memStudent{},
		apps:           map[pair]Status{},
		studentReports: map[pair]StudentReport{},
		companyReports: map[pair]CompanyReport{},
	}
}

func ptr(v int64) *int64 { return &v }

func (m *memStore) ownedOffer(offerID, companyID int64) error {
	o, ok := m.offers[offerID]
	if !ok {
		return apperr.NotFound("offer not found")
	}
	if o.company == nil || *o.company != companyID {
		return apperr.Forbidden("offer is not owned by the caller")
	}
	return nil
}

func (m *memStore) status(studentID, offerID int64) (Status, error) {
	s, ok := m.apps[pair{studentID, offerID}]
	if !ok {
		return "", apperr.NotFound("application not found")
	}
	return s, nil
}

func (m *memStore) OfferOwner(_ context.Context, offerID int64) (*int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[offerID]
	if !ok {
		return nil, apperr.NotFound("offer not found")
	}
	return o.company, nil
}

func (m *memStore) Target(_ context.Context, studentID, offerID int64) (Target, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[offerID]
	if !ok {
		return Target{}, apperr.NotFound("offer not found")
	}
	s, ok := m.students[studentID]
	if !ok {
		return Target{}, apperr.NotFound("student not found")
	}
	return Target{OfferRegion: o.region, CompanyID: o.company, StudentRegion: s.region}, nil
}

func (m *memStore) Insert(_ context.Context, studentID, offerID int64) (Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pair{studentID, offerID}
	if _, ok := m.apps[k]; ok {
		return Application{}, apperr.Conflict("already applied to this offer")
	}
	m.apps[k] = StatusWaiting
	return Application{StudentID: studentID, OfferID: offerID, Status: StatusWaiting}, nil
}

func (m *memStore) Get(_ context.Context, studentID, offerID int64) (Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.status(studentID, offerID)
	if err != nil {
		return Application{}, err
	}
	return Application{StudentID: studentID, OfferID: offerID, Status: s}, nil
}

func (m *memStore) Accept(_ context.Context, companyID, offerID, studentID int64) (AcceptResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ownedOffer(offerID, companyID); err != nil {
		return AcceptResult{}, err
	}
	current, err := m.status(studentID, offerID)
	if err != nil {
		return AcceptResult{}, err
	}
	to, err := Transition(current, ActionAccept)
	if err != nil {
		return AcceptResult{}, err
	}
	for k, s := range m.apps {
		if k.offer == offerID && s.Winner() {
			return AcceptResult{}, apperr.Conflict("offer already has an accepted applicant")
		}
	}
	m.apps[pair{studentID, offerID}] = to
	res := AcceptResult{AcceptedStudentID: studentID, RejectedStudentIDs: []int64{}}
	for k, s := range m.apps {
		if k.offer == offerID && k.student != studentID && s == StatusWaiting {
			m.apps[k] = StatusRejected
			res.RejectedStudentIDs = append(res.RejectedStudentIDs, k.student)
		}
	}
	return res, nil
}

func (m *memStore) Cancel(_ context.Context, studentID, offerID int64) (CancelResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, err := m.status(studentID, offerID)
	if err != nil {
		return CancelResult{}, err
	}
	if _, err := Transition(current, ActionCancel); err != nil {
		return CancelResult{}, err
	}
	delete(m.apps, pair{studentID, offerID})
	res := CancelResult{PreviousStatus: current, ResetStudentIDs: []int64{}, CompanyID: m.offers[offerID].company}
	if current == StatusAccepted {
		for k := range m.apps {
			if k.offer == offerID {
				m.apps[k] = StatusWaiting
				res.ResetStudentIDs = append(res.ResetStudentIDs, k.student)
			}
		}
	}
	return res, nil
}

func (m *memStore) Advance(_ context.Context, companyID, offerID, studentID int64, action Action) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ownedOffer(offerID, companyID); err != nil {
		return "", err
	}
	current, err := m.status(studentID, offerID)
	if err != nil {
		return "", err
	}
	to, err := Transition(current, action)
	if err != nil {
		return "", err
	}
	m.apps[pair{studentID, offerID}] = to
	return to, nil
}

func (m *memStore) Applicants(_ context.Context, offerID int64, f ApplicantFilter) ([]Applicant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Applicant
	for k, status := range m.apps {
		if k.offer != offerID {
			continue
		}
		s := m.students[k.student]
		if s.gpa < f.MinGPA || s.gpa > f.MaxGPA || s.credits < f.MinCredits || s.credits > f.MaxCredits {
			continue
		}
		if f.University != nil && !strings.Contains(s.university, *f.University) {
			continue
		}
		ok := true
		for _, req := range f.Subjects {
			if g, has := s.subjects[req.Name]; !has || g < req.MinGrade {
				ok = false
			}
		}
		if ok {
			out = append(out, Applicant{ID: k.student, University: s.university, GPA: s.gpa, Credits: s.credits, Region: s.region, Status: status})
		}
	}
	return out, nil
}

func (m *memStore) ListByStudent(_ context.Context, studentID int64) ([]StudentApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []StudentApplication
	for k, s := range m.apps {
		if k.student == studentID {
			out = append(out, StudentApplication{OfferID: k.offer, Status: s})
		}
	}
	return out, nil
}

func (m *memStore) CreateStudentReport(_ context.Context, companyID int64, r StudentReport) (StudentReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ownedOffer(r.OfferID, companyID); err != nil {
		return StudentReport{}, err
	}
	k := pair{r.StudentID, r.OfferID}
	current, err := m.status(k.student, k.offer)
	if err != nil {
		return StudentReport{}, err
	}
	to, err := Transition(current, ActionArchive)
	if err != nil {
		return StudentReport{}, err
	}
	if _, ok := m.studentReports[k]; ok {
		return StudentReport{}, apperr.Conflict("student report already exists")
	}
	m.studentReports[k] = r
	m.apps[k] = to
	return r, nil
}

func (m *memStore) UpdateStudentReport(_ context.Context, companyID int64, r StudentReport) (StudentReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ownedOffer(r.OfferID, companyID); err != nil {
		return StudentReport{}, err
	}
	k := pair{r.StudentID, r.OfferID}
	if _, ok := m.studentReports[k]; !ok {
		return StudentReport{}, apperr.NotFound("student report not found")
	}
	m.studentReports[k] = r
	return r, nil
}

func (m *memStore) DeleteStudentReport(_ context.Context, companyID, studentID, offerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ownedOffer(offerID, companyID); err != nil {
		return err
	}
	k := pair{studentID, offerID}
	if _, ok := m.studentReports[k]; !ok {
		return apperr.NotFound("student report not found")
	}
	to, err := Transition(m.apps[k], ActionUnarchive)
	if err != nil {
		return err
	}
	delete(m.studentReports, k)
	m.apps[k] = to
	return nil
}

func (m *memStore) StudentReport(_ context.Context, studentID, offerID int64) (StudentReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.studentReports[pair{studentID, offerID}]
	if !ok {
		return StudentReport{}, apperr.NotFound("student report not found")
	}
	return r, nil
}

func (m *memStore) CreateCompanyReport(_ context.Context, r CompanyReport) (CompanyReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pair{r.StudentID, r.OfferID}
	current, err := m.status(k.student, k.offer)
	if err != nil {
		return CompanyReport{}, err
	}
	if current != StatusCompleted && current != StatusArchived {
		return CompanyReport{}, apperr.Conflict("the internship has not been completed")
	}
	if _, ok := m.companyReports[k]; ok {
		return CompanyReport{}, apperr.Conflict("company report already exists")
	}
	m.companyReports[k] = r
	return r, nil
}

func (m *memStore) UpdateCompanyReport(_ context.Context, r CompanyReport) (CompanyReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pair{r.StudentID, r.OfferID}
	if _, ok := m.companyReports[k]; !ok {
		return CompanyReport{}, apperr.NotFound("company report not found")
	}
	m.companyReports[k] = r
	return r, nil
}

func (m *memStore) DeleteCompanyReport(_ context.Context, studentID, offerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pair{studentID, offerID}
	if _, ok := m.companyReports[k]; !ok {
		return apperr.NotFound("company report not found")
	}
	delete(m.companyReports, k)
	return nil
}

func (m *memStore) CompanyReport(_ context.Context, studentID, offerID int64) (CompanyReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.companyReports[pair{studentID, offerID}]
	if !ok {
		return CompanyReport{}, apperr.NotFound("company report not found")
	}
	return r, nil
}
