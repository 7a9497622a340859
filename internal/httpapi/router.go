// Package httpapi exposes the marketplace services over JSON HTTP.
package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kasap-ot/thesis-project/internal/application"
	"github.com/kasap-ot/thesis-project/internal/auth"
	"github.com/kasap-ot/thesis-project/internal/offer"
	"github.com/kasap-ot/thesis-project/internal/profile"
)

// Offers is the offer service.
type Offers interface {
	Create(ctx context.Context, caller auth.Caller, companyID int64, d offer.Draft) (offer.Offer, error)
	CreateFromFile(ctx context.Context, caller auth.Caller, companyID int64, filename string, data []byte) (offer.Offer, error)
	Get(ctx context.Context, id int64) (offer.Offer, error)
	Update(ctx context.Context, caller auth.Caller, id int64, d offer.Draft) (offer.Offer, error)
	Delete(ctx context.Context, caller auth.Caller, id int64) error
	ListByCompany(ctx context.Context, companyID int64) ([]offer.Offer, error)
	Search(ctx context.Context, caller auth.Caller, q offer.Search) ([]offer.Brief, error)
}

// Applications is the lifecycle service.
type Applications interface {
	Apply(ctx context.Context, caller auth.Caller, studentID, offerID int64) (application.Application, error)
	Get(ctx context.Context, caller auth.Caller, studentID, offerID int64) (application.Application, error)
	Accept(ctx context.Context, caller auth.Caller, offerID, studentID int64) (application.AcceptResult, error)
	Cancel(ctx context.Context, caller auth.Caller, studentID, offerID int64) (application.CancelResult, error)
	StartOffer(ctx context.Context, caller auth.Caller, studentID, offerID int64) (application.Status, error)
	CompleteOffer(ctx context.Context, caller auth.Caller, studentID, offerID int64) (application.Status, error)
	FilterApplicants(ctx context.Context, caller auth.Caller, offerID int64, f application.ApplicantFilter) ([]application.Applicant, error)
	ListByStudent(ctx context.Context, caller auth.Caller, studentID int64) ([]application.StudentApplication, error)

	CreateStudentReport(ctx context.Context, caller auth.Caller, r application.StudentReport) (application.StudentReport, error)
	UpdateStudentReport(ctx context.Context, caller auth.Caller, r application.StudentReport) (application.StudentReport, error)
	DeleteStudentReport(ctx context.Context, caller auth.Caller, studentID, offerID int64) error
	GetStudentReport(ctx context.Context, caller auth.Caller, studentID, offerID int64) (application.StudentReport, error)
	CreateCompanyReport(ctx context.Context, caller auth.Caller, r application.CompanyReport) (application.CompanyReport, error)
	UpdateCompanyReport(ctx context.Context, caller auth.Caller, r application.CompanyReport) (application.CompanyReport, error)
	DeleteCompanyReport(ctx context.Context, caller auth.Caller, studentID, offerID int64) error
	GetCompanyReport(ctx context.Context, caller auth.Caller, studentID, offerID int64) (application.CompanyReport, error)
}

// Profiles deletes accounts and edits student subjects.
type Profiles interface {
	DeleteStudent(ctx context.Context, caller auth.Caller, id int64) error
	DeleteCompany(ctx context.Context, caller auth.Caller, id int64) error
	CreateSubject(ctx context.Context, caller auth.Caller, s profile.Subject) (profile.Subject, error)
	UpdateSubject(ctx context.Context, caller auth.Caller, studentID int64, name string, s profile.Subject) (profile.Subject, error)
	DeleteSubject(ctx context.Context, caller auth.Caller, studentID int64, name string) error
	Subjects(ctx context.Context, studentID int64) ([]profile.Subject, error)
}

// Handler wires the services to routes.
type Handler struct {
	offers       Offers
	applications Applications
	profiles     Profiles
	maxUpload    int64
}

// NewHandler creates a handler.
func NewHandler(offers Offers, applications Applications, profiles Profiles) *Handler {
	return &Handler{offers: offers, applications: applications, profiles: profiles, maxUpload: 10 << 20}
}

// Register mounts every route on rg. rg must already authenticate callers.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/offers", h.createOffer)
	rg.POST("/offers/file", h.createOfferFromFile)
	rg.GET("/offers", h.searchOffers)
	rg.GET("/offers/:offer_id", h.getOffer)
	rg.PUT("/offers/:offer_id", h.updateOffer)
	rg.DELETE("/offers/:offer_id", h.deleteOffer)
	rg.GET("/offers/:offer_id/applicants", h.filterApplicants)
	rg.GET("/companies/:company_id/offers", h.listCompanyOffers)

	rg.POST("/applications/:student_id/:offer_id", h.apply)
	rg.GET("/applications/:student_id/:offer_id", h.getApplication)
	rg.DELETE("/applications/:student_id/:offer_id", h.cancel)
	rg.PATCH("/applications/:student_id/:offer_id/accept", h.accept)
	rg.PATCH("/applications/:student_id/:offer_id/start", h.start)
	rg.PATCH("/applications/:student_id/:offer_id/complete", h.complete)
	rg.GET("/students/:student_id/applications", h.listStudentApplications)

	rg.POST("/student-reports", h.createStudentReport)
	rg.PUT("/student-reports", h.updateStudentReport)
	rg.GET("/student-reports/:student_id/:offer_id", h.getStudentReport)
	rg.DELETE("/student-reports/:student_id/:offer_id", h.deleteStudentReport)
	rg.POST("/company-reports", h.createCompanyReport)
	rg.PUT("/company-reports", h.updateCompanyReport)
	rg.GET("/company-reports/:student_id/:offer_id", h.getCompanyReport)
	rg.DELETE("/company-reports/:student_id/:offer_id", h.deleteCompanyReport)

	rg.DELETE("/students/:student_id", h.deleteStudent)
	rg.DELETE("/companies/:company_id", h.deleteCompany)

	rg.POST("/subjects", h.createSubject)
	rg.PUT("/subjects/:student_id/:name", h.updateSubject)
	rg.DELETE("/subjects/:student_id/:name", h.deleteSubject)
	rg.GET("/students/:student_id/subjects", h.listSubjects)
}
