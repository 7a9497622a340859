package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kasap-ot/thesis-project/internal/application"
	"github.com/kasap-ot/thesis-project/internal/auth"
)

func (h *Handler) apply(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	studentID, offerID, ok := pairIDs(c)
	if !ok {
		return
	}
	a, err := h.applications.Apply(c.Request.Context(), who, studentID, offerID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) getApplication(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	studentID, offerID, ok := pairIDs(c)
	if !ok {
		return
	}
	a, err := h.applications.Get(c.Request.Context(), who, studentID, offerID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) accept(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	studentID, offerID, ok := pairIDs(c)
	if !ok {
		return
	}
	res, err := h.applications.Accept(c.Request.Context(), who, offerID, studentID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) cancel(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	studentID, offerID, ok := pairIDs(c)
	if !ok {
		return
	}
	res, err := h.applications.Cancel(c.Request.Context(), who, studentID, offerID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) start(c *gin.Context) {
	h.advance(c, h.applications.StartOffer)
}

func (h *Handler) complete(c *gin.Context) {
	h.advance(c, h.applications.CompleteOffer)
}

type advanceFunc func(ctx context.Context, caller auth.Caller, studentID, offerID int64) (application.Status, error)

func (h *Handler) advance(c *gin.Context, fn advanceFunc) {
	who, ok := caller(c)
	if !ok {
		return
	}
	studentID, offerID, ok := pairIDs(c)
	if !ok {
		return
	}
	status, err := fn(c.Request.Context(), who, studentID, offerID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, application.Application{StudentID: studentID, OfferID: offerID, Status: status})
}

func (h *Handler) listStudentApplications(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	studentID, ok := pathID(c, "student_id")
	if !ok {
		return
	}
	list, err := h.applications.ListByStudent(c.Request.Context(), who, studentID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": list})
}

// filterApplicants reads university, min_gpa, max_gpa, min_credits,
// max_credits and subjects=Name,grade;Name,grade from the query string.
func (h *Handler) filterApplicants(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	offerID, ok := pathID(c, "offer_id")
	if !ok {
		return
	}
	f, err := parseApplicantFilter(c)
	if err != nil {
		fail(c, err)
		return
	}
	applicants, err := h.applications.FilterApplicants(c.Request.Context(), who, offerID, f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applicants": applicants})
}

func parseApplicantFilter(c *gin.Context) (application.ApplicantFilter, error) {
	f := application.DefaultFilter()
	if uni, ok := c.GetQuery("university"); ok && uni != "" {
		f.University = &uni
	}
	var err error
	if f.MinGPA, err = queryFloat(c, "min_gpa", application.MinGPA); err != nil {
		return f, err
	}
	if f.MaxGPA, err = queryFloat(c, "max_gpa", application.MaxGPA); err != nil {
		return f, err
	}
	if f.MinCredits, err = queryInt(c, "min_credits", application.MinCredits); err != nil {
		return f, err
	}
	if f.MaxCredits, err = queryInt(c, "max_credits", application.MaxCredits); err != nil {
		return f, err
	}
	if raw := c.Query("subjects"); raw != "" {
		if f.Subjects, err = application.ParseSubjects(raw); err != nil {
			return f, err
		}
	}
	return f, nil
}
