package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kasap-ot/thesis-project/internal/application"
)

func (h *Handler) createStudentReport(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req application.StudentReport
	if !bind(c, &req) {
		return
	}
	rep, err := h.applications.CreateStudentReport(c.Request.Context(), who, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rep)
}

func (h *Handler) updateStudentReport(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req application.StudentReport
	if !bind(c, &req) {
		return
	}
	rep, err := h.applications.UpdateStudentReport(c.Request.Context(), who, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handler) getStudentReport(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	studentID, offerID, ok := pairIDs(c)
	if !ok {
		return
	}
	rep, err := h.applications.GetStudentReport(c.Request.Context(), who, studentID, offerID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handler) deleteStudentReport(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	studentID, offerID, ok := pairIDs(c)
	if !ok {
		return
	}
	if err := h.applications.DeleteStudentReport(c.Request.Context(), who, studentID, offerID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createCompanyReport(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req application.CompanyReport
	if !bind(c, &req) {
		return
	}
	rep, err := h.applications.CreateCompanyReport(c.Request.Context(), who, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rep)
}

func (h *Handler) updateCompanyReport(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req application.CompanyReport
	if !bind(c, &req) {
		return
	}
	rep, err := h.applications.UpdateCompanyReport(c.Request.Context(), who, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handler) getCompanyReport(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	studentID, offerID, ok := pairIDs(c)
	if !ok {
		return
	}
	rep, err := h.applications.GetCompanyReport(c.Request.Context(), who, studentID, offerID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handler) deleteCompanyReport(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	studentID, offerID, ok := pairIDs(c)
	if !ok {
		return
	}
	if err := h.applications.DeleteCompanyReport(c.Request.Context(), who, studentID, offerID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
