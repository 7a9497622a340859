package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kasap-ot/thesis-project/internal/profile"
)

func (h *Handler) deleteStudent(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "student_id")
	if !ok {
		return
	}
	if err := h.profiles.DeleteStudent(c.Request.Context(), who, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteCompany(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "company_id")
	if !ok {
		return
	}
	if err := h.profiles.DeleteCompany(c.Request.Context(), who, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createSubject(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req profile.Subject
	if !bind(c, &req) {
		return
	}
	s, err := h.profiles.CreateSubject(c.Request.Context(), who, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) updateSubject(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	studentID, ok := pathID(c, "student_id")
	if !ok {
		return
	}
	var req profile.Subject
	if !bind(c, &req) {
		return
	}
	s, err := h.profiles.UpdateSubject(c.Request.Context(), who, studentID, c.Param("name"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) deleteSubject(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	studentID, ok := pathID(c, "student_id")
	if !ok {
		return
	}
	if err := h.profiles.DeleteSubject(c.Request.Context(), who, studentID, c.Param("name")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listSubjects(c *gin.Context) {
	studentID, ok := pathID(c, "student_id")
	if !ok {
		return
	}
	subjects, err := h.profiles.Subjects(c.Request.Context(), studentID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subjects": subjects})
}
