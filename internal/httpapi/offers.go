package httpapi

import (
	"io"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kasap-ot/thesis-project/internal/apperr"
	"github.com/kasap-ot/thesis-project/internal/offer"
)

const dateLayout = "2006-01-02"

type offerRequest struct {
	Salary           int          `json:"salary"`
	NumWeeks         int          `json:"num_weeks"`
	Field            string       `json:"field" binding:"required"`
	Deadline         string       `json:"deadline" binding:"required"`
	Requirements     string       `json:"requirements"`
	Responsibilities string       `json:"responsibilities"`
	Region           offer.Region `json:"region"`
}

func (r offerRequest) draft() (offer.Draft, error) {
	deadline, err := time.Parse(dateLayout, r.Deadline)
	if err != nil {
		return offer.Draft{}, apperr.Invalid("deadline must be YYYY-MM-DD")
	}
	return offer.Draft{
		Salary:           r.Salary,
		NumWeeks:         r.NumWeeks,
		Field:            r.Field,
		Deadline:         deadline,
		Requirements:     r.Requirements,
		Responsibilities: r.Responsibilities,
		Region:           r.Region,
	}, nil
}

func (h *Handler) createOffer(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req offerRequest
	if !bind(c, &req) {
		return
	}
	d, err := req.draft()
	if err != nil {
		fail(c, err)
		return
	}
	o, err := h.offers.Create(c.Request.Context(), who, who.ID, d)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *Handler) createOfferFromFile(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		fail(c, apperr.Invalid("file field required"))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		fail(c, apperr.New(apperr.KindInvalid, "read file failed", err))
		return
	}
	o, err := h.offers.CreateFromFile(c.Request.Context(), who, who.ID, header.Filename, data)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *Handler) searchOffers(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	s := offer.DefaultSearch()
	s.Field = c.Query("field")
	var err error
	for _, p := range []struct {
		key string
		dst *int
		def int
	}{
		{"min_num_weeks", &s.MinWeeks, 0},
		{"max_num_weeks", &s.MaxWeeks, 52},
		{"min_salary", &s.MinSalary, 0},
		{"max_salary", &s.MaxSalary, math.MaxInt32},
	} {
		if *p.dst, err = queryInt(c, p.key, p.def); err != nil {
			fail(c, err)
			return
		}
	}
	briefs, err := h.offers.Search(c.Request.Context(), who, s)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": briefs})
}

func (h *Handler) getOffer(c *gin.Context) {
	id, ok := pathID(c, "offer_id")
	if !ok {
		return
	}
	o, err := h.offers.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) updateOffer(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "offer_id")
	if !ok {
		return
	}
	var req offerRequest
	if !bind(c, &req) {
		return
	}
	d, err := req.draft()
	if err != nil {
		fail(c, err)
		return
	}
	o, err := h.offers.Update(c.Request.Context(), who, id, d)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *Handler) deleteOffer(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "offer_id")
	if !ok {
		return
	}
	if err := h.offers.Delete(c.Request.Context(), who, id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listCompanyOffers(c *gin.Context) {
	id, ok := pathID(c, "company_id")
	if !ok {
		return
	}
	offers, err := h.offers.ListByCompany(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}
