package httpapi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/kasap-ot/thesis-project/internal/apperr"
	"github.com/kasap-ot/thesis-project/internal/auth"
	"github.com/kasap-ot/thesis-project/internal/httpmiddleware"
)

func fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	msg := apperr.PublicMessage(err)
	if errors.Is(err, context.DeadlineExceeded) {
		status, msg = http.StatusServiceUnavailable, "request timed out"
	}
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"request_id": httpmiddleware.RequestIDFrom(c),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func caller(c *gin.Context) (auth.Caller, bool) {
	who, ok := auth.CallerFrom(c)
	if !ok {
		fail(c, apperr.Unauthorized("missing caller"))
	}
	return who, ok
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(c, apperr.Invalid(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

// pairIDs reads the (student_id, offer_id) path pair.
func pairIDs(c *gin.Context) (studentID, offerID int64, ok bool) {
	if studentID, ok = pathID(c, "student_id"); !ok {
		return 0, 0, false
	}
	if offerID, ok = pathID(c, "offer_id"); !ok {
		return 0, 0, false
	}
	return studentID, offerID, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperr.Invalid(key + " must be an integer")
	}
	return n, nil
}

func queryFloat(c *gin.Context, key string, def float64) (float64, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apperr.Invalid(key + " must be a number")
	}
	return f, nil
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, apperr.New(apperr.KindInvalid, "invalid request body", err))
		return false
	}
	return true
}
