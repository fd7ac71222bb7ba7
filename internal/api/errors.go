package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/visaflow/internal/apperr"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error  string            `json:"error"`
	Code   apperr.Code       `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

func httpStatus(code apperr.Code) int {
	switch code {
	case apperr.CodeNotFound, apperr.CodePortalNotFound:
		return http.StatusNotFound
	case apperr.CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Errors without a user-facing message get
// fallback. Only unexpected failures are logged at error level.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	e := apperr.Normalize(err, fallback)
	status := httpStatus(e.Code)
	if status >= http.StatusInternalServerError {
		logger.Error(fallback, zap.Error(err))
	} else {
		logger.Debug(fallback, zap.String("code", string(e.Code)), zap.String("message", e.Message))
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: e.Message, Code: e.Code, Fields: e.Fields})
}

// respondBindError reports a body that failed to decode or validate.
func respondBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		Error: err.Error(),
		Code:  apperr.CodeValidation,
	})
}

// respondLoadError reports a cache that failed its initial load. The cache
// only keeps the message, so the code is lost.
func respondLoadError(c *gin.Context, logger *zap.Logger, msg string) {
	logger.Error("failed to load collection", zap.String("error", msg))
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: msg, Code: apperr.CodeInternal})
}

// paramID reads a positive integer path parameter. It writes the 400 itself
// and returns false when the parameter is not one.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			Error:  "invalid " + name,
			Code:   apperr.CodeValidation,
			Fields: map[string]string{name: "must be a positive integer"},
		})
		return 0, false
	}
	return id, true
}

func isNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}
