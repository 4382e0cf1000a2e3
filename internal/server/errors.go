package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	casesdomain "github.com/wardenhq/warden/internal/cases/domain"
	schedactiondomain "github.com/wardenhq/warden/internal/schedaction/domain"
	usagedomain "github.com/wardenhq/warden/internal/usage/domain"
)

var ErrInvalidRequest = errors.New("invalid_request")

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, usagedomain.ErrInvalidCommunity),
		errors.Is(err, usagedomain.ErrInvalidCallType),
		errors.Is(err, usagedomain.ErrInvalidCost),
		errors.Is(err, casesdomain.ErrInvalidCommunity),
		errors.Is(err, casesdomain.ErrInvalidAction),
		errors.Is(err, casesdomain.ErrInvalidTarget),
		errors.Is(err, casesdomain.ErrInvalidModerator),
		errors.Is(err, schedactiondomain.ErrInvalidCommunity),
		errors.Is(err, schedactiondomain.ErrInvalidTarget),
		errors.Is(err, schedactiondomain.ErrInvalidAction):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, casesdomain.ErrCaseNotFound),
		errors.Is(err, schedactiondomain.ErrActionNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case errors.Is(err, casesdomain.ErrAllocationConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
