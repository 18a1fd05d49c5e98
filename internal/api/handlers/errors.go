package handlers

import (
	"errors"
	"net/http"

	"battery-dispatch/internal/api/models"
	"battery-dispatch/internal/data"
	"battery-dispatch/internal/linprog"
	"battery-dispatch/internal/model"
	"battery-dispatch/internal/store"

	"github.com/gin-gonic/gin"
)

func abortWith(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeError maps domain errors to HTTP statuses and error codes.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var ce *model.ConfigurationError
	var gsErr *data.GridStatusError
	detail := models.ErrorDetail{Message: err.Error()}
	status := http.StatusInternalServerError

	switch {
	case errors.As(err, &ce):
		status, detail.Code = http.StatusBadRequest, "INVALID_CONFIG"
		detail.Details = map[string]interface{}{"field": ce.Field}
	case errors.Is(err, model.ErrConfiguration):
		status, detail.Code = http.StatusBadRequest, "INVALID_CONFIG"
	case errors.Is(err, linprog.ErrInfeasible):
		status, detail.Code = http.StatusUnprocessableEntity, "INFEASIBLE"
	case errors.Is(err, linprog.ErrUnbounded):
		status, detail.Code = http.StatusUnprocessableEntity, "UNBOUNDED"
	case errors.Is(err, linprog.ErrSolverUnavailable):
		status, detail.Code = http.StatusServiceUnavailable, "SOLVER_UNAVAILABLE"
	case errors.Is(err, store.ErrNotFound):
		status, detail.Code = http.StatusNotFound, "RUN_NOT_FOUND"
	case errors.As(err, &gsErr):
		status = http.StatusBadRequest
		if gsErr.StatusCode == http.StatusForbidden || gsErr.StatusCode == http.StatusUnauthorized {
			status = http.StatusUnauthorized
		} else if gsErr.StatusCode == http.StatusTooManyRequests {
			status = http.StatusTooManyRequests
		}
		detail.Code, detail.Message = gsErr.Code, gsErr.Message
		detail.Details = map[string]interface{}{
			"status_code": gsErr.StatusCode,
			"retry_after": gsErr.RetryAfter,
		}
	default:
		detail.Code = "INTERNAL_ERROR"
	}
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: detail})
}
