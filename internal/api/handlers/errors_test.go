package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"battery-dispatch/internal/data"
	"battery-dispatch/internal/linprog"
	"battery-dispatch/internal/model"
	"battery-dispatch/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestWriteErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"config", fmt.Errorf("wrapped: %w", model.Configf("alpha", "bad")), http.StatusBadRequest, "INVALID_CONFIG"},
		{"infeasible", &linprog.SolveError{Status: linprog.StatusInfeasible}, http.StatusUnprocessableEntity, "INFEASIBLE"},
		{"unbounded", fmt.Errorf("solve: %w", linprog.ErrUnbounded), http.StatusUnprocessableEntity, "UNBOUNDED"},
		{"unavailable", &linprog.SolveError{Status: linprog.StatusUnavailable, Err: errors.New("timeout")}, http.StatusServiceUnavailable, "SOLVER_UNAVAILABLE"},
		{"not found", store.ErrNotFound, http.StatusNotFound, "RUN_NOT_FOUND"},
		{"rate limited", &data.GridStatusError{StatusCode: 429, Code: "RATE_LIMIT_EXCEEDED"}, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			writeError(c, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"code":"`+tt.code+`"`)
		})
	}
}
