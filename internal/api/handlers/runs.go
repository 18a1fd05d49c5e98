package handlers

import (
	"fmt"
	"net/http"

	"battery-dispatch/internal/api/models"
	"battery-dispatch/internal/solution"
	"battery-dispatch/internal/store"

	"github.com/gin-gonic/gin"
)

const defaultRunsLimit = 20

// RunsHandler serves stored run history
type RunsHandler struct {
	store *store.Store
}

func NewRunsHandler(s *store.Store) *RunsHandler {
	return &RunsHandler{store: s}
}

func (h *RunsHandler) available(c *gin.Context) bool {
	if h.store == nil {
		abortWith(c, http.StatusServiceUnavailable, "STORE_DISABLED", "run history is not configured on this server")
		return false
	}
	return true
}

// ListRuns handles GET /api/v1/runs
func (h *RunsHandler) ListRuns(c *gin.Context) {
	if !h.available(c) {
		return
	}
	var q models.RunsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWith(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if q.Limit <= 0 {
		q.Limit = defaultRunsLimit
	}
	runs, err := h.store.ListRuns(c.Request.Context(), q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// GetRun handles GET /api/v1/runs/:id
func (h *RunsHandler) GetRun(c *gin.Context) {
	if !h.available(c) {
		return
	}
	run, err := h.store.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetSolution handles GET /api/v1/runs/:id/solution as CSV
func (h *RunsHandler) GetSolution(c *gin.Context) {
	if !h.available(c) {
		return
	}
	id := c.Param("id")
	rows, err := h.store.SolutionRows(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".csv"))
	c.Status(http.StatusOK)
	if err := solution.WriteCSV(c.Writer, rows); err != nil {
		_ = c.Error(err)
	}
}
