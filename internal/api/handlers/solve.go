package handlers

import (
	"net/http"
	"path/filepath"

	"battery-dispatch/internal/api/models"
	"battery-dispatch/internal/config"
	"battery-dispatch/internal/linprog"
	"battery-dispatch/internal/runner"

	"github.com/gin-gonic/gin"
)

// SolveHandler handles model solves and risk sweeps
type SolveHandler struct {
	runner *runner.Runner
	// configDir resolves units_file and forecast_file references.
	configDir string
}

func NewSolveHandler(r *runner.Runner, configDir string) *SolveHandler {
	return &SolveHandler{runner: r, configDir: configDir}
}

// Solve handles POST /api/v1/solve
func (h *SolveHandler) Solve(c *gin.Context) {
	var req models.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	cfg := &req.Config
	if !h.prepare(c, cfg) {
		return
	}

	out, err := h.runner.Solve(c.Request.Context(), cfg, req.Label)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildSolveResponse(out, req.Options))
}

// Frontier handles POST /api/v1/frontier
func (h *SolveHandler) Frontier(c *gin.Context) {
	var req models.FrontierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	cfg := &req.Config
	if !h.prepare(c, cfg) {
		return
	}

	points, err := h.runner.Frontier(c.Request.Context(), cfg, req.Betas)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.FrontierResponse{Points: points})
}

// prepare resolves file references and applies defaults. File references
// must stay inside configDir.
func (h *SolveHandler) prepare(c *gin.Context, cfg *config.Config) bool {
	for _, p := range []string{cfg.UnitsFile, cfg.ForecastFile} {
		if p != "" && !filepath.IsLocal(p) {
			abortWith(c, http.StatusBadRequest, "INVALID_CONFIG", "file references must be relative paths inside the config directory")
			return false
		}
	}
	if (cfg.UnitsFile != "" || cfg.ForecastFile != "") && h.configDir == "" {
		abortWith(c, http.StatusBadRequest, "INVALID_CONFIG", "file references are disabled on this server")
		return false
	}
	if err := cfg.Resolve(h.configDir); err != nil {
		abortWith(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return false
	}
	cfg.ApplyDefaults()
	return true
}

func buildSolveResponse(out *runner.Outcome, opts models.SolveOptions) models.SolveResponse {
	res := out.Result
	resp := models.SolveResponse{
		RunID:  out.RunID,
		Status: string(linprog.StatusOptimal),
		Summary: models.SolveSummary{
			Objective:     res.Objective,
			PredictedCost: res.PredictedCost,
			ActualCost:    res.ActualCost,
			Deviation:     out.Ledger.Deviation,
			VaR:           res.VaR,
			CVaR:          res.CVaR,
			Alpha:         res.Alpha,
			Beta:          res.Beta,
			RiskOptimized: res.RiskOptimized,
			Scenarios:     len(res.ScenarioCosts),
			Nodes:         res.Nodes,
			ElapsedMS:     out.Elapsed.Milliseconds(),
		},
		Schedule:     res.Periods,
		Distribution: out.Distribution,
		Histogram:    out.Histogram,
	}
	if opts.IncludeScenarios {
		resp.ScenarioCosts = res.ScenarioCosts
	}
	if opts.IncludeLedger {
		resp.Ledger = out.Ledger.Ledger
	}
	if opts.IncludeSolution {
		resp.Solution = make([]models.SolutionRow, len(out.Rows))
		for i, r := range out.Rows {
			resp.Solution[i] = models.SolutionRow{Variable: r.Variable, Index: r.Index, Value: r.Value}
		}
	}
	return resp
}
