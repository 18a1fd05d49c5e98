// Package api wires the HTTP surface: gin routes over the dispatch runner,
// run history, unit presets and the Grid Status forecast source.
package api

import (
	"net/http"
	"strings"

	"battery-dispatch/internal/api/handlers"
	"battery-dispatch/internal/api/middleware"
	"battery-dispatch/internal/data"
	"battery-dispatch/internal/metrics"
	"battery-dispatch/internal/runner"
	"battery-dispatch/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options are the server's dependencies. Store, Metrics and Cache may be nil.
type Options struct {
	Runner    *runner.Runner
	Store     *store.Store
	Metrics   *metrics.Metrics
	Cache     *data.Cache[*data.LMPResponse]
	Logger    *zap.Logger
	ConfigDir string
	UnitsDir  string
	// GridStatusURL overrides the Grid Status base URL.
	GridStatusURL string
	CORSOrigins   []string
	StaticDir     string
}

func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Runner == nil {
		opts.Runner = &runner.Runner{Store: opts.Store, Metrics: opts.Metrics, Logger: logger}
	}

	router := gin.New()
	router.Use(middleware.CORS(opts.CORSOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.ErrorHandler(logger))

	solveHandler := handlers.NewSolveHandler(opts.Runner, opts.ConfigDir)
	runsHandler := handlers.NewRunsHandler(opts.Store)
	unitsHandler := handlers.NewUnitsHandler(opts.UnitsDir, logger)
	forecastHandler := handlers.NewForecastHandler(opts.GridStatusURL, opts.Cache, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	api := router.Group("/api/v1")
	{
		api.POST("/solve", solveHandler.Solve)
		api.POST("/frontier", solveHandler.Frontier)

		api.GET("/runs", runsHandler.ListRuns)
		api.GET("/runs/:id", runsHandler.GetRun)
		api.GET("/runs/:id/solution", runsHandler.GetSolution)

		api.GET("/units", unitsHandler.ListUnits)
		api.GET("/datasets", handlers.ListDatasets)
		api.POST("/forecast", forecastHandler.FetchForecast)
	}

	if opts.StaticDir != "" {
		router.Static("/assets", opts.StaticDir+"/assets")
		router.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
				return
			}
			c.File(opts.StaticDir + "/index.html")
		})
	}
	return router
}
