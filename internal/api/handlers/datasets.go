package handlers

import (
	"errors"
	"net/http"

	"battery-dispatch/internal/api/models"
	"battery-dispatch/internal/data"
	"battery-dispatch/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListDatasets handles GET /api/v1/datasets
func ListDatasets(c *gin.Context) {
	datasets := []models.DatasetInfo{
		{ID: "caiso_lmp_day_ahead_hourly", Name: "CAISO LMP Day-Ahead Hourly", Market: "CAISO", Resolution: "1h"},
		{ID: "ercot_spp_day_ahead_hourly", Name: "ERCOT SPP Day-Ahead Hourly", Market: "ERCOT", Resolution: "1h"},
		{ID: "pjm_lmp_day_ahead_hourly", Name: "PJM LMP Day-Ahead Hourly", Market: "PJM", Resolution: "1h"},
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}

// ForecastHandler turns Grid Status LMPs into a forecast
type ForecastHandler struct {
	baseURL string
	cache   *data.Cache[*data.LMPResponse]
	logger  *zap.Logger
}

// NewForecastHandler takes an optional cache; baseURL "" means the public API.
func NewForecastHandler(baseURL string, cache *data.Cache[*data.LMPResponse], logger *zap.Logger) *ForecastHandler {
	return &ForecastHandler{baseURL: baseURL, cache: cache, logger: logger}
}

// FetchForecast handles POST /api/v1/forecast
func (h *ForecastHandler) FetchForecast(c *gin.Context) {
	var req models.ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWith(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if req.Periods == 0 {
		req.Periods = model.DefaultPeriods
	}

	// the API key comes from the caller, so each request gets its own client
	client := data.NewGridStatusClient(req.APIKey, h.baseURL, h.logger)
	client.Cache = h.cache
	resp, err := client.QueryLocationByString(c.Request.Context(), req.DatasetID, req.LocationID, req.StartDate, req.EndDate)
	if err != nil {
		var gsErr *data.GridStatusError
		if errors.As(err, &gsErr) {
			writeError(c, err)
			return
		}
		abortWith(c, http.StatusBadRequest, "DATA_FETCH_ERROR", err.Error())
		return
	}
	prices, err := data.HourlyPriceProfile(resp.Data, req.Periods)
	if err != nil {
		abortWith(c, http.StatusUnprocessableEntity, "NO_DATA", err.Error())
		return
	}
	c.JSON(http.StatusOK, models.ForecastResponse{
		Forecast:  data.ForecastFromPrices(prices, req.LoadW),
		Intervals: len(resp.Data),
	})
}
