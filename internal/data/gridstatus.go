package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// GridStatusClient provides methods to fetch data from the Grid Status API.
type GridStatusClient struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Logger  *zap.Logger

	// Cache is optional. Leave it nil outside local development.
	Cache *Cache[*LMPResponse]
}

// NewGridStatusClient creates a new Grid Status API client.
// If baseURL is empty, defaults to "https://api.gridstatus.io".
func NewGridStatusClient(apiKey, baseURL string, logger *zap.Logger) *GridStatusClient {
	if baseURL == "" {
		baseURL = "https://api.gridstatus.io"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GridStatusClient{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Logger:  logger,
	}
}

// QueryLocationParams defines parameters for querying location data.
type QueryLocationParams struct {
	DatasetID  string    // e.g., "caiso_lmp_day_ahead_hourly"
	LocationID string    // e.g., "TH_NP15_GEN-APND"
	StartTime  time.Time
	EndTime    time.Time
	Timezone   string // "market" when empty
}

func (p QueryLocationParams) cacheKey() string {
	return fmt.Sprintf("%s:%s:%s:%s:%s", p.DatasetID, p.LocationID,
		p.StartTime.Format("2006-01-02"), p.EndTime.Format("2006-01-02"), p.Timezone)
}

func (p QueryLocationParams) validate() error {
	if p.DatasetID == "" {
		return fmt.Errorf("dataset_id is required")
	}
	if p.LocationID == "" {
		return fmt.Errorf("location_id is required")
	}
	if p.StartTime.IsZero() || p.EndTime.IsZero() {
		return fmt.Errorf("start_time and end_time are required")
	}
	if p.StartTime.After(p.EndTime) {
		return fmt.Errorf("start_time must be before end_time")
	}
	return nil
}

// GridStatusError represents an error from the Grid Status API
type GridStatusError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter string
}

func (e *GridStatusError) Error() string {
	return e.Message
}

// QueryLocation fetches LMP data for a single location.
func (c *GridStatusClient) QueryLocation(ctx context.Context, params QueryLocationParams) (*LMPResponse, error) {
	if err := c.validateAPIKey(); err != nil {
		return nil, err
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	if params.Timezone == "" {
		params.Timezone = "market"
	}
	log := c.Logger.With(zap.String("dataset", params.DatasetID), zap.String("location", params.LocationID))

	key := params.cacheKey()
	if cached, ok := c.Cache.Get(key); ok {
		log.Debug("gridstatus cache hit", zap.Int("intervals", len(cached.Data)))
		return cached, nil
	}

	path := fmt.Sprintf("/v1/datasets/%s/query/location/%s", params.DatasetID, params.LocationID)
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("start_time", params.StartTime.Format("2006-01-02"))
	q.Set("end_time", params.EndTime.Format("2006-01-02"))
	q.Set("timezone", params.Timezone)
	q.Set("download", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.Client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		log.Warn("gridstatus request failed", zap.Error(err), zap.Duration("duration", elapsed))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	log.Info("gridstatus response", zap.Int("status", resp.StatusCode), zap.Duration("duration", elapsed))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return nil, &GridStatusError{
			StatusCode: resp.StatusCode,
			Code:       "INVALID_API_KEY",
			Message:    "Invalid API key or insufficient permissions",
		}
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		return nil, &GridStatusError{
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("Rate limit exceeded. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	case http.StatusUnauthorized:
		return nil, &GridStatusError{
			StatusCode: resp.StatusCode,
			Code:       "UNAUTHORIZED",
			Message:    "Unauthorized: Invalid API key",
		}
	default:
		return nil, &GridStatusError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("API returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}

	var result LMPResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	c.Cache.Set(key, &result)
	return &result, nil
}

func (c *GridStatusClient) validateAPIKey() error {
	if c.APIKey == "" {
		return &GridStatusError{Code: "MISSING_API_KEY", Message: "API key is required"}
	}
	if len(c.APIKey) < 10 {
		return &GridStatusError{Code: "INVALID_API_KEY_FORMAT", Message: "API key appears to be invalid (too short)"}
	}
	return nil
}

// QueryLocationByString parses YYYY-MM-DD dates and calls QueryLocation.
func (c *GridStatusClient) QueryLocationByString(ctx context.Context, datasetID, locationID, startDate, endDate string) (*LMPResponse, error) {
	startTime, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date format (expected YYYY-MM-DD): %w", err)
	}
	endTime, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date format (expected YYYY-MM-DD): %w", err)
	}
	return c.QueryLocation(ctx, QueryLocationParams{
		DatasetID:  datasetID,
		LocationID: locationID,
		StartTime:  startTime,
		EndTime:    endTime,
	})
}
