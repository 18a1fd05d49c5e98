package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"battery-dispatch/internal/model"
)

func LoadGridStatusJSON(path string) (*LMPResponse, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var resp LMPResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LoadForecastJSON reads a forecast written by WriteForecastJSON.
func LoadForecastJSON(path string) (model.Forecast, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Forecast{}, err
	}
	var f model.Forecast
	if err := json.Unmarshal(raw, &f); err != nil {
		return model.Forecast{}, fmt.Errorf("parse forecast %s: %w", path, err)
	}
	return f, nil
}

func WriteForecastJSON(path string, f model.Forecast) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
