package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"battery-dispatch/internal/api/models"
	"battery-dispatch/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UnitsHandler lists storage unit presets
type UnitsHandler struct {
	unitsDir string
	logger   *zap.Logger
}

// NewUnitsHandler uses dir, or examples/units under the working directory
// when dir is empty.
func NewUnitsHandler(dir string, logger *zap.Logger) *UnitsHandler {
	if dir == "" {
		dir = filepath.Join("examples", "units")
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	logger.Info("units handler ready", zap.String("dir", dir))
	return &UnitsHandler{unitsDir: dir, logger: logger}
}

// ListUnits handles GET /api/v1/units
func (h *UnitsHandler) ListUnits(c *gin.Context) {
	presets := []models.UnitPresetInfo{}

	entries, err := os.ReadDir(h.unitsDir)
	if err != nil {
		h.logger.Warn("cannot read units directory", zap.String("dir", h.unitsDir), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"presets": presets})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(h.unitsDir, entry.Name())
		info, err := loadPresetInfo(path, entry.Name())
		if err != nil {
			h.logger.Warn("skipping invalid units file", zap.String("file", path), zap.Error(err))
			continue
		}
		presets = append(presets, *info)
	}
	c.JSON(http.StatusOK, gin.H{"presets": presets})
}

func loadPresetInfo(path, filename string) (*models.UnitPresetInfo, error) {
	f, err := config.ReadUnitsFile(path)
	if err != nil {
		return nil, err
	}
	id := strings.TrimSuffix(filename, ".yaml")
	name := f.Name
	if name == "" {
		name = id
	}
	info := &models.UnitPresetInfo{ID: id, Name: name, File: filename}
	for _, u := range f.Units {
		info.Units = append(info.Units, models.UnitSpecs{
			Name:        u.Name,
			CapacityKWh: u.CapacityKWh,
			PowerKW:     u.PowerKW,
		})
	}
	return info, nil
}
