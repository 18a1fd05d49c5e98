package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UnitsFile is the shape of a units preset (examples/units/*.yaml).
type UnitsFile struct {
	Name  string       `yaml:"name"`
	Units []UnitConfig `yaml:"units"`
}

func LoadUnitsFile(path string) ([]UnitConfig, error) {
	f, err := ReadUnitsFile(path)
	if err != nil {
		return nil, err
	}
	return f.Units, nil
}

func ReadUnitsFile(path string) (*UnitsFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var w UnitsFile
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("parse units file %s: %w", path, err)
	}
	return &w, nil
}

// MergeUnits overlays overrides onto base by unit name; overrides with a new
// name are appended.
func MergeUnits(base, overrides []UnitConfig) []UnitConfig {
	out := append([]UnitConfig(nil), base...)
	for _, o := range overrides {
		merged := false
		for i := range out {
			if out[i].Name == o.Name {
				out[i] = MergeUnit(out[i], o)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, o)
		}
	}
	return out
}

// MergeUnit overlays non-zero fields from override onto base.
func MergeUnit(base, override UnitConfig) UnitConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.CapacityKWh != 0 {
		out.CapacityKWh = override.CapacityKWh
	}
	if override.PowerKW != 0 {
		out.PowerKW = override.PowerKW
	}
	if override.MinSOC != 0 {
		out.MinSOC = override.MinSOC
	}
	if override.MaxSOC != 0 {
		out.MaxSOC = override.MaxSOC
	}
	if override.ChargeEfficiency != 0 {
		out.ChargeEfficiency = override.ChargeEfficiency
	}
	if override.DischargeEfficiency != 0 {
		out.DischargeEfficiency = override.DischargeEfficiency
	}
	return out
}
