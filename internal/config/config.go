package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"battery-dispatch/internal/data"
	"battery-dispatch/internal/dispatch"
	"battery-dispatch/internal/model"
	"battery-dispatch/internal/scenario"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML). The same shape is
// accepted as JSON by the API.
type Config struct {
	// Optional: load storage units from a separate YAML (e.g. examples/units/*.yaml).
	// Units listed inline are merged by name over the file's units.
	UnitsFile string       `yaml:"units_file" json:"units_file,omitempty"`
	Units     []UnitConfig `yaml:"units" json:"units,omitempty"`

	// Optional: load the forecast from a JSON file instead of inline series.
	ForecastFile string         `yaml:"forecast_file" json:"forecast_file,omitempty"`
	Forecast     model.Forecast `yaml:"forecast" json:"forecast"`

	Periods   int            `yaml:"periods" json:"periods,omitempty"`
	Market    MarketConfig   `yaml:"market" json:"market"`
	Risk      RiskConfig     `yaml:"risk" json:"risk"`
	Scenarios ScenarioConfig `yaml:"scenarios" json:"scenarios"`
	Solver    SolverConfig   `yaml:"solver" json:"solver"`
}

type UnitConfig struct {
	Name                string  `yaml:"name" json:"name"`
	CapacityKWh         float64 `yaml:"capacity_kwh" json:"capacity_kwh"`
	PowerKW             float64 `yaml:"power_kw" json:"power_kw"`
	MinSOC              float64 `yaml:"min_soc" json:"min_soc"`
	MaxSOC              float64 `yaml:"max_soc" json:"max_soc"`
	ChargeEfficiency    float64 `yaml:"charge_efficiency" json:"charge_efficiency"`
	DischargeEfficiency float64 `yaml:"discharge_efficiency" json:"discharge_efficiency"`
}

type MarketConfig struct {
	// Gradient is the price increase per kW of scheduled demand.
	Gradient float64 `yaml:"gradient" json:"gradient"`
}

type RiskConfig struct {
	Alpha float64 `yaml:"alpha" json:"alpha"`
	// Beta is a pointer so an explicit 0 (expected-cost model) survives defaults.
	Beta *float64 `yaml:"beta" json:"beta,omitempty"`
}

type ScenarioConfig struct {
	Price       int     `yaml:"price" json:"price"`
	Load        int     `yaml:"load" json:"load"`
	SampleLoad  *bool   `yaml:"sample_load" json:"sample_load,omitempty"`
	Uncertainty float64 `yaml:"uncertainty" json:"uncertainty"`
	Regime      string  `yaml:"regime" json:"regime,omitempty"`
	Seed        uint64  `yaml:"seed" json:"seed"`
}

type SolverConfig struct {
	Tolerance      float64 `yaml:"tolerance" json:"tolerance,omitempty"`
	TimeoutSeconds float64 `yaml:"timeout_seconds" json:"timeout_seconds,omitempty"`
	MaxNodes       int     `yaml:"max_nodes" json:"max_nodes,omitempty"`
	// ExclusiveChargeDischarge forbids charging and discharging in one period.
	ExclusiveChargeDischarge bool `yaml:"exclusive_charge_discharge" json:"exclusive_charge_discharge,omitempty"`
}

// Defaults used when a field is left empty.
const (
	DefaultAlpha          = 0.95
	DefaultBeta           = 1.0
	DefaultScenarios      = 10
	DefaultTimeoutSeconds = 60
)

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Resolve(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &c, nil
}

// Resolve loads units_file and forecast_file, interpreting relative paths
// against baseDir first and the working directory second.
func (c *Config) Resolve(baseDir string) error {
	if c.UnitsFile != "" {
		loaded, err := LoadUnitsFile(resolvePath(baseDir, c.UnitsFile))
		if err != nil {
			return err
		}
		c.Units = MergeUnits(loaded, c.Units)
		c.UnitsFile = ""
	}
	if c.ForecastFile != "" {
		f, err := data.LoadForecastJSON(resolvePath(baseDir, c.ForecastFile))
		if err != nil {
			return err
		}
		if len(c.Forecast.ActualPrice) > 0 {
			f.ActualPrice = c.Forecast.ActualPrice
		}
		c.Forecast = f
		c.ForecastFile = ""
	}
	return nil
}

func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	cand := filepath.Join(baseDir, p)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return p
}

// ApplyDefaults fills unset fields. Efficiencies default to 1.
func (c *Config) ApplyDefaults() {
	if c.Periods == 0 {
		c.Periods = model.DefaultPeriods
	}
	if c.Risk.Alpha == 0 {
		c.Risk.Alpha = DefaultAlpha
	}
	if c.Risk.Beta == nil {
		b := DefaultBeta
		c.Risk.Beta = &b
	}
	if c.Scenarios.Price == 0 {
		c.Scenarios.Price = DefaultScenarios
	}
	if c.Scenarios.SampleLoad == nil {
		on := true
		c.Scenarios.SampleLoad = &on
	}
	if *c.Scenarios.SampleLoad && c.Scenarios.Load == 0 {
		c.Scenarios.Load = DefaultScenarios
	}
	if c.Scenarios.Regime == "" {
		c.Scenarios.Regime = string(scenario.RegimeParameterized)
	}
	if c.Solver.TimeoutSeconds == 0 {
		c.Solver.TimeoutSeconds = DefaultTimeoutSeconds
	}
	for i := range c.Units {
		if c.Units[i].ChargeEfficiency == 0 {
			c.Units[i].ChargeEfficiency = 1
		}
		if c.Units[i].DischargeEfficiency == 0 {
			c.Units[i].DischargeEfficiency = 1
		}
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	dc, err := c.ToDispatch()
	if err != nil {
		return err
	}
	if err := dc.Validate(); err != nil {
		return fmt.Errorf("dispatch config invalid: %w", err)
	}
	if c.Solver.TimeoutSeconds < 0 || c.Solver.MaxNodes < 0 || c.Solver.Tolerance < 0 {
		return model.Configf("solver", "tolerance, timeout_seconds and max_nodes must be >= 0")
	}
	return nil
}

// ToDispatch converts the file shape into a model build configuration.
// Call ApplyDefaults first.
func (c *Config) ToDispatch() (dispatch.Config, error) {
	regime, err := scenario.ParseRegime(c.Scenarios.Regime)
	if err != nil {
		return dispatch.Config{}, model.Configf("scenarios.regime", "%v", err)
	}
	units := make([]model.StorageUnit, len(c.Units))
	for i, u := range c.Units {
		units[i] = u.ToModel()
	}
	dc := dispatch.Config{
		Units:                    units,
		Periods:                  c.Periods,
		Forecast:                 c.Forecast,
		Gradient:                 c.Market.Gradient,
		Alpha:                    c.Risk.Alpha,
		Uncertainty:              c.Scenarios.Uncertainty,
		Regime:                   regime,
		PriceScenarios:           c.Scenarios.Price,
		LoadScenarios:            c.Scenarios.Load,
		Seed:                     c.Scenarios.Seed,
		ExclusiveChargeDischarge: c.Solver.ExclusiveChargeDischarge,
	}
	if c.Risk.Beta != nil {
		dc.Beta = *c.Risk.Beta
	}
	if c.Scenarios.SampleLoad != nil {
		dc.SampleLoad = *c.Scenarios.SampleLoad
	}
	return dc, nil
}

// Timeout is the time allowed for one solve.
func (s SolverConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds * float64(time.Second))
}

func (u UnitConfig) ToModel() model.StorageUnit {
	return model.StorageUnit{
		Name:                u.Name,
		CapacityKWh:         u.CapacityKWh,
		PowerKW:             u.PowerKW,
		MinSOC:              u.MinSOC,
		MaxSOC:              u.MaxSOC,
		ChargeEfficiency:    u.ChargeEfficiency,
		DischargeEfficiency: u.DischargeEfficiency,
	}
}
