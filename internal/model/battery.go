package model

import (
	"fmt"
	"math"
)

// StorageUnit defines the physical parameters of one storage unit.
// Units:
// - CapacityKWh: kWh
// - PowerKW: kW, applies to both charge and discharge
// - Efficiencies: 0..1
// - SOC: fraction 0..1 of capacity
type StorageUnit struct {
	Name                string
	CapacityKWh         float64
	PowerKW             float64
	MinSOC              float64
	MaxSOC              float64
	ChargeEfficiency    float64
	DischargeEfficiency float64
}

func (u StorageUnit) Validate() error {
	switch {
	case !positive(u.CapacityKWh):
		return &ConfigurationError{Field: "capacity_kwh", Reason: "must be > 0"}
	case !positive(u.PowerKW):
		return &ConfigurationError{Field: "power_kw", Reason: "must be > 0"}
	case !positive(u.ChargeEfficiency) || u.ChargeEfficiency > 1:
		return &ConfigurationError{Field: "charge_efficiency", Reason: "must be in (0, 1]"}
	case !positive(u.DischargeEfficiency) || u.DischargeEfficiency > 1:
		return &ConfigurationError{Field: "discharge_efficiency", Reason: "must be in (0, 1]"}
	case !positive(u.MinSOC) || math.IsNaN(u.MaxSOC) || u.MaxSOC > 1 || u.MinSOC > u.MaxSOC:
		return &ConfigurationError{
			Field:  "min_soc/max_soc",
			Reason: fmt.Sprintf("must satisfy 0<min_soc<=max_soc<=1, got %g/%g", u.MinSOC, u.MaxSOC),
		}
	}
	return nil
}

// MinEnergyKWh is the lowest stored energy the unit may hold.
func (u StorageUnit) MinEnergyKWh() float64 { return u.MinSOC * u.CapacityKWh }

// MaxEnergyKWh is the highest stored energy the unit may hold.
func (u StorageUnit) MaxEnergyKWh() float64 { return u.MaxSOC * u.CapacityKWh }

// TerminalEnergyKWh is the energy the unit must hold at the end of the horizon.
// Every day closes at the minimum SOC so consecutive days chain without free inventory.
func (u StorageUnit) TerminalEnergyKWh() float64 { return u.MinEnergyKWh() }

func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}
