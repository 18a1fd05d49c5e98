// Package scenario samples perturbed price and load trajectories around a
// point forecast.
package scenario

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// FixedBand is the uncertainty used by RegimeFixed regardless of configuration.
const FixedBand = 0.05

// Regime selects how the uncertainty band is chosen.
type Regime string

const (
	// RegimeFixed always perturbs by FixedBand.
	RegimeFixed Regime = "fixed"
	// RegimeParameterized perturbs by the configured uncertainty.
	RegimeParameterized Regime = "parameterized"
)

// Band resolves the uncertainty actually applied for a configured value u.
func (r Regime) Band(u float64) float64 {
	if r == RegimeFixed {
		return FixedBand
	}
	return u
}

func ParseRegime(s string) (Regime, error) {
	switch Regime(s) {
	case "", RegimeParameterized:
		return RegimeParameterized, nil
	case RegimeFixed:
		return RegimeFixed, nil
	}
	return "", fmt.Errorf("unknown scenario regime %q", s)
}

// Independent streams drawn from one seed.
const (
	StreamPrice uint64 = iota + 1
	StreamLoad
	StreamActual
)

// Generator draws scenarios from a seeded PCG stream. A Generator is not safe
// for concurrent use; give each model its own.
type Generator struct {
	src rand.Source
}

// NewGenerator returns a reproducible generator. Different streams of the same
// seed are independent.
func NewGenerator(seed, stream uint64) *Generator {
	return &Generator{src: rand.NewPCG(seed, stream)}
}

// Trajectory perturbs every period of predicted once:
// predicted[t]*U(1-u, 1+u) + U(-u, u).
func (g *Generator) Trajectory(predicted []float64, u float64) []float64 {
	mult := distuv.Uniform{Min: 1 - u, Max: 1 + u, Src: g.src}
	add := distuv.Uniform{Min: -u, Max: u, Src: g.src}
	out := make([]float64, len(predicted))
	for t, p := range predicted {
		out[t] = p*mult.Rand() + add.Rand()
	}
	return out
}

// Matrix draws n independent trajectories.
func (g *Generator) Matrix(predicted []float64, u float64, n int) Matrix {
	m := make(Matrix, n)
	for s := range m {
		m[s] = g.Trajectory(predicted, u)
	}
	return m
}
