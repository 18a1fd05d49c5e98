// Package analysis summarises scenario cost distributions.
package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Distribution is a summary of equally likely scenario costs.
type Distribution struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P05   float64 `json:"p05"`
	P95   float64 `json:"p95"`
	VaR   float64 `json:"var"`
	CVaR  float64 `json:"cvar"`
}

func Describe(costs []float64, alpha float64) Distribution {
	d := Distribution{Count: len(costs)}
	if len(costs) == 0 {
		return d
	}
	sorted := sortedCopy(costs)
	d.Min = floats.Min(sorted)
	d.Max = floats.Max(sorted)
	d.Mean = stat.Mean(sorted, nil)
	d.P05 = percentileSorted(sorted, 0.05)
	d.P95 = percentileSorted(sorted, 0.95)
	d.VaR, d.CVaR = TailRisk(costs, alpha)
	return d
}

// TailRisk returns the value-at-risk and conditional value-at-risk at level
// alpha of equally likely costs. VaR is the smallest cost c with
// P(cost <= c) >= alpha; CVaR is VaR + E[(cost-VaR)+]/(1-alpha), the
// minimum of the Rockafellar-Uryasev function.
func TailRisk(costs []float64, alpha float64) (float64, float64) {
	if len(costs) == 0 {
		return 0, 0
	}
	sorted := sortedCopy(costs)
	n := float64(len(sorted))
	k := int(math.Ceil(alpha*n-1e-9)) - 1
	k = max(0, min(len(sorted)-1, k))
	valueAtRisk := sorted[k]

	excess := 0.0
	for _, c := range sorted[k:] {
		excess += c - valueAtRisk
	}
	return valueAtRisk, valueAtRisk + excess/((1-alpha)*n)
}

func sortedCopy(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	sort.Float64s(out)
	return out
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
