package analysis

import "gonum.org/v1/gonum/floats"

// Bin is one histogram bucket [Lo, Hi).
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Histogram buckets costs into n equal-width bins spanning [min, max]. The
// last bin is closed so the maximum is counted.
func Histogram(costs []float64, n int) []Bin {
	if len(costs) == 0 || n < 1 {
		return nil
	}
	lo, hi := floats.Min(costs), floats.Max(costs)
	if lo == hi {
		return []Bin{{Lo: lo, Hi: hi, Count: len(costs)}}
	}
	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for k := range bins {
		bins[k] = Bin{Lo: lo + float64(k)*width, Hi: lo + float64(k+1)*width}
	}
	bins[n-1].Hi = hi
	for _, c := range costs {
		k := int((c - lo) / width)
		if k >= n {
			k = n - 1
		}
		bins[k].Count++
	}
	return bins
}
