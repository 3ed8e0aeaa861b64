package aggregate

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/vinodismyname/peerxcel/config"
	"github.com/vinodismyname/peerxcel/internal/metrics"
)

// Kind distinguishes categorical group averages from sector-wide ones.
type Kind int

const (
	Group Kind = iota
	Sector
)

func (k Kind) String() string {
	if k == Sector {
		return "sector"
	}
	return "group"
}

// Row is the trimmed average of every field for one group. Fields whose
// sample was too small or fully trimmed are absent from Averages.
type Row struct {
	Label    string             `json:"label"`
	Kind     Kind               `json:"-"`
	KindName string             `json:"kind"`
	Averages map[string]float64 `json:"averages"`
	Samples  map[string]int     `json:"samples"`
}

// Average returns the average for field when available.
func (r Row) Average(field string) (float64, bool) {
	v, ok := r.Averages[field]
	return v, ok
}

// Aggregator computes percentile-trimmed means.
type Aggregator struct {
	lower, upper float64
	minGroup     int
	minSector    int
}

// New builds an Aggregator; zero values fall back to the defaults.
func New(cfg config.AggregateConfig) *Aggregator {
	a := &Aggregator{
		lower:     cfg.LowerPercentile,
		upper:     cfg.UpperPercentile,
		minGroup:  cfg.MinGroupSample,
		minSector: cfg.MinSectorSample,
	}
	if a.upper <= 0 || a.upper <= a.lower {
		a.lower, a.upper = config.DefaultLowerPercentile, config.DefaultUpperPercentile
	}
	if a.minGroup <= 0 {
		a.minGroup = config.DefaultMinGroupSample
	}
	if a.minSector <= 0 {
		a.minSector = config.DefaultMinSectorSample
	}
	return a
}

// MinSample returns the smallest sample size averaged for kind.
func (a *Aggregator) MinSample(kind Kind) int {
	if kind == Sector {
		return a.minSector
	}
	return a.minGroup
}

// Aggregate averages each field over samples. Non-numeric and missing
// values are excluded before the minimum sample size is checked.
func (a *Aggregator) Aggregate(label string, kind Kind, fields []string, samples []metrics.Values) Row {
	row := Row{
		Label:    label,
		Kind:     kind,
		KindName: kind.String(),
		Averages: make(map[string]float64, len(fields)),
		Samples:  make(map[string]int, len(fields)),
	}
	for _, f := range metrics.NormalizeFields(fields) {
		var nums []float64
		for _, vals := range samples {
			if v, ok := vals[f]; ok {
				if n, ok := v.Float(); ok {
					nums = append(nums, n)
				}
			}
		}
		row.Samples[f] = len(nums)
		if len(nums) < a.MinSample(kind) {
			continue
		}
		if mean, ok := TrimmedMean(nums, a.lower, a.upper); ok {
			row.Averages[f] = mean
		}
	}
	return row
}

// TrimmedMean returns the mean of the values lying within the lower and
// upper percentiles of values (linear interpolation between closest ranks).
// It reports false when no value survives.
func TrimmedMean(values []float64, lower, upper float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	lo := Percentile(sorted, lower)
	hi := Percentile(sorted, upper)

	kept := make([]float64, 0, len(sorted))
	for _, v := range sorted {
		if v >= lo && v <= hi {
			kept = append(kept, v)
		}
	}
	return Mean(kept)
}

// Percentile returns the p-th quantile (0..1) of sorted values using
// linear interpolation. sorted must be ascending and non-empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	p = math.Max(0, math.Min(1, p))
	pos := p * float64(len(sorted)-1)
	i := int(math.Floor(pos))
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(i)
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}

// Mean is the untrimmed arithmetic mean; it reports false for no values.
func Mean(values []float64) (float64, bool) {
	mean, err := stats.Mean(values)
	if err != nil {
		return 0, false
	}
	return mean, true
}
