package aggregate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vinodismyname/peerxcel/config"
	"github.com/vinodismyname/peerxcel/internal/metrics"
)

func TestTrimmedMean_ExcludesOutlier(t *testing.T) {
	values := []float64{10, 10, 11, 12, 13, 14, 15, 16, 17, 850}

	got, ok := TrimmedMean(values, 0.05, 0.95)
	require.True(t, ok)
	require.InDelta(t, 118.0/9.0, got, 1e-9)

	raw, ok := Mean(values)
	require.True(t, ok)
	require.Greater(t, raw-got, 50.0)
}

func TestTrimmedMean_DistinctMinimumIsTrimmedToo(t *testing.T) {
	// Linear percentiles put both bounds strictly inside the extremes, so a
	// distinct minimum goes with the outlier: the mean of 11..18 remains.
	values := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 900}

	got, ok := TrimmedMean(values, 0.05, 0.95)
	require.True(t, ok)
	require.InDelta(t, 14.5, got, 1e-9)
}

func TestTrimmedMean_EdgeCases(t *testing.T) {
	_, ok := TrimmedMean(nil, 0.05, 0.95)
	require.False(t, ok)

	got, ok := TrimmedMean([]float64{7}, 0.05, 0.95)
	require.True(t, ok)
	require.Equal(t, 7.0, got)

	got, ok = TrimmedMean([]float64{4, 4, 4}, 0.05, 0.95)
	require.True(t, ok)
	require.Equal(t, 4.0, got)
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	require.Equal(t, 1.0, Percentile(sorted, 0))
	require.Equal(t, 4.0, Percentile(sorted, 1))
	require.InDelta(t, 2.5, Percentile(sorted, 0.5), 1e-12)
	require.InDelta(t, 1.15, Percentile(sorted, 0.05), 1e-12)
}

func TestTrimmedMean_OrderInvariant(t *testing.T) {
	values := []float64{3, -1, 8.5, 40, 2, 2, 7, 0.5, 11, 6, 900, -300}
	want, ok := TrimmedMean(values, 0.05, 0.95)
	require.True(t, ok)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]float64(nil), values...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, ok := TrimmedMean(shuffled, 0.05, 0.95)
		require.True(t, ok)
		require.InDelta(t, want, got, 1e-9)
	}
}

func samples(field string, vals ...string) []metrics.Values {
	out := make([]metrics.Values, len(vals))
	for i, v := range vals {
		out[i] = metrics.Values{field: metrics.Value(v)}
	}
	return out
}

func TestAggregate_MinimumSampleSize(t *testing.T) {
	a := New(config.Default().Aggregate)

	row := a.Aggregate("Retail", Group, []string{"ROE"}, samples("ROE", "0.1", "abc"))
	_, ok := row.Average("ROE")
	require.False(t, ok, "one numeric value is below the group minimum")
	require.Equal(t, 1, row.Samples["ROE"])

	row = a.Aggregate("Retail", Group, []string{"ROE"}, samples("ROE", "0.1", "0.3"))
	_, ok = row.Average("ROE")
	require.False(t, ok, "both values of a two-value sample lie outside the percentile band")
	require.Equal(t, 2, row.Samples["ROE"])

	row = a.Aggregate("Retail", Group, []string{"ROE"}, samples("ROE", "0.25", "0.25"))
	avg, ok := row.Average("ROE")
	require.True(t, ok)
	require.InDelta(t, 0.25, avg, 1e-9)

	row = a.Aggregate("Retail", Group, []string{"ROE"}, samples("ROE", "0.1", "0.2", "0.9"))
	avg, ok = row.Average("ROE")
	require.True(t, ok)
	require.InDelta(t, 0.2, avg, 1e-9)

	row = a.Aggregate("Consumer", Sector, []string{"ROE"}, samples("ROE", "1", "2", "3", "4"))
	_, ok = row.Average("ROE")
	require.False(t, ok, "four values are below the sector minimum")
	require.Equal(t, "sector", row.KindName)

	row = a.Aggregate("Consumer", Sector, []string{"ROE"}, samples("ROE", "1", "2", "3", "4", "5"))
	_, ok = row.Average("ROE")
	require.True(t, ok)
}

func TestAggregate_MissingFieldsAndOrder(t *testing.T) {
	a := New(config.AggregateConfig{})
	peers := []metrics.Values{
		{"ROE": "0.2", "EBIT": "10"},
		{"ROE": "0.2"},
		{"EBIT": "n/a"},
		{},
	}
	row := a.Aggregate("Retail", Group, []string{"ROE", "EBIT", "ROE"}, peers)
	require.Equal(t, map[string]int{"ROE": 2, "EBIT": 1}, row.Samples)
	require.Len(t, row.Averages, 1)

	reversed := []metrics.Values{peers[3], peers[2], peers[1], peers[0]}
	require.Equal(t, row.Averages, a.Aggregate("Retail", Group, []string{"ROE", "EBIT"}, reversed).Averages)
}

func TestNew_FallsBackToDefaults(t *testing.T) {
	a := New(config.AggregateConfig{})
	require.Equal(t, config.DefaultMinGroupSample, a.MinSample(Group))
	require.Equal(t, config.DefaultMinSectorSample, a.MinSample(Sector))
}
