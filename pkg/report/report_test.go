package report

import (
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func TestFormatMetric(t *testing.T) {
	// Fractional scores scale and round to 3 decimals
	require.Equal(t, "45.67", FormatMetric("MOTA", 0.4567, 100))
	require.Equal(t, "50", FormatMetric("HOTA", 0.5, 100))
	require.Equal(t, "33.333", FormatMetric("IDF1", 1.0/3.0, 100))

	// Count metrics render as integers, unscaled
	require.Equal(t, "120", FormatMetric("CLR_TP", 120, 100))
	require.Equal(t, "7", FormatMetric("IDFN", 7, 100))
	require.Equal(t, "0", FormatMetric("CLR_FP", 0, 100))

	// MOTP contains "TP" but is a fractional score, not a count
	require.Equal(t, "81.2", FormatMetric("MOTP", 0.812, 100))

	// Alternative scale factor
	require.Equal(t, "0.457", FormatMetric("MOTA", 0.4567, 1))
}

func TestLogSink(t *testing.T) {
	sink := &LogSink{Log: logs.NewTestingLog(t)}
	sink.LogSummary(map[string]float64{"HOTA": 0.5, "MOTA": 0.4567})
}

func TestPrintResults(t *testing.T) {
	log := logs.NewTestingLog(t)
	combined := map[string]float64{"HOTA": 0.5, "CLR_TP": 120}
	bySequence := map[string]map[string]float64{
		"SNMOT-060": {"HOTA": 0.6, "CLR_TP": 70},
		"SNMOT-061": {"HOTA": 0.4, "CLR_TP": 50},
	}
	PrintResults(log, combined, bySequence, 100, "Tracking results", true)
	PrintResults(log, combined, nil, 100, "Tracking results", true)
	PrintResults(log, combined, bySequence, 100, "Tracking results", false)
}

func TestSortedKeys(t *testing.T) {
	m := map[string]float64{"b": 1, "a": 2, "c": 3}
	require.Equal(t, []string{"a", "b", "c"}, sortedKeys(m))
}
