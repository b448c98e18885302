package report

import (
	"bytes"
	"math"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cyclopcam/logs"
)

// Package report flattens the scoring engine's output into human-readable
// tables and records the aggregate summaries through a Sink.

// Sink records the aggregate metric summaries of an evaluation run
// (experiment trackers, dashboards, ...).
type Sink interface {
	LogSummary(summary map[string]float64)
}

// LogSink records summaries through the logger.
type LogSink struct {
	Log logs.Log
}

func (s *LogSink) LogSummary(summary map[string]float64) {
	names := sortedKeys(summary)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+strconv.FormatFloat(summary[name], 'g', -1, 64))
	}
	s.Log.Infof("Evaluation summary: %v", strings.Join(parts, " "))
}

// FormatMetric renders one metric value for display.
// Metrics whose names contain TP, FN, FP or TN are raw counts and render as
// integers. MOTP matches that test textually but is a fractional accuracy
// score, so it is scaled like every other metric: multiplied by scaleFactor
// and rounded to 3 decimal places.
func FormatMetric(name string, value float64, scaleFactor float64) string {
	isCount := strings.Contains(name, "TP") ||
		strings.Contains(name, "FN") ||
		strings.Contains(name, "FP") ||
		strings.Contains(name, "TN")
	if isCount && name != "MOTP" {
		return strconv.Itoa(int(value))
	}
	scaled := math.Round(value*scaleFactor*1000) / 1000
	return strconv.FormatFloat(scaled, 'f', -1, 64)
}

// PrintResults logs the aggregate results as one plain table, and optionally
// a second table with one row per sequence. Metric columns are ordered by
// name so the output is stable.
func PrintResults(log logs.Log, combined map[string]float64, bySequence map[string]map[string]float64, scaleFactor float64, title string, printBySequence bool) {
	headers := sortedKeys(combined)

	buf := &bytes.Buffer{}
	w := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	writeRow(w, headers)
	row := make([]string, len(headers))
	for i, name := range headers {
		row[i] = FormatMetric(name, combined[name], scaleFactor)
	}
	writeRow(w, row)
	w.Flush()
	log.Infof("%v\n%v", title, buf.String())

	if !printBySequence || len(bySequence) == 0 {
		return
	}
	buf = &bytes.Buffer{}
	w = tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	writeRow(w, append([]string{"video"}, headers...))
	for _, video := range sortedKeys(bySequence) {
		res := bySequence[video]
		row := []string{video}
		for _, name := range headers {
			row = append(row, FormatMetric(name, res[name], scaleFactor))
		}
		writeRow(w, row)
	}
	w.Flush()
	log.Infof("%v by videos\n%v", title, buf.String())
}

func writeRow(w *tabwriter.Writer, cells []string) {
	w.Write([]byte(strings.Join(cells, "\t") + "\n"))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
