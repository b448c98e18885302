package eval

// Results is the scoring engine's output, reduced to the two groups this
// layer consumes: the aggregate summaries, and per-sequence scores.
type Results struct {
	Summaries  map[string]float64            // Metric name -> aggregate value
	BySequence map[string]map[string]float64 // Sequence name -> metric name -> value
}

// Engine is the external benchmark-scoring system. It exposes a default
// dataset configuration per benchmark, a catalog of named metrics, and a
// single blocking evaluation call. There is no cancellation or timeout
// contract at this layer; callers wanting bounded execution wrap the call.
type Engine interface {
	// DefaultDatasetConfig returns the engine's default dataset description
	// for the named benchmark. The orchestrator overrides keys on top of it.
	DefaultDatasetConfig(benchmark string) map[string]any

	// HasMetric reports whether the engine's catalog contains the named metric.
	HasMetric(name string) bool

	// Evaluate runs the engine once over the dataset with the given metrics.
	Evaluate(dataset map[string]any, metrics []string) (*Results, error)
}
