package eval

import (
	"fmt"
	"path/filepath"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trackbench/pkg/encode"
	"github.com/cyclopcam/trackbench/pkg/report"
	"github.com/cyclopcam/trackbench/pkg/track"
)

// Package eval orchestrates one evaluation run: write predictions (and
// optionally ground truth) in the configured benchmark format, build the
// dataset description the scoring engine expects, invoke it, and reduce the
// results into a report.

// GroundTruthMode selects where the scoring engine finds ground truth.
type GroundTruthMode int

const (
	// GroundTruthWrite re-encodes our ground-truth detections under the GT folder.
	GroundTruthWrite GroundTruthMode = iota
	// GroundTruthReference points the engine at pre-existing reference labels
	// under the dataset path ({gt_folder}/{seq}/Labels-GameState.json).
	GroundTruthReference
)

// Naming of the reference ground-truth documents, relative to the dataset path.
const gtLocFormat = "{gt_folder}/{seq}/Labels-GameState.json"

type Config struct {
	Format      string   // Benchmark name (encode.FormatMOTChallenge or encode.FormatGameState)
	EvalSet     string   // Dataset split, eg "train", "valid", "test"
	Metrics     []string // Metric names to resolve against the engine's catalog
	BboxColumn  string   // Which bbox view to evaluate (default track.ColumnBboxLTWH)
	GroundTruth GroundTruthMode

	TrackersFolder string         // Root for written predictions
	GTFolder       string         // Root for written ground truth (GroundTruthWrite)
	DatasetPath    string         // Root of pre-existing reference labels (GroundTruthReference)
	Dataset        map[string]any // Extra dataset-config overrides, applied last

	TrackerName     string  // Subdirectory the engine evaluates. Default "tracklab".
	ScaleFactor     float64 // Metric display scale. Default 100.
	SkipZip         bool    // Don't build the shared archive for Game State output
	ShowProgress    bool
	PrintBySequence bool
}

const defaultTrackerName = "tracklab"

// PredictionsDir is the directory Run writes encoder output to:
// <trackers>/<format>-<split>/<tracker>. Export paths that skip Run must
// write here too, or the engine won't find the predictions.
func (c *Config) PredictionsDir() string {
	tracker := c.TrackerName
	if tracker == "" {
		tracker = defaultTrackerName
	}
	return filepath.Join(c.TrackersFolder, fmt.Sprintf("%v-%v", c.Format, c.EvalSet), tracker)
}

// TrackerState is the bundle an upstream tracker hands to the evaluator.
type TrackerState struct {
	Predictions track.DetectionList
	GroundTruth track.DetectionList // May be empty; evaluation is then skipped
	Frames      track.FrameTable
	Sequences   track.SequenceTable
}

type Evaluator struct {
	log    logs.Log
	cfg    *Config
	engine Engine
	sink   report.Sink
}

func NewEvaluator(log logs.Log, cfg *Config, engine Engine, sink report.Sink) *Evaluator {
	if cfg.TrackerName == "" {
		cfg.TrackerName = defaultTrackerName
	}
	if cfg.ScaleFactor == 0 {
		cfg.ScaleFactor = 100
	}
	if cfg.BboxColumn == "" {
		cfg.BboxColumn = track.ColumnBboxLTWH
	}
	if sink == nil {
		sink = &report.LogSink{Log: log}
	}
	return &Evaluator{
		log:    log,
		cfg:    cfg,
		engine: engine,
		sink:   sink,
	}
}

// Run executes one complete evaluation. When the split has no ground truth,
// predictions are still written, but Run warns and returns (nil, nil)
// without invoking the engine.
func (e *Evaluator) Run(state *TrackerState) (*Results, error) {
	cfg := e.cfg
	enc, err := encode.Lookup(cfg.Format)
	if err != nil {
		return nil, err
	}
	// MOT Challenge has no class column; every other benchmark keeps classes.
	saveClasses := cfg.Format != encode.FormatMOTChallenge

	predDir := cfg.PredictionsDir()
	opts := encode.SaveOptions{
		BboxColumn:   cfg.BboxColumn,
		SaveClasses:  saveClasses,
		Zip:          cfg.Format == encode.FormatGameState && !cfg.SkipZip,
		ShowProgress: cfg.ShowProgress,
	}
	if err := enc.Save(e.log, state.Predictions, state.Frames, state.Sequences, predDir, opts); err != nil {
		return nil, fmt.Errorf("Failed to save predictions: %w", err)
	}
	e.log.Infof("Tracking predictions saved in %v format in %v", cfg.Format, predDir)

	if len(state.GroundTruth) == 0 {
		e.log.Warnf("Stopping evaluation because the current split (%v) has no ground truth detections", cfg.EvalSet)
		return nil, nil
	}

	if cfg.GroundTruth == GroundTruthWrite {
		// Both encoders expect ground truth through the benchmark's own
		// directory layout and write nothing here; the engine reads it from
		// GT_FOLDER regardless.
		gtDir := filepath.Join(cfg.GTFolder, fmt.Sprintf("%v-%v", cfg.Format, cfg.EvalSet))
		gtOpts := opts
		gtOpts.IsGroundTruth = true
		if err := enc.Save(e.log, state.GroundTruth, state.Frames, state.Sequences, gtDir, gtOpts); err != nil {
			return nil, fmt.Errorf("Failed to save ground truth: %w", err)
		}
	}

	dataset := e.engine.DefaultDatasetConfig(cfg.Format)
	if dataset == nil {
		dataset = map[string]any{}
	}
	dataset["SEQ_INFO"] = state.Sequences.SeqInfo()
	dataset["BENCHMARK"] = cfg.Format
	dataset["TRACKERS_FOLDER"] = cfg.TrackersFolder
	dataset["GT_FOLDER"] = cfg.GTFolder
	dataset["TRACKERS_TO_EVAL"] = []string{cfg.TrackerName}
	dataset["SPLIT_TO_EVAL"] = cfg.EvalSet
	for key, value := range cfg.Dataset {
		dataset[key] = value
	}
	if cfg.GroundTruth == GroundTruthReference {
		dataset["GT_FOLDER"] = cfg.DatasetPath
		dataset["GT_LOC_FORMAT"] = gtLocFormat
	}

	metrics := []string{}
	for _, name := range cfg.Metrics {
		if e.engine.HasMetric(name) {
			metrics = append(metrics, name)
		} else {
			e.log.Warnf("Skipping evaluation for unknown metric: %v", name)
		}
	}

	results, err := e.engine.Evaluate(dataset, metrics)
	if err != nil {
		return nil, fmt.Errorf("Evaluation failed: %w", err)
	}

	e.sink.LogSummary(results.Summaries)
	title := fmt.Sprintf("Tracking results (%v, %v)", cfg.Format, cfg.EvalSet)
	report.PrintResults(e.log, results.Summaries, results.BySequence, cfg.ScaleFactor, title, cfg.PrintBySequence)
	return results, nil
}
