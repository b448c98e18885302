package eval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trackbench/pkg/encode"
)

// TrackEval runs the TrackEval benchmark scripts
// (https://github.com/JonathonLuiten/TrackEval) as a subprocess.
// The dataset config and metric list go in as a JSON file; the script writes
// its combined results back as JSON.
type TrackEval struct {
	Python string // Interpreter, eg "python3"
	Script string // Runner script that feeds the config into trackeval

	log logs.Log
}

func NewTrackEval(log logs.Log, python, script string) *TrackEval {
	if python == "" {
		python = "python3"
	}
	return &TrackEval{
		Python: python,
		Script: script,
		log:    log,
	}
}

// Metric constructors that trackeval.metrics exposes.
var trackEvalMetrics = map[string]bool{
	"HOTA":     true,
	"CLEAR":    true,
	"Identity": true,
	"Count":    true,
	"VACE":     true,
	"JAndF":    true,
	"TrackMAP": true,
	"IDEucl":   true,
}

func (t *TrackEval) HasMetric(name string) bool {
	return trackEvalMetrics[name]
}

// DefaultDatasetConfig mirrors the engine's per-benchmark defaults for the
// keys the orchestrator overrides. Keys we don't set fall through to the
// script's own defaults.
func (t *TrackEval) DefaultDatasetConfig(benchmark string) map[string]any {
	switch benchmark {
	case encode.FormatMOTChallenge:
		return map[string]any{
			"BENCHMARK":          "MOT17",
			"SPLIT_TO_EVAL":      "train",
			"CLASSES_TO_EVAL":    []string{"pedestrian"},
			"DO_PREPROC":         true,
			"PRINT_CONFIG":       false,
			"SKIP_SPLIT_FOL":     true,
			"TRACKER_SUB_FOLDER": "",
		}
	case encode.FormatGameState:
		return map[string]any{
			"BENCHMARK":          "SoccerNetGS",
			"SPLIT_TO_EVAL":      "test",
			"PRINT_CONFIG":       false,
			"TRACKER_SUB_FOLDER": "",
		}
	default:
		return map[string]any{}
	}
}

// trackEvalRequest is the JSON document handed to the runner script.
type trackEvalRequest struct {
	Dataset   map[string]any `json:"dataset"`
	Metrics   []string       `json:"metrics"`
	Threshold float64        `json:"threshold"`
	Output    string         `json:"output"`
}

// trackEvalResponse is the JSON document the runner script writes back.
type trackEvalResponse struct {
	Summaries  map[string]float64            `json:"summaries"`
	BySequence map[string]map[string]float64 `json:"by_sequence"`
}

func (t *TrackEval) Evaluate(dataset map[string]any, metrics []string) (*Results, error) {
	workDir, err := os.MkdirTemp("", "trackeval-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(workDir)

	outputPath := filepath.Join(workDir, "results.json")
	request := trackEvalRequest{
		Dataset:   dataset,
		Metrics:   metrics,
		Threshold: 0.5,
		Output:    outputPath,
	}
	body, err := json.Marshal(&request)
	if err != nil {
		return nil, err
	}
	configPath := filepath.Join(workDir, "config.json")
	if err := os.WriteFile(configPath, body, 0660); err != nil {
		return nil, err
	}

	cmd := exec.Command(t.Python, t.Script, "--config", configPath)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	if t.log != nil {
		t.log.Infof("Running %v %v", t.Python, t.Script)
	}
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("TrackEval failed: %w: %v", err, stderr.String())
	}

	raw, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("TrackEval produced no results: %w", err)
	}
	response := trackEvalResponse{}
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, fmt.Errorf("Failed to parse TrackEval results: %w", err)
	}
	return &Results{
		Summaries:  response.Summaries,
		BySequence: response.BySequence,
	}, nil
}
