package encode

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trackbench/pkg/track"
)

// Package encode converts the canonical record model into the on-disk
// formats that the benchmark scoring engines consume. Each benchmark has
// its own encoder, registered under the dataset name that the scoring
// engine knows it by.

// Benchmark dataset names, as the scoring engine knows them.
const (
	FormatMOTChallenge = "MotChallenge2DBox"
	FormatGameState    = "SoccerNetGS"
)

var ErrUnknownFormat = errors.New("unknown output format")

// SaveOptions control a single Save call.
type SaveOptions struct {
	BboxColumn    string // Named bbox view to write (default track.ColumnBboxLTWH)
	SaveClasses   bool   // MOT Challenge: write category ids in the class column instead of the -1 placeholder
	IsGroundTruth bool   // Saving ground truth rather than predictions
	Zip           bool   // Game State: also append each sequence file to the shared archive
	ShowProgress  bool   // Show a progress bar while writing sequences
}

// Encoder writes one complete tracking run (detections + frame and sequence
// metadata) to saveDir, one file per sequence.
type Encoder interface {
	Name() string
	Save(log logs.Log, detections track.DetectionList, frames track.FrameTable, sequences track.SequenceTable, saveDir string, opts SaveOptions) error
}

var registry = map[string]Encoder{}

// Register adds an encoder to the format registry. Call from init().
func Register(e Encoder) {
	registry[e.Name()] = e
}

// Lookup selects an encoder by benchmark name.
func Lookup(name string) (Encoder, error) {
	if e, ok := registry[name]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Formats returns the registered benchmark names, sorted.
func Formats() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(&MOTChallengeEncoder{})
	Register(&GameStateEncoder{})
}
