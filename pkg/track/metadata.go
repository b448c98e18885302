package track

import (
	"sort"
)

// PitchPoint is one vertex of a pitch line annotation, in image coordinates.
type PitchPoint struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// FrameMetadata is one entry per video frame.
// Camera calibration and pitch-line fields are nil/empty when the upstream
// pipeline did not produce them for this frame.
type FrameMetadata struct {
	ID      int64 // Frame key (Detection.ImageID points here)
	Frame   int   // Frame index within the sequence
	VideoID int64 // Owning sequence (SequenceMetadata.ID)

	Parameters         map[string]any          // Camera calibration parameters
	RelativeMeanReproj *float64                // Reprojection accuracy
	AccuracyAt5        *float64                // Fraction of points reprojected within 5px
	Lines              map[string][]PitchPoint // Pitch markings, keyed by line name
}

// SequenceMetadata is one entry per video.
type SequenceMetadata struct {
	ID      int64
	Name    string // Human identifier, used for output file naming
	NFrames int
}

// FrameTable indexes frame metadata by frame key.
type FrameTable map[int64]*FrameMetadata

// SequenceTable indexes sequence metadata by sequence key.
type SequenceTable map[int64]*SequenceMetadata

// SortedIDs returns the frame keys in ascending order, for deterministic output.
func (t FrameTable) SortedIDs() []int64 {
	ids := make([]int64, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SortedIDs returns the sequence keys in ascending order, for deterministic output.
func (t SequenceTable) SortedIDs() []int64 {
	ids := make([]int64, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SeqInfo returns the sequence name -> frame count map that the scoring
// engine's dataset config expects.
func (t SequenceTable) SeqInfo() map[string]int {
	info := make(map[string]int, len(t))
	for _, seq := range t {
		info[seq.Name] = seq.NFrames
	}
	return info
}
