package trackdb

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trackbench/pkg/eval"
	"github.com/cyclopcam/trackbench/pkg/track"
	"gorm.io/gorm"
)

// TrackDB stores one complete tracking run (predictions, ground truth, frame
// and sequence metadata) in a single sqlite file, so that upstream trackers
// can hand a run to the evaluator as one artifact.
type TrackDB struct {
	log logs.Log
	db  *gorm.DB
}

// Open or create a tracking-run DB
func NewTrackDB(logger logs.Log, dbFilename string) (*TrackDB, error) {
	if dir := filepath.Dir(dbFilename); dir != "." {
		if err := os.MkdirAll(dir, 0770); err != nil {
			return nil, fmt.Errorf("Failed to create storage path '%v': %w", dir, err)
		}
	}
	db, err := dbh.OpenDB(logger, dbh.MakeSqliteConfig(dbFilename), Migrations(logger), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open database %v: %w", dbFilename, err)
	}
	return &TrackDB{
		log: logger,
		db:  db,
	}, nil
}

// SaveTrackerState writes a complete run, replacing any previously stored run.
func (t *TrackDB) SaveTrackerState(state *eval.TrackerState) error {
	return t.db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"detection", "frame", "sequence"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}
		for _, id := range state.Sequences.SortedIDs() {
			seq := state.Sequences[id]
			row := &Sequence{
				BaseModel: BaseModel{ID: seq.ID},
				Name:      seq.Name,
				NFrames:   seq.NFrames,
			}
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		for _, id := range state.Frames.SortedIDs() {
			if err := tx.Create(metadataToFrame(state.Frames[id])).Error; err != nil {
				return err
			}
		}
		if err := t.createDetections(tx, state.Predictions, SourcePrediction); err != nil {
			return err
		}
		return t.createDetections(tx, state.GroundTruth, SourceGroundTruth)
	})
}

func (t *TrackDB) createDetections(tx *gorm.DB, detections track.DetectionList, source int) error {
	for _, rec := range detections {
		if err := tx.Create(recordToDetection(rec, source)).Error; err != nil {
			return err
		}
	}
	return nil
}

// LoadTrackerState reads the stored run back.
func (t *TrackDB) LoadTrackerState() (*eval.TrackerState, error) {
	state := &eval.TrackerState{
		Frames:    track.FrameTable{},
		Sequences: track.SequenceTable{},
	}

	sequences := []Sequence{}
	if err := t.db.Order("id").Find(&sequences).Error; err != nil {
		return nil, err
	}
	for _, s := range sequences {
		state.Sequences[s.ID] = &track.SequenceMetadata{
			ID:      s.ID,
			Name:    s.Name,
			NFrames: s.NFrames,
		}
	}

	frames := []Frame{}
	if err := t.db.Order("id").Find(&frames).Error; err != nil {
		return nil, err
	}
	for i := range frames {
		state.Frames[frames[i].ID] = frameToMetadata(&frames[i])
	}

	detections := []Detection{}
	if err := t.db.Order("id").Find(&detections).Error; err != nil {
		return nil, err
	}
	for i := range detections {
		d := &detections[i]
		switch d.Source {
		case SourcePrediction:
			state.Predictions = append(state.Predictions, detectionToRecord(d))
		case SourceGroundTruth:
			state.GroundTruth = append(state.GroundTruth, detectionToRecord(d))
		}
	}

	t.log.Infof("Loaded tracking run: %v predictions, %v ground truth, %v frames, %v sequences",
		len(state.Predictions), len(state.GroundTruth), len(state.Frames), len(state.Sequences))
	return state, nil
}
