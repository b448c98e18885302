package encode

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/trackbench/pkg/track"
	"github.com/schollz/progressbar/v3"
)

// GameStateEncoder writes the SoccerNet Game State format: one JSON document
// per sequence containing a single "predictions" array with three categorized
// entity groups: tracked objects, per-frame camera calibration, and per-frame
// pitch line annotations.
type GameStateEncoder struct {
}

func (e *GameStateEncoder) Name() string {
	return FormatGameState
}

// Category codes of the per-frame metadata entries.
const (
	gameStateCategoryPitch  = 5
	gameStateCategoryCamera = 6
)

// gameStateBox is the named-mapping form of an image-space box.
type gameStateBox struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	W float32 `json:"w"`
	H float32 `json:"h"`
}

// gameStateRecord is one entry of the predictions array. Absent values are
// omitted from the JSON entirely, not emitted as null.
type gameStateRecord struct {
	ID            string                        `json:"id"`
	ImageID       string                        `json:"image_id"`
	VideoID       string                        `json:"video_id"`
	Supercategory string                        `json:"supercategory"`
	CategoryID    *int                          `json:"category_id,omitempty"`
	TrackID       *int64                        `json:"track_id,omitempty"`
	Attributes    *map[string]any               `json:"attributes,omitempty"`
	BboxImage     *gameStateBox                 `json:"bbox_image,omitempty"`
	BboxPitch     *[4]float32                   `json:"bbox_pitch,omitempty"`
	Parameters    map[string]any                `json:"parameters,omitempty"`
	RelMeanReproj *float64                      `json:"relative_mean_reproj,omitempty"`
	AccuracyAt5   *float64                      `json:"accuracy@5,omitempty"`
	Lines         map[string][]track.PitchPoint `json:"lines,omitempty"`
}

// gameStateEntry pairs a record with the numeric sequence key used for
// per-sequence filtering (the record itself carries video_id as a string).
type gameStateEntry struct {
	video int64
	rec   gameStateRecord
}

func (e *GameStateEncoder) Save(log logs.Log, detections track.DetectionList, frames track.FrameTable, sequences track.SequenceTable, saveDir string, opts SaveOptions) error {
	if opts.IsGroundTruth {
		// Reference labels already exist at {gt_folder}/{seq}/Labels-GameState.json.
		return nil
	}
	if err := os.MkdirAll(saveDir, 0770); err != nil {
		return err
	}

	predictions := encodeObjects(log, detections, frames)
	predictions = append(predictions, encodeCameras(frames)...)
	predictions = append(predictions, encodePitches(frames)...)

	// The shared archive sits next to the predictions root's parent and is
	// named after it.
	parent := filepath.Dir(saveDir)
	zipPath := filepath.Join(filepath.Dir(parent), filepath.Base(parent)+".zip")

	seqIDs := sequences.SortedIDs()
	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.Default(int64(len(seqIDs)), "Writing sequences")
	}
	for _, id := range seqIDs {
		seq := sequences[id]
		records := []gameStateRecord{}
		for _, entry := range predictions {
			if entry.video == id {
				records = append(records, entry.rec)
			}
		}
		if len(records) == 0 {
			if bar != nil {
				bar.Add(1)
			}
			continue
		}
		sort.SliceStable(records, func(i, j int) bool { return records[i].ID < records[j].ID })

		fileName := seq.Name + ".json"
		filePath := filepath.Join(saveDir, fileName)
		doc := map[string]any{"predictions": records}
		body, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filePath, body, 0660); err != nil {
			return err
		}
		if opts.Zip {
			arcname := filepath.Base(saveDir) + "/" + fileName
			if err := appendToArchive(zipPath, filePath, arcname); err != nil {
				return err
			}
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	return nil
}

// encodeObjects converts detections to "object" records. Detections lacking
// a track id, an image box, or a pitch box are dropped so that they don't
// register as false positives downstream. The owning sequence comes from the
// frame table; detections whose frame is unknown are dropped too.
func encodeObjects(log logs.Log, detections track.DetectionList, frames track.FrameTable) []gameStateEntry {
	entries := []gameStateEntry{}
	dropped := 0
	for _, d := range detections {
		frame, ok := frames[d.ImageID]
		if !ok {
			continue
		}
		if d.TrackID == nil || d.BboxImage == nil || d.BboxPitch == nil {
			dropped++
			continue
		}
		// The attributes sub-mapping is always present for objects, even
		// when every attribute is unknown.
		attributes := map[string]any{}
		if d.Role != "" {
			attributes["role"] = d.Role
		}
		if d.Jersey != nil {
			attributes["jersey"] = *d.Jersey
		}
		if d.Team != "" {
			attributes["team"] = d.Team
		}
		pitch := d.BboxPitch.LTWH()
		entries = append(entries, gameStateEntry{
			video: frame.VideoID,
			rec: gameStateRecord{
				ID:            strconv.FormatInt(d.ID, 10),
				ImageID:       strconv.FormatInt(d.ImageID, 10),
				VideoID:       strconv.FormatInt(frame.VideoID, 10),
				Supercategory: "object",
				CategoryID:    d.CategoryID,
				TrackID:       d.TrackID,
				Attributes:    &attributes,
				BboxImage: &gameStateBox{
					X: d.BboxImage.Left,
					Y: d.BboxImage.Top,
					W: d.BboxImage.Width,
					H: d.BboxImage.Height,
				},
				BboxPitch: &pitch,
			},
		})
	}
	if dropped > 0 {
		log.Warnf("Dropped %v detections with missing track or bbox values", dropped)
	}
	return entries
}

func encodeCameras(frames track.FrameTable) []gameStateEntry {
	entries := []gameStateEntry{}
	category := gameStateCategoryCamera
	for _, id := range frames.SortedIDs() {
		f := frames[id]
		entries = append(entries, gameStateEntry{
			video: f.VideoID,
			rec: gameStateRecord{
				ID:            strconv.FormatInt(id, 10) + "01",
				ImageID:       strconv.FormatInt(id, 10),
				VideoID:       strconv.FormatInt(f.VideoID, 10),
				Supercategory: "camera",
				CategoryID:    &category,
				Parameters:    f.Parameters,
				RelMeanReproj: f.RelativeMeanReproj,
				AccuracyAt5:   f.AccuracyAt5,
			},
		})
	}
	return entries
}

func encodePitches(frames track.FrameTable) []gameStateEntry {
	entries := []gameStateEntry{}
	category := gameStateCategoryPitch
	for _, id := range frames.SortedIDs() {
		f := frames[id]
		entries = append(entries, gameStateEntry{
			video: f.VideoID,
			rec: gameStateRecord{
				ID:            strconv.FormatInt(id, 10) + "00",
				ImageID:       strconv.FormatInt(id, 10),
				VideoID:       strconv.FormatInt(f.VideoID, 10),
				Supercategory: "pitch",
				CategoryID:    &category,
				Lines:         f.Lines,
			},
		})
	}
	return entries
}
