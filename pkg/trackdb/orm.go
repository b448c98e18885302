package trackdb

import (
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/trackbench/pkg/track"
)

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// Where a stored detection came from.
const (
	SourcePrediction  = 0
	SourceGroundTruth = 1
)

// Detection is one stored detection row. Prediction and ground-truth rows
// share the table, distinguished by Source; DetID is the detection's id
// within its source (unique per source, not per table).
type Detection struct {
	BaseModel
	DetID      int64                        `gorm:"column:det_id" json:"detID"`
	Source     int                          `json:"source"`
	ImageID    int64                        `json:"imageID"`
	TrackID    *int64                       `json:"trackID"`
	PersonID   *int64                       `json:"personID"`
	CategoryID *int                         `json:"categoryID"`
	Conf       *float32                     `json:"conf"`
	Geometry   *dbh.JSONField[GeometryJSON] `json:"geometry"`
	Role       string                       `json:"role"`
	Team       string                       `json:"team"`
	Jersey     *int                         `json:"jersey"`
}

// GeometryJSON holds the variable-shape geometry of a detection in one JSON column.
type GeometryJSON struct {
	BboxImage *track.Box       `json:"bboxImage,omitempty"`
	BboxPitch *track.Box       `json:"bboxPitch,omitempty"`
	Keypoints []track.Keypoint `json:"keypoints,omitempty"`
}

// Frame is one stored frame-metadata row.
type Frame struct {
	BaseModel
	Frame   int                                           `json:"frame"`
	VideoID int64                                         `json:"videoID"`
	Camera  *dbh.JSONField[CameraJSON]                    `json:"camera"`
	Lines   *dbh.JSONField[map[string][]track.PitchPoint] `json:"lines"`
}

// CameraJSON holds a frame's camera calibration in one JSON column.
type CameraJSON struct {
	Parameters         map[string]any `json:"parameters,omitempty"`
	RelativeMeanReproj *float64       `json:"relativeMeanReproj,omitempty"`
	AccuracyAt5        *float64       `json:"accuracyAt5,omitempty"`
}

// Sequence is one stored sequence-metadata row.
type Sequence struct {
	BaseModel
	Name    string `json:"name"`
	NFrames int    `gorm:"column:nframes" json:"nframes"`
}

func detectionToRecord(d *Detection) *track.Detection {
	rec := &track.Detection{
		ID:         d.DetID,
		ImageID:    d.ImageID,
		TrackID:    d.TrackID,
		PersonID:   d.PersonID,
		CategoryID: d.CategoryID,
		BboxConf:   d.Conf,
		Role:       d.Role,
		Team:       d.Team,
		Jersey:     d.Jersey,
	}
	if d.Geometry != nil {
		geom := d.Geometry.Data
		rec.BboxImage = geom.BboxImage
		rec.BboxPitch = geom.BboxPitch
		rec.Keypoints = geom.Keypoints
	}
	return rec
}

func recordToDetection(rec *track.Detection, source int) *Detection {
	geom := GeometryJSON{
		BboxImage: rec.BboxImage,
		BboxPitch: rec.BboxPitch,
		Keypoints: rec.Keypoints,
	}
	return &Detection{
		DetID:      rec.ID,
		Source:     source,
		ImageID:    rec.ImageID,
		TrackID:    rec.TrackID,
		PersonID:   rec.PersonID,
		CategoryID: rec.CategoryID,
		Conf:       rec.BboxConf,
		Geometry:   dbh.MakeJSONField(geom),
		Role:       rec.Role,
		Team:       rec.Team,
		Jersey:     rec.Jersey,
	}
}

func frameToMetadata(f *Frame) *track.FrameMetadata {
	meta := &track.FrameMetadata{
		ID:      f.ID,
		Frame:   f.Frame,
		VideoID: f.VideoID,
	}
	if f.Camera != nil {
		camera := f.Camera.Data
		meta.Parameters = camera.Parameters
		meta.RelativeMeanReproj = camera.RelativeMeanReproj
		meta.AccuracyAt5 = camera.AccuracyAt5
	}
	if f.Lines != nil {
		meta.Lines = f.Lines.Data
	}
	return meta
}

func metadataToFrame(meta *track.FrameMetadata) *Frame {
	f := &Frame{
		BaseModel: BaseModel{ID: meta.ID},
		Frame:     meta.Frame,
		VideoID:   meta.VideoID,
	}
	if meta.Parameters != nil || meta.RelativeMeanReproj != nil || meta.AccuracyAt5 != nil {
		f.Camera = dbh.MakeJSONField(CameraJSON{
			Parameters:         meta.Parameters,
			RelativeMeanReproj: meta.RelativeMeanReproj,
			AccuracyAt5:        meta.AccuracyAt5,
		})
	}
	if meta.Lines != nil {
		f.Lines = dbh.MakeJSONField(meta.Lines)
	}
	return f
}
