package track

import (
	"errors"
	"fmt"
)

// Package track is the canonical record model for tracking results.
// Upstream detectors/trackers produce these records; the encode and eval
// packages consume them read-only.

// Named bbox columns that BoxColumn can resolve.
const (
	ColumnBboxLTWH  = "bbox_ltwh"
	ColumnBboxLTRB  = "bbox_ltrb"
	ColumnBboxCMWH  = "bbox_cmwh"
	ColumnBboxPitch = "bbox_pitch"
)

var ErrUnknownColumn = errors.New("unknown detection column")

// Detection is one observed object instance in one frame.
// Optional attributes are nil when upstream never produced them. In
// particular TrackID is nil until the tracker associates the detection with
// a persistent identity.
type Detection struct {
	ID         int64      // Unique within a run
	ImageID    int64      // Frame reference (FrameMetadata.ID)
	TrackID    *int64     // Persistent identity across frames
	PersonID   *int64     // Global person identity
	CategoryID *int       // Object class
	BboxImage  *Box       // Image-space box (ltwh)
	BboxPitch  *Box       // Pitch-space box (ltwh)
	BboxConf   *float32   // Detection confidence
	Keypoints  []Keypoint // Image-space keypoints
	Role       string     // eg "player", "goalkeeper", "referee". Empty = unknown.
	Team       string     // eg "left", "right". Empty = unknown.
	Jersey     *int       // Jersey number
}

// DetectionList is an ordered collection of detections.
// The derived views on DetectionList are the canonical implementations; the
// corresponding single-record accessors on Detection promote the record to a
// one-element list and return element 0, so the two always agree.
type DetectionList []*Detection

// BboxLTRB returns every image-space box in (left, top, right, bottom) form.
// Entries without a box are nil.
func (l DetectionList) BboxLTRB() []*[4]float32 {
	out := make([]*[4]float32, len(l))
	for i, d := range l {
		if d.BboxImage != nil {
			v := d.BboxImage.LTRB()
			out[i] = &v
		}
	}
	return out
}

// BboxCMWH returns every image-space box in (center-x, center-y, width, height)
// form. Entries without a box are nil.
func (l DetectionList) BboxCMWH() []*[4]float32 {
	out := make([]*[4]float32, len(l))
	for i, d := range l {
		if d.BboxImage != nil {
			v := d.BboxImage.CMWH()
			out[i] = &v
		}
	}
	return out
}

// KeypointsBbox returns every detection's keypoints in box-local coordinates.
// A row without a box yields nil, regardless of its keypoints.
func (l DetectionList) KeypointsBbox() [][]Keypoint {
	out := make([][]Keypoint, len(l))
	for i, d := range l {
		if d.BboxImage == nil || d.Keypoints == nil {
			continue
		}
		kps := make([]Keypoint, len(d.Keypoints))
		for j, k := range d.Keypoints {
			kps[j] = k.InBbox(*d.BboxImage)
		}
		out[i] = kps
	}
	return out
}

// BoxColumn resolves a named bbox view for every detection.
// Entries whose source box is absent are nil.
func (l DetectionList) BoxColumn(name string) ([]*[4]float32, error) {
	switch name {
	case ColumnBboxLTWH:
		out := make([]*[4]float32, len(l))
		for i, d := range l {
			if d.BboxImage != nil {
				v := d.BboxImage.LTWH()
				out[i] = &v
			}
		}
		return out, nil
	case ColumnBboxLTRB:
		return l.BboxLTRB(), nil
	case ColumnBboxCMWH:
		return l.BboxCMWH(), nil
	case ColumnBboxPitch:
		out := make([]*[4]float32, len(l))
		for i, d := range l {
			if d.BboxPitch != nil {
				v := d.BboxPitch.LTWH()
				out[i] = &v
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
}

// Single-record accessors. These delegate to a one-element DetectionList so
// that a record and a one-row collection can never disagree.

func (d *Detection) BboxLTRB() *[4]float32 {
	return DetectionList{d}.BboxLTRB()[0]
}

func (d *Detection) BboxCMWH() *[4]float32 {
	return DetectionList{d}.BboxCMWH()[0]
}

func (d *Detection) KeypointsBbox() []Keypoint {
	return DetectionList{d}.KeypointsBbox()[0]
}

func (d *Detection) BoxColumn(name string) (*[4]float32, error) {
	boxes, err := DetectionList{d}.BoxColumn(name)
	if err != nil {
		return nil, err
	}
	return boxes[0], nil
}
