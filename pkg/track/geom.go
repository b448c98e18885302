package track

import (
	"github.com/chewxy/math32"
)

// Box is an axis-aligned bounding box in (left, top, width, height) form.
// This is the canonical storage format; LTRB() and CMWH() are derived views.
type Box struct {
	Left   float32 `json:"left"`
	Top    float32 `json:"top"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// LTWH returns the box as a (left, top, width, height) 4-tuple.
func (b Box) LTWH() [4]float32 {
	return [4]float32{b.Left, b.Top, b.Width, b.Height}
}

// LTRB returns the box as (left, top, right, bottom) = (l, t, l+w, t+h).
func (b Box) LTRB() [4]float32 {
	return [4]float32{b.Left, b.Top, b.Left + b.Width, b.Top + b.Height}
}

// CMWH returns the box as (center-x, center-y, width, height).
func (b Box) CMWH() [4]float32 {
	return [4]float32{b.Left + b.Width/2, b.Top + b.Height/2, b.Width, b.Height}
}

// BoxFromLTRB is the inverse of LTRB().
func BoxFromLTRB(left, top, right, bottom float32) Box {
	return Box{
		Left:   left,
		Top:    top,
		Width:  right - left,
		Height: bottom - top,
	}
}

// BoxFromCMWH is the inverse of CMWH().
func BoxFromCMWH(cx, cy, width, height float32) Box {
	return Box{
		Left:   cx - width/2,
		Top:    cy - height/2,
		Width:  width,
		Height: height,
	}
}

func (b Box) Area() float32 {
	return b.Width * b.Height
}

func (b Box) Intersection(o Box) Box {
	x1 := math32.Max(b.Left, o.Left)
	y1 := math32.Max(b.Top, o.Top)
	x2 := math32.Min(b.Left+b.Width, o.Left+o.Width)
	y2 := math32.Min(b.Top+b.Height, o.Top+o.Height)
	return Box{
		Left:   x1,
		Top:    y1,
		Width:  math32.Max(0, x2-x1),
		Height: math32.Max(0, y2-y1),
	}
}

func (b Box) Union(o Box) Box {
	x1 := math32.Min(b.Left, o.Left)
	y1 := math32.Min(b.Top, o.Top)
	x2 := math32.Max(b.Left+b.Width, o.Left+o.Width)
	y2 := math32.Max(b.Top+b.Height, o.Top+o.Height)
	return BoxFromLTRB(x1, y1, x2, y2)
}

// Intersection over Union
func (b Box) IOU(o Box) float32 {
	intersection := b.Intersection(o).Area()
	return intersection / (b.Area() + o.Area() - intersection)
}

func (b Box) Center() (float32, float32) {
	return b.Left + b.Width/2, b.Top + b.Height/2
}

// Keypoint is one body keypoint in (x, y, confidence) form, in image coordinates.
type Keypoint struct {
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
	Conf float32 `json:"conf"`
}

// InBbox re-expresses the keypoint in box-local coordinates (image coordinates
// minus the box origin). Confidence is unchanged.
func (k Keypoint) InBbox(b Box) Keypoint {
	return Keypoint{
		X:    k.X - b.Left,
		Y:    k.Y - b.Top,
		Conf: k.Conf,
	}
}
