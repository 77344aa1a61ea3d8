// Package rimage holds the image primitives the painting pipeline is built from: colors, depth and
// label maps, binary masks, warping, morphology, contours, blending and drawing.
package rimage

import (
	"image"
	"image/color"
	"math"

	"go.viam.com/bodypaint/utils"
)

// Depth is the distance to a surface in millimeters. Zero means unknown.
type Depth uint16

// MaxDepth is the largest representable depth.
const MaxDepth = Depth(math.MaxUint16)

// DepthMap is a row-major grid of depths.
type DepthMap struct {
	width  int
	height int

	data []Depth
}

// NewEmptyDepthMap returns a zeroed depth map.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]Depth, width*height),
	}
}

// Width returns the horizontal size of the map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the vertical size of the map.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Bounds returns the rectangle covered by the map.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// Contains reports whether (x, y) lies inside the map.
func (dm *DepthMap) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < dm.width && y < dm.height
}

func (dm *DepthMap) kxy(x, y int) int {
	return (y * dm.width) + x
}

// Get returns the depth at p.
func (dm *DepthMap) Get(p image.Point) Depth {
	return dm.data[dm.kxy(p.X, p.Y)]
}

// GetDepth returns the depth at (x, y).
func (dm *DepthMap) GetDepth(x, y int) Depth {
	return dm.data[dm.kxy(x, y)]
}

// Set sets the depth at (x, y).
func (dm *DepthMap) Set(x, y int, val Depth) {
	dm.data[dm.kxy(x, y)] = val
}

// Clone returns a deep copy.
func (dm *DepthMap) Clone() *DepthMap {
	out := &DepthMap{width: dm.width, height: dm.height, data: make([]Depth, len(dm.data))}
	copy(out.data, dm.data)
	return out
}

// MinMax returns the smallest and largest non-zero depth. Both are zero for an empty map.
func (dm *DepthMap) MinMax() (Depth, Depth) {
	min := MaxDepth
	max := Depth(0)

	for _, z := range dm.data {
		if z == 0 {
			continue
		}
		if z < min {
			min = z
		}
		if z > max {
			max = z
		}
	}
	if max == 0 {
		return 0, 0
	}
	return min, max
}

// ToPrettyPicture colors every known depth by hue, near is orange and far is blue.
// Unknown depth is black.
func (dm *DepthMap) ToPrettyPicture(hardMin, hardMax Depth) *image.NRGBA {
	lo, hi := dm.MinMax()
	lo = max(lo, hardMin)
	hi = min(hi, hardMax)

	img := image.NewNRGBA(dm.Bounds())
	span := math.Max(float64(hi)-float64(lo), 1)

	utils.ParallelForEachPixel(image.Point{dm.width, dm.height}, func(x, y int) {
		z := dm.GetDepth(x, y)
		if z == 0 {
			img.SetNRGBA(x, y, color.NRGBA{A: 255})
			return
		}
		z = min(max(z, lo), hi)
		ratio := (float64(z) - float64(lo)) / span
		hue := 30 + (200.0 * ratio)
		img.SetNRGBA(x, y, NewColorFromHSV(hue, 1.0, 1.0).NRGBA())
	})

	return img
}
