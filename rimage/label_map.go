package rimage

import (
	"image"
)

// LabelMap is a row-major grid of small integer labels, such as the sensor's player index.
type LabelMap struct {
	width  int
	height int

	data []uint8
}

// NewLabelMap returns a label map where every pixel is 0.
func NewLabelMap(width, height int) *LabelMap {
	return &LabelMap{width: width, height: height, data: make([]uint8, width*height)}
}

// Width returns the horizontal size of the map.
func (lm *LabelMap) Width() int {
	return lm.width
}

// Height returns the vertical size of the map.
func (lm *LabelMap) Height() int {
	return lm.height
}

// Get returns the label at (x, y).
func (lm *LabelMap) Get(x, y int) uint8 {
	return lm.data[y*lm.width+x]
}

// Set sets the label at (x, y).
func (lm *LabelMap) Set(x, y int, label uint8) {
	lm.data[y*lm.width+x] = label
}

// Mask returns a binary mask that is on wherever the label equals label.
func (lm *LabelMap) Mask(label uint8) *image.Gray {
	mask := NewMask(lm.width, lm.height)
	for i, l := range lm.data {
		if l == label {
			mask.Pix[i] = MaskOn
		}
	}
	return mask
}

// AnyMask returns a binary mask that is on wherever the label is non-zero.
func (lm *LabelMap) AnyMask() *image.Gray {
	mask := NewMask(lm.width, lm.height)
	for i, l := range lm.data {
		if l != 0 {
			mask.Pix[i] = MaskOn
		}
	}
	return mask
}
