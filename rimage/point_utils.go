package rimage

import (
	"image"
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/bodypaint/utils"
)

// NoPoints is returned by functions that could not find a point.
var NoPoints = image.Point{-1, -1}

// PointDistance returns the euclidean distance between two pixels.
func PointDistance(a, b image.Point) float64 {
	x := utils.SquareInt(b.X - a.X)
	x += utils.SquareInt(b.Y - a.Y)
	return math.Sqrt(float64(x))
}

// R2ToImage rounds a sub-pixel position to the nearest pixel.
func R2ToImage(p r2.Point) image.Point {
	return image.Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

// ImageToR2 converts a pixel to a sub-pixel position.
func ImageToR2(p image.Point) r2.Point {
	return r2.Point{X: float64(p.X), Y: float64(p.Y)}
}

// ClampToBounds moves p to the closest pixel inside bounds. Empty bounds return p unchanged.
func ClampToBounds(p image.Point, bounds image.Rectangle) image.Point {
	if bounds.Empty() {
		return p
	}
	return image.Point{
		X: utils.ClampInt(p.X, bounds.Min.X, bounds.Max.X-1),
		Y: utils.ClampInt(p.Y, bounds.Min.Y, bounds.Max.Y-1),
	}
}
