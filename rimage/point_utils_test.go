package rimage

import (
	"image"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func TestPointDistance(t *testing.T) {
	test.That(t, PointDistance(image.Point{0, 3}, image.Point{4, 0}), test.ShouldEqual, 5.0)
}

func TestPointConversions(t *testing.T) {
	test.That(t, R2ToImage(r2.Point{X: 2.5, Y: -0.4}), test.ShouldResemble, image.Point{3, 0})
	test.That(t, ImageToR2(image.Point{7, 9}), test.ShouldResemble, r2.Point{X: 7, Y: 9})

	bounds := image.Rect(0, 0, 640, 480)
	test.That(t, ClampToBounds(image.Point{-5, 500}, bounds), test.ShouldResemble, image.Point{0, 479})
	test.That(t, ClampToBounds(image.Point{10, 20}, bounds), test.ShouldResemble, image.Point{10, 20})
}
