package paint

import (
	"image"
	"testing"

	"go.viam.com/test"

	"go.viam.com/bodypaint/rimage"
)

func TestCanvasAccumulateSaturates(t *testing.T) {
	c := NewCanvas(4, 2)
	test.That(t, c.IsZero(), test.ShouldBeTrue)
	test.That(t, c.Size(), test.ShouldResemble, image.Point{4, 2})

	stamp := rimage.SolidImage(4, 2, rimage.NewColor(200, 100, 0))
	prev := c.Clone()
	for i := 0; i < 40; i++ {
		c.Accumulate(stamp, 0.05)
		r, g, b := c.At(1, 1)
		pr, pg, pb := prev.At(1, 1)
		test.That(t, r, test.ShouldBeGreaterThanOrEqualTo, pr)
		test.That(t, g, test.ShouldBeGreaterThanOrEqualTo, pg)
		test.That(t, b, test.ShouldEqual, pb)
		test.That(t, r, test.ShouldBeLessThanOrEqualTo, 255)
		prev = c.Clone()
	}
	r, g, b := c.At(3, 1)
	test.That(t, r, test.ShouldEqual, float32(255))
	test.That(t, g, test.ShouldAlmostEqual, 200, 0.01)
	test.That(t, b, test.ShouldEqual, float32(0))

	img := c.Image()
	test.That(t, img.NRGBAAt(0, 0).R, test.ShouldEqual, uint8(255))
	test.That(t, img.NRGBAAt(0, 0).G, test.ShouldEqual, uint8(200))
	test.That(t, img.NRGBAAt(0, 0).A, test.ShouldEqual, uint8(255))

	c.Clear()
	test.That(t, c.IsZero(), test.ShouldBeTrue)
	test.That(t, c.Equal(NewCanvas(4, 2)), test.ShouldBeTrue)
	test.That(t, c.Equal(NewCanvas(2, 4)), test.ShouldBeFalse)
}

func TestCanvasSmallStampsAddUp(t *testing.T) {
	c := NewCanvas(1, 1)
	stamp := rimage.SolidImage(1, 1, rimage.NewColor(10, 0, 0))
	for i := 0; i < 10; i++ {
		c.Accumulate(stamp, 0.05)
	}
	r, _, _ := c.At(0, 0)
	test.That(t, r, test.ShouldAlmostEqual, 5, 1e-4)
}
