package rimage

import (
	"image"
	"image/color"
	"testing"

	"github.com/fogleman/gg"
	"go.viam.com/test"
)

func TestDrawCircleFilled(t *testing.T) {
	img := SolidImage(40, 40, Black)
	out := DrawOnto(img, func(dc *gg.Context) {
		DrawCircleFilled(dc, image.Point{20, 20}, 8, Yellow)
	})
	test.That(t, out.NRGBAAt(20, 20), test.ShouldResemble, color.NRGBA{255, 255, 0, 255})
	test.That(t, out.NRGBAAt(2, 2), test.ShouldResemble, color.NRGBA{0, 0, 0, 255})
	// the source is not modified
	test.That(t, img.NRGBAAt(20, 20), test.ShouldResemble, color.NRGBA{0, 0, 0, 255})
}

func TestDrawString(t *testing.T) {
	test.That(t, Font(), test.ShouldNotBeNil)
	img := SolidImage(120, 30, Black)
	out := DrawOnto(img, func(dc *gg.Context) {
		DrawString(dc, "frame 1", image.Point{2, 2}, White, 16)
		DrawCircle(dc, image.Point{100, 15}, 5, Red, 1)
	})
	lit := 0
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] > 0 {
			lit++
		}
	}
	test.That(t, lit, test.ShouldBeGreaterThan, 0)
}
