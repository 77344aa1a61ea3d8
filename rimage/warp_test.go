package rimage

import (
	"image"
	"testing"

	"go.viam.com/test"

	"go.viam.com/bodypaint/rimage/transform"
)

func TestWarpGrayIdentity(t *testing.T) {
	src := NewMask(8, 6)
	for y := 2; y < 4; y++ {
		for x := 3; x < 6; x++ {
			src.Pix[y*src.Stride+x] = MaskOn
		}
	}
	out, err := WarpGray(src, transform.IdentityHomography(), image.Pt(8, 6))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Pix, test.ShouldResemble, src.Pix)
}

func TestWarpGrayScaleAndZeroFill(t *testing.T) {
	src := NewMask(10, 10)
	for i := range src.Pix {
		src.Pix[i] = MaskOn
	}
	// shift right by 20 and double
	h := transform.Homography{{2, 0, 20}, {0, 2, 0}, {0, 0, 1}}
	out, err := WarpGray(src, h, image.Pt(50, 30))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Bounds(), test.ShouldResemble, image.Rect(0, 0, 50, 30))

	// interior maps onto the source
	test.That(t, out.GrayAt(30, 10).Y, test.ShouldEqual, uint8(MaskOn))
	// left of the warped source and below it is zero filled
	test.That(t, out.GrayAt(5, 5).Y, test.ShouldEqual, uint8(0))
	test.That(t, out.GrayAt(30, 25).Y, test.ShouldEqual, uint8(0))
	test.That(t, out.GrayAt(45, 10).Y, test.ShouldEqual, uint8(0))
}

func TestWarpGrayDegenerate(t *testing.T) {
	_, err := WarpGray(NewMask(4, 4), transform.Homography{}, image.Pt(4, 4))
	test.That(t, err, test.ShouldNotBeNil)
}
