package rimage

import (
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"
)

func TestDepthMap(t *testing.T) {
	dm := NewEmptyDepthMap(4, 3)
	test.That(t, dm.Bounds(), test.ShouldResemble, image.Rect(0, 0, 4, 3))
	test.That(t, dm.Contains(3, 2), test.ShouldBeTrue)
	test.That(t, dm.Contains(4, 0), test.ShouldBeFalse)

	min, max := dm.MinMax()
	test.That(t, min, test.ShouldEqual, Depth(0))
	test.That(t, max, test.ShouldEqual, Depth(0))

	dm.Set(1, 2, 1500)
	dm.Set(3, 0, 900)
	test.That(t, dm.GetDepth(1, 2), test.ShouldEqual, Depth(1500))
	test.That(t, dm.Get(image.Point{3, 0}), test.ShouldEqual, Depth(900))

	min, max = dm.MinMax()
	test.That(t, min, test.ShouldEqual, Depth(900))
	test.That(t, max, test.ShouldEqual, Depth(1500))

	clone := dm.Clone()
	clone.Set(1, 2, 1)
	test.That(t, dm.GetDepth(1, 2), test.ShouldEqual, Depth(1500))
}

func TestDepthMapPrettyPicture(t *testing.T) {
	dm := NewEmptyDepthMap(3, 1)
	dm.Set(1, 0, 1000)
	dm.Set(2, 0, 3000)
	img := dm.ToPrettyPicture(0, 4000)
	test.That(t, img.NRGBAAt(0, 0), test.ShouldResemble, color.NRGBA{A: 255})
	near := NewColorFromColor(img.NRGBAAt(1, 0))
	far := NewColorFromColor(img.NRGBAAt(2, 0))
	test.That(t, near.H, test.ShouldBeLessThan, far.H)
}

func TestLabelMap(t *testing.T) {
	lm := NewLabelMap(3, 2)
	lm.Set(0, 0, 1)
	lm.Set(2, 1, 2)
	test.That(t, lm.Get(2, 1), test.ShouldEqual, uint8(2))

	one := lm.Mask(1)
	test.That(t, one.Pix, test.ShouldResemble, []uint8{255, 0, 0, 0, 0, 0})
	anyMask := lm.AnyMask()
	test.That(t, MaskCount(anyMask), test.ShouldEqual, 2)
	test.That(t, MaskIsEmpty(lm.Mask(5)), test.ShouldBeTrue)
}

func TestMaskDenseRoundTrip(t *testing.T) {
	mask := NewMask(3, 2)
	mask.Pix[1] = MaskOn
	mask.Pix[5] = MaskOn
	dense := MaskToDense(mask)
	r, c := dense.Dims()
	test.That(t, r, test.ShouldEqual, 2)
	test.That(t, c, test.ShouldEqual, 3)
	test.That(t, dense.At(0, 1), test.ShouldEqual, 1.0)
	test.That(t, dense.At(1, 2), test.ShouldEqual, 1.0)
	test.That(t, DenseToMask(dense).Pix, test.ShouldResemble, mask.Pix)
}
