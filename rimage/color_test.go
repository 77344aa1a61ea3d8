package rimage

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.viam.com/test"
)

func TestColorHSV(t *testing.T) {
	c := NewColor(255, 0, 0)
	assert.InDelta(t, 0.0, c.H, 1e-9)
	assert.InDelta(t, 1.0, c.S, 1e-9)
	assert.InDelta(t, 1.0, c.V, 1e-9)
	test.That(t, c.Hex(), test.ShouldEqual, "#ff0000")

	back := NewColorFromHSV(c.H, c.S, c.V)
	test.That(t, back.R, test.ShouldEqual, uint8(255))
	test.That(t, back.G, test.ShouldEqual, uint8(0))
	test.That(t, back.B, test.ShouldEqual, uint8(0))

	teal := NewColor(0, 128, 128)
	assert.InDelta(t, 180.0, teal.H, 1e-9)
}

func TestColorHex(t *testing.T) {
	c, err := NewColorFromHex("#203040")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.R, test.ShouldEqual, uint8(0x20))
	test.That(t, c.G, test.ShouldEqual, uint8(0x30))
	test.That(t, c.B, test.ShouldEqual, uint8(0x40))
	test.That(t, c.Hex(), test.ShouldEqual, "#203040")

	_, err = NewColorFromHex("not a color")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestColorBoost(t *testing.T) {
	muted := NewColor(100, 140, 120)
	boosted := muted.Boost(1.5, 1.3)
	assert.InDelta(t, muted.H, boosted.H, 1e-9)
	assert.InDelta(t, muted.S*1.5, boosted.S, 1e-9)
	assert.InDelta(t, muted.V*1.3, boosted.V, 1e-9)

	capped := NewColor(250, 10, 10).Boost(1.5, 1.3)
	test.That(t, capped.S, test.ShouldEqual, 1.0)
	test.That(t, capped.V, test.ShouldEqual, 1.0)

	again := NewColor(boosted.R, boosted.G, boosted.B)
	test.That(t, HueDistance(again.H, muted.H), test.ShouldBeLessThan, 2.0)
}

func TestHueDistance(t *testing.T) {
	test.That(t, HueDistance(350, 10), test.ShouldAlmostEqual, 20.0)
	test.That(t, HueDistance(10, 350), test.ShouldAlmostEqual, 20.0)
	test.That(t, HueDistance(0, 180), test.ShouldAlmostEqual, 180.0)
	test.That(t, HueDistance(90, 90), test.ShouldAlmostEqual, 0.0)
}

func TestNewColorFromColor(t *testing.T) {
	c := NewColorFromColor(color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	test.That(t, c.Hex(), test.ShouldEqual, "#010203")
	test.That(t, NewColorFromColor(Red), test.ShouldResemble, Red)
	r, g, b, a := Blue.RGBA()
	test.That(t, []uint32{r, g, b, a}, test.ShouldResemble, []uint32{0, 0, 0xffff, 0xffff})
}
