package rimage

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// Color is an opaque 8-bit RGB color that also carries its HSV representation.
// H is in degrees [0, 360), S and V are in [0, 1].
type Color struct {
	R, G, B uint8
	H, S, V float64
}

func (c Color) String() string {
	return fmt.Sprintf("%s (%3d,%4.2f,%4.2f)", c.Hex(), int(c.H), c.S, c.V)
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%.2x%.2x%.2x", c.R, c.G, c.B)
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// NRGBA returns the color as a fully opaque color.NRGBA.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// Boost multiplies saturation and value by the given factors, capping both at 1, and keeps the hue.
func (c Color) Boost(saturation, value float64) Color {
	return NewColorFromHSV(c.H, math.Min(c.S*saturation, 1), math.Min(c.V*value, 1))
}

// HueDistance returns the angular distance between two hues in degrees, in [0, 180].
func HueDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

func (c Color) toColorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255.0, G: float64(c.G) / 255.0, B: float64(c.B) / 255.0}
}

// NewColor builds a Color from 8-bit RGB.
func NewColor(r, g, b uint8) Color {
	c := Color{R: r, G: g, B: b}
	c.H, c.S, c.V = c.toColorful().Hsv()
	return c
}

// NewColorFromHex parses #rrggbb (or #rgb).
func NewColorFromHex(hex string) (Color, error) {
	cc, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, errors.Wrapf(err, "couldn't parse hex color %q", hex)
	}
	r, g, b := cc.RGB255()
	return NewColor(r, g, b), nil
}

// NewColorFromHSV builds a Color from hue in degrees and saturation / value in [0, 1].
func NewColorFromHSV(h, s, v float64) Color {
	cc := colorful.Hsv(h, s, v).Clamped()
	r, g, b := cc.RGB255()
	return Color{
		R: r,
		G: g,
		B: b,
		H: h,
		S: s,
		V: v,
	}
}

// NewColorFromColor converts any color.Color, dropping alpha.
func NewColorFromColor(c color.Color) Color {
	if cc, ok := c.(Color); ok {
		return cc
	}
	nrgba, _ := color.NRGBAModel.Convert(c).(color.NRGBA)
	return NewColor(nrgba.R, nrgba.G, nrgba.B)
}

var (
	// Red is pure red.
	Red = NewColor(255, 0, 0)
	// Green is pure green.
	Green = NewColor(0, 255, 0)
	// Blue is pure blue.
	Blue = NewColor(0, 0, 255)
	// White is white.
	White = NewColor(255, 255, 255)
	// Black is black.
	Black = NewColor(0, 0, 0)
	// Yellow is yellow.
	Yellow = NewColor(255, 255, 0)
)
