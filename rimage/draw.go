package rimage

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var font *truetype.Font

// init sets up the fonts we want to use.
func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Font returns the font we use for drawing.
func Font() *truetype.Font {
	return font
}

// DrawString writes a string to the given context at a particular point.
func DrawString(dc *gg.Context, text string, p image.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringWrapped(text, float64(p.X), float64(p.Y), 0, 0, float64(dc.Width()), 1, 0)
}

// DrawCircleFilled draws a filled circle of the given radius centered on p.
func DrawCircleFilled(dc *gg.Context, p image.Point, radius float64, c color.Color) {
	dc.SetColor(c)
	dc.DrawCircle(float64(p.X), float64(p.Y), radius)
	dc.Fill()
}

// DrawCircle draws the outline of a circle centered on p.
func DrawCircle(dc *gg.Context, p image.Point, radius float64, c color.Color, width float64) {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.DrawCircle(float64(p.X), float64(p.Y), radius)
	dc.Stroke()
}

// DrawOnto runs draw against a copy of img and returns the result. img is left untouched.
func DrawOnto(img image.Image, draw func(dc *gg.Context)) *image.NRGBA {
	dc := gg.NewContextForImage(img)
	draw(dc)
	return CloneToNRGBA(dc.Image())
}
