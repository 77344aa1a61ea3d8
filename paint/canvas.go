package paint

import (
	"image"

	"go.viam.com/bodypaint/utils"
)

// Canvas accumulates paint at color resolution. Channels are kept as floats so that small per-frame
// stamps add up instead of rounding away.
type Canvas struct {
	width, height int
	r, g, b       []float32
}

// NewCanvas returns an all zero canvas.
func NewCanvas(width, height int) *Canvas {
	n := width * height
	return &Canvas{
		width:  width,
		height: height,
		r:      make([]float32, n),
		g:      make([]float32, n),
		b:      make([]float32, n),
	}
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() image.Point {
	return image.Point{c.width, c.height}
}

// Accumulate adds weight times stamp to every channel, saturating at 255. The stamp must have the
// canvas size and a zero origin.
func (c *Canvas) Accumulate(stamp *image.NRGBA, weight float64) {
	w := float32(weight)
	utils.ParallelForEachRow(c.height, func(y int) {
		row := stamp.Pix[y*stamp.Stride:]
		for x := 0; x < c.width; x++ {
			i := y*c.width + x
			p := row[4*x:]
			c.r[i] = saturatingAdd(c.r[i], w*float32(p[0]))
			c.g[i] = saturatingAdd(c.g[i], w*float32(p[1]))
			c.b[i] = saturatingAdd(c.b[i], w*float32(p[2]))
		}
	})
}

func saturatingAdd(v, delta float32) float32 {
	v += delta
	if v > 255 {
		return 255
	}
	return v
}

// Clear resets every channel to zero.
func (c *Canvas) Clear() {
	clear(c.r)
	clear(c.g)
	clear(c.b)
}

// IsZero reports whether nothing is painted.
func (c *Canvas) IsZero() bool {
	for i := range c.r {
		if c.r[i] != 0 || c.g[i] != 0 || c.b[i] != 0 {
			return false
		}
	}
	return true
}

// At returns the raw channel values at (x, y).
func (c *Canvas) At(x, y int) (r, g, b float32) {
	i := y*c.width + x
	return c.r[i], c.g[i], c.b[i]
}

// Clone returns an independent copy.
func (c *Canvas) Clone() *Canvas {
	out := NewCanvas(c.width, c.height)
	copy(out.r, c.r)
	copy(out.g, c.g)
	copy(out.b, c.b)
	return out
}

// Equal reports whether both canvases hold exactly the same values.
func (c *Canvas) Equal(other *Canvas) bool {
	if c.width != other.width || c.height != other.height {
		return false
	}
	for i := range c.r {
		if c.r[i] != other.r[i] || c.g[i] != other.g[i] || c.b[i] != other.b[i] {
			return false
		}
	}
	return true
}

// Image renders the canvas as an opaque image.
func (c *Canvas) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, c.width, c.height))
	utils.ParallelForEachRow(c.height, func(y int) {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < c.width; x++ {
			i := y*c.width + x
			row[4*x] = utils.ClampUint8(float64(c.r[i]))
			row[4*x+1] = utils.ClampUint8(float64(c.g[i]))
			row[4*x+2] = utils.ClampUint8(float64(c.b[i]))
			row[4*x+3] = 0xff
		}
	})
	return img
}
