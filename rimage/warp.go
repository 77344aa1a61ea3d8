package rimage

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/bodypaint/rimage/transform"
	"go.viam.com/bodypaint/utils"
)

// WarpConnector lets Warp read from and write to any kind of planar data.
type WarpConnector interface {
	// Get fills buf with the NumFields values at (x, y) of the input.
	Get(x, y int, buf []float64)
	// Set stores the NumFields values at (x, y) of the output.
	Set(x, y int, data []float64)
	InputDims() (int, int)
	OutputDims() (int, int)
	NumFields() int
}

// Warp fills every output pixel by sampling the input at inverse(p) with bicubic interpolation.
// Output pixels whose source lies outside the input are set to zero.
func Warp(conn WarpConnector, inverse func(r2.Point) r2.Point) {
	outW, outH := conn.OutputDims()
	inW, inH := conn.InputDims()
	fields := conn.NumFields()

	utils.ParallelForEachRow(outH, func(y int) {
		out := make([]float64, fields)
		sample := make([]float64, fields)
		for x := 0; x < outW; x++ {
			src := inverse(r2.Point{X: float64(x), Y: float64(y)})
			for i := range out {
				out[i] = 0
			}
			if !math.IsNaN(src.X) && !math.IsNaN(src.Y) &&
				src.X >= -0.5 && src.Y >= -0.5 && src.X <= float64(inW)-0.5 && src.Y <= float64(inH)-0.5 {
				bicubic(conn, src, inW, inH, sample, out)
			}
			conn.Set(x, y, out)
		}
	})
}

// cubicWeight is the Catmull-Rom kernel.
func cubicWeight(t float64) float64 {
	const a = -0.5
	t = math.Abs(t)
	switch {
	case t <= 1:
		return (a+2)*t*t*t - (a+3)*t*t + 1
	case t < 2:
		return a*t*t*t - 5*a*t*t + 8*a*t - 4*a
	default:
		return 0
	}
}

func bicubic(conn WarpConnector, p r2.Point, w, h int, sample, out []float64) {
	x0 := int(math.Floor(p.X))
	y0 := int(math.Floor(p.Y))
	fx := p.X - float64(x0)
	fy := p.Y - float64(y0)
	for j := -1; j <= 2; j++ {
		wy := cubicWeight(float64(j) - fy)
		if wy == 0 {
			continue
		}
		yy := utils.ClampInt(y0+j, 0, h-1)
		for i := -1; i <= 2; i++ {
			wx := cubicWeight(float64(i) - fx)
			if wx == 0 {
				continue
			}
			xx := utils.ClampInt(x0+i, 0, w-1)
			conn.Get(xx, yy, sample)
			for k, v := range sample {
				out[k] += wx * wy * v
			}
		}
	}
}

type grayWarpConnector struct {
	In  *image.Gray
	Out *image.Gray
}

func (w *grayWarpConnector) Get(x, y int, buf []float64) {
	buf[0] = float64(w.In.Pix[y*w.In.Stride+x])
}

func (w *grayWarpConnector) Set(x, y int, data []float64) {
	w.Out.Pix[y*w.Out.Stride+x] = utils.ClampUint8(data[0])
}

func (w *grayWarpConnector) InputDims() (int, int) {
	return w.In.Rect.Dx(), w.In.Rect.Dy()
}

func (w *grayWarpConnector) OutputDims() (int, int) {
	return w.Out.Rect.Dx(), w.Out.Rect.Dy()
}

func (w *grayWarpConnector) NumFields() int {
	return 1
}

// WarpGray warps src into a new image of the given size, using the homography that maps src
// coordinates to output coordinates.
func WarpGray(src *image.Gray, h transform.Homography, outSize image.Point) (*image.Gray, error) {
	inv, err := h.Inverse()
	if err != nil {
		return nil, errors.Wrap(err, "cannot warp")
	}
	if src.Rect.Min != (image.Point{}) {
		return nil, errors.New("cannot warp an image with a non-zero origin")
	}
	conn := &grayWarpConnector{In: src, Out: image.NewGray(image.Rectangle{Max: outSize})}
	Warp(conn, inv.Apply)
	return conn.Out, nil
}
