// Package calibration estimates the homography that maps depth frame pixels onto the color image.
package calibration

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/bodypaint/config"
	"go.viam.com/bodypaint/kinect"
	"go.viam.com/bodypaint/rimage/transform"
)

// ErrDegenerateCalibration is returned when the sampled correspondences do not determine a usable
// homography. It is transient: callers try again on a later frame.
var ErrDegenerateCalibration = errors.New("degenerate calibration")

// SamplePoints returns a GridSize x GridSize grid of depth pixels spread evenly between the margins.
func SamplePoints(depthSize image.Point, cfg config.Calibration) []image.Point {
	n := cfg.GridSize
	if n <= 0 {
		return nil
	}
	spanX := depthSize.X - 1 - 2*cfg.MarginPx
	spanY := depthSize.Y - 1 - 2*cfg.MarginPx
	pts := make([]image.Point, 0, n*n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			p := image.Point{cfg.MarginPx, cfg.MarginPx}
			if n > 1 {
				p.X += i * spanX / (n - 1)
				p.Y += j * spanY / (n - 1)
			}
			pts = append(pts, p)
		}
	}
	return pts
}

// Correspondences maps every sample point to the color image, assuming the scene lies at the nominal
// depth. The returned color points are at color resolution.
func Correspondences(
	mapper kinect.CoordinateMapper,
	depthSize, colorSize image.Point,
	cfg config.Calibration,
) (src, dst []r2.Point) {
	scale := float64(colorSize.X) / float64(depthSize.X)
	for _, p := range SamplePoints(depthSize, cfg) {
		c := mapper.MapDepthPointToColorPoint(p, uint16(cfg.NominalDepthMM))
		src = append(src, r2.Point{X: float64(p.X), Y: float64(p.Y)})
		dst = append(dst, c.Mul(scale))
	}
	return src, dst
}

// ComputeHomography estimates the depth to color homography from the mapper. Any failure is reported
// as ErrDegenerateCalibration.
func ComputeHomography(
	mapper kinect.CoordinateMapper,
	depthSize, colorSize image.Point,
	cfg config.Calibration,
) (transform.Homography, error) {
	if depthSize.X <= 0 || depthSize.Y <= 0 || colorSize.X <= 0 || colorSize.Y <= 0 {
		return transform.Homography{}, errors.Wrapf(ErrDegenerateCalibration, "invalid sizes depth %v color %v", depthSize, colorSize)
	}
	src, dst := Correspondences(mapper, depthSize, colorSize, cfg)
	for i, p := range dst {
		if !isFinite(p) {
			return transform.Homography{}, errors.Wrapf(ErrDegenerateCalibration, "sample %d maps to %v", i, p)
		}
	}
	h, err := transform.EstimateHomography(src, dst)
	if err != nil {
		return transform.Homography{}, errors.Wrapf(ErrDegenerateCalibration, "%v", err)
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if v := h.At(r, c); math.IsNaN(v) || math.IsInf(v, 0) {
				return transform.Homography{}, errors.Wrap(ErrDegenerateCalibration, "homography has non-finite entries")
			}
		}
	}
	return h, nil
}

// ReprojectionError returns the largest distance between h applied to src and dst.
func ReprojectionError(h transform.Homography, src, dst []r2.Point) float64 {
	var worst float64
	for i := range src {
		worst = math.Max(worst, h.Apply(src[i]).Sub(dst[i]).Norm())
	}
	return worst
}

func isFinite(p r2.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
