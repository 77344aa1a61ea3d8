package fake

import (
	"image"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"go.viam.com/bodypaint/rimage/transform"
)

// baselineMM is the horizontal offset of the color camera from the depth camera.
const baselineMM = -25.0

// Mapper is a pinhole model of a depth camera and a color camera mounted side by side.
type Mapper struct {
	Depth transform.PinholeCameraIntrinsics
	// Color is the color camera sampled at the depth camera's resolution.
	Color transform.PinholeCameraIntrinsics
}

// Intrinsics of both cameras at the native 320x240 depth resolution.
var (
	nativeDepth = transform.PinholeCameraIntrinsics{
		Width: 320, Height: 240,
		Fx: 285.63, Fy: 285.63,
		Ppx: 160, Ppy: 120,
	}
	nativeColor = transform.PinholeCameraIntrinsics{
		Width: 320, Height: 240,
		Fx: 262.5, Fy: 262.5,
		Ppx: 163, Ppy: 118,
	}
)

// NewMapper returns the mapper of a sensor whose depth stream has the given size.
func NewMapper(depthSize image.Point) *Mapper {
	return &Mapper{
		Depth: nativeDepth.Scaled(depthSize.X, depthSize.Y),
		Color: nativeColor.Scaled(depthSize.X, depthSize.Y),
	}
}

// MapDepthPointToColorPoint implements kinect.CoordinateMapper.
func (m *Mapper) MapDepthPointToColorPoint(p image.Point, depthMM uint16) r2.Point {
	pt := m.Depth.PixelToPoint(float64(p.X), float64(p.Y), float64(depthMM))
	pt.X += baselineMM
	return m.Color.PointToPixel(pt)
}

// MapSkeletonPointToDepthPoint implements kinect.CoordinateMapper.
func (m *Mapper) MapSkeletonPointToDepthPoint(p r3.Vector) r2.Point {
	return m.Depth.PointToPixel(r3.Vector{X: p.X * 1000, Y: -p.Y * 1000, Z: p.Z * 1000})
}

// DepthPointToSkeletonPoint is the inverse of MapSkeletonPointToDepthPoint for a pixel at a known depth.
func (m *Mapper) DepthPointToSkeletonPoint(p r2.Point, depthMM float64) r3.Vector {
	pt := m.Depth.PixelToPoint(p.X, p.Y, depthMM)
	return r3.Vector{X: pt.X / 1000, Y: -pt.Y / 1000, Z: pt.Z / 1000}
}
