// Package kinect defines what the painting pipeline needs from a depth sensor: frames pulled with
// try-acquire semantics, tracked skeletons, and the sensor's coordinate mapping.
package kinect

import (
	"image"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrSensorDisconnected is returned once the sensor stops producing frames for good.
var ErrSensorDisconnected = errors.New("sensor disconnected")

// Status is the connection state of a sensor.
type Status int

const (
	// Connected sensors may still deliver frames.
	Connected Status = iota
	// Disconnected sensors will never deliver another frame.
	Disconnected
)

func (s Status) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// ColorFrame is one RGB image from the color stream.
type ColorFrame struct {
	Image       *image.NRGBA
	FrameNumber int64
}

// DepthFrame is one frame of the depth stream. Depth is in millimeters (0 = unknown) and Player holds the
// player index of every pixel (0 = no player); both are row-major with Width*Height entries.
type DepthFrame struct {
	Width, Height int
	Depth         []uint16
	Player        []uint8
}

// NewDepthFrame returns a zeroed depth frame.
func NewDepthFrame(width, height int) *DepthFrame {
	return &DepthFrame{
		Width:  width,
		Height: height,
		Depth:  make([]uint16, width*height),
		Player: make([]uint8, width*height),
	}
}

// Size returns the frame's dimensions.
func (df *DepthFrame) Size() image.Point {
	return image.Point{df.Width, df.Height}
}

// Validate checks that the buffers match the declared dimensions.
func (df *DepthFrame) Validate() error {
	n := df.Width * df.Height
	if df.Width <= 0 || df.Height <= 0 {
		return errors.Errorf("invalid depth frame size %dx%d", df.Width, df.Height)
	}
	if len(df.Depth) != n || len(df.Player) != n {
		return errors.Errorf("depth frame %dx%d has %d depth and %d player values", df.Width, df.Height, len(df.Depth), len(df.Player))
	}
	return nil
}

// Source delivers the three sensor streams. Every call returns immediately; a missing frame is not an error.
type Source interface {
	TryGetColorFrame() (*ColorFrame, bool)
	TryGetDepthFrame() (*DepthFrame, bool)
	// TryGetSkeletonFrame returns the skeletons of the newest skeleton frame, possibly none.
	TryGetSkeletonFrame() []Skeleton
}

// CoordinateMapper converts between the sensor's coordinate spaces.
type CoordinateMapper interface {
	// MapDepthPointToColorPoint returns where a depth pixel at the given depth lands in the color image,
	// expressed at depth frame resolution. Callers scale it by colorWidth / depthWidth.
	MapDepthPointToColorPoint(p image.Point, depthMM uint16) r2.Point
	// MapSkeletonPointToDepthPoint projects a skeleton space point (meters) onto the depth frame.
	MapSkeletonPointToDepthPoint(p r3.Vector) r2.Point
}

// SkeletonChooser lets the application tell the sensor which skeleton to track in full.
type SkeletonChooser interface {
	ChooseTrackedSkeleton(trackingID int)
}

// Sensor is a complete depth sensor.
type Sensor interface {
	Source
	CoordinateMapper
	SkeletonChooser
	Status() Status
}

// Advancer is implemented by sensors that produce frames on demand instead of on their own schedule,
// such as recordings and synthetic sensors. The pipeline advances them once per tick before acquiring frames.
type Advancer interface {
	Advance() error
}
