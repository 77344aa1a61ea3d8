package kinect

import (
	"github.com/golang/geo/r3"
)

// TrackingState is how well the sensor tracks a skeleton.
type TrackingState int

const (
	// NotTracked skeletons are lost and carry no usable data.
	NotTracked TrackingState = iota
	// PositionOnly skeletons have a position but no joints.
	PositionOnly
	// Tracked skeletons have a position and joints.
	Tracked
)

func (ts TrackingState) String() string {
	switch ts {
	case NotTracked:
		return "not_tracked"
	case PositionOnly:
		return "position_only"
	case Tracked:
		return "tracked"
	}
	return "unknown"
}

// JointType names a skeleton joint.
type JointType int

// The joints the pipeline uses.
const (
	HipCenter JointType = iota
	ShoulderCenter
	Head
	HandLeft
	HandRight
)

func (jt JointType) String() string {
	switch jt {
	case HipCenter:
		return "hip_center"
	case ShoulderCenter:
		return "shoulder_center"
	case Head:
		return "head"
	case HandLeft:
		return "hand_left"
	case HandRight:
		return "hand_right"
	}
	return "unknown"
}

// Skeleton is one tracked body. Positions are in meters relative to the sensor with +Y up and +Z
// pointing away from the sensor.
type Skeleton struct {
	TrackingID  int
	PlayerIndex uint8
	State       TrackingState
	Position    r3.Vector
	Joints      map[JointType]r3.Vector
}

// Joint returns the position of a joint, if it was reported.
func (s *Skeleton) Joint(jt JointType) (r3.Vector, bool) {
	if s.Joints == nil {
		return r3.Vector{}, false
	}
	p, ok := s.Joints[jt]
	return p, ok
}
