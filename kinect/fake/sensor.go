// Package fake provides a deterministic synthetic depth sensor: a person in front of a wall who idles,
// paints with a forward hand, picks a color through a ring formed by the hand, and erases with both
// hands together above the head.
package fake

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/bodypaint/kinect"
	"go.viam.com/bodypaint/rimage"
)

// Pose is what the synthetic person does during one tick.
type Pose int

// Poses in the order a typical session goes through them.
const (
	Absent Pose = iota
	Idle
	Paint
	Pick
	Erase
)

func (p Pose) String() string {
	switch p {
	case Absent:
		return "absent"
	case Idle:
		return "idle"
	case Paint:
		return "paint"
	case Pick:
		return "pick"
	case Erase:
		return "erase"
	}
	return "unknown"
}

// Options configure the synthetic scene.
type Options struct {
	DepthSize      image.Point
	ColorSize      image.Point
	BodyDistanceMM float64
	BackgroundMM   float64
	PlayerIndex    uint8
	TrackingID     int
	// Script is cycled through, one pose per tick. An empty script idles forever.
	Script []Pose
	// Bystander adds a second, farther person who is only position tracked.
	Bystander bool
	// DropColorEvery and DropDepthEvery drop every Nth frame of a stream; 0 never drops.
	DropColorEvery int
	DropDepthEvery int
	// PickColor is the color of the paint pot seen through the picking hand.
	PickColor rimage.Color
}

// DefaultOptions returns a 320x240 depth / 640x480 color scene with a person two meters away.
func DefaultOptions() Options {
	return Options{
		DepthSize:      image.Point{320, 240},
		ColorSize:      image.Point{640, 480},
		BodyDistanceMM: 2000,
		BackgroundMM:   3500,
		PlayerIndex:    1,
		TrackingID:     7,
		PickColor:      rimage.NewColor(40, 150, 140),
	}
}

// ScriptedSession returns a script that idles, paints, picks a color, paints again, erases and
// leaves, n ticks per phase.
func ScriptedSession(n int) []Pose {
	var script []Pose
	for _, p := range []Pose{Absent, Idle, Paint, Pick, Paint, Erase, Absent} {
		for i := 0; i < n; i++ {
			script = append(script, p)
		}
	}
	return script
}

// Sensor is a synthetic kinect.Sensor. Each Advance renders the next tick of the script; every frame of
// a tick can be acquired once.
type Sensor struct {
	*Mapper

	mu     sync.Mutex
	opts   Options
	tick   int64
	status kinect.Status
	chosen int

	color     *kinect.ColorFrame
	depth     *kinect.DepthFrame
	skeletons []kinect.Skeleton
}

// NewSensor returns a synthetic sensor. No frames are available until the first Advance.
func NewSensor(opts Options) (*Sensor, error) {
	if opts.DepthSize.X <= 0 || opts.DepthSize.Y <= 0 || opts.ColorSize.X <= 0 || opts.ColorSize.Y <= 0 {
		return nil, errors.Errorf("invalid stream sizes depth %v color %v", opts.DepthSize, opts.ColorSize)
	}
	if opts.BodyDistanceMM <= 0 || opts.BackgroundMM <= opts.BodyDistanceMM {
		return nil, errors.New("background must be farther away than the body")
	}
	if opts.PlayerIndex == 0 {
		return nil, errors.New("player index 0 means no player")
	}
	return &Sensor{Mapper: NewMapper(opts.DepthSize), opts: opts, tick: -1}, nil
}

// Advance renders the next tick. It is a no-op once the sensor is disconnected.
func (s *Sensor) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == kinect.Disconnected {
		return nil
	}
	s.tick++
	pose := s.poseAt(s.tick)
	color, depth, skeletons := s.render(pose, s.tick)
	s.color, s.depth, s.skeletons = color, depth, skeletons
	if every := s.opts.DropColorEvery; every > 0 && (s.tick+1)%int64(every) == 0 {
		s.color = nil
	}
	if every := s.opts.DropDepthEvery; every > 0 && (s.tick+1)%int64(every) == 0 {
		s.depth = nil
	}
	return nil
}

// Tick returns the number of the current tick, -1 before the first Advance.
func (s *Sensor) Tick() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Pose returns the pose of the current tick.
func (s *Sensor) Pose() Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poseAt(s.tick)
}

func (s *Sensor) poseAt(tick int64) Pose {
	if len(s.opts.Script) == 0 {
		return Idle
	}
	if tick < 0 {
		return s.opts.Script[0]
	}
	return s.opts.Script[tick%int64(len(s.opts.Script))]
}

// TryGetColorFrame implements kinect.Source.
func (s *Sensor) TryGetColorFrame() (*kinect.ColorFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.color
	s.color = nil
	return f, f != nil
}

// TryGetDepthFrame implements kinect.Source.
func (s *Sensor) TryGetDepthFrame() (*kinect.DepthFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.depth
	s.depth = nil
	return f, f != nil
}

// TryGetSkeletonFrame implements kinect.Source.
func (s *Sensor) TryGetSkeletonFrame() []kinect.Skeleton {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk := s.skeletons
	s.skeletons = nil
	return sk
}

// ChooseTrackedSkeleton implements kinect.SkeletonChooser.
func (s *Sensor) ChooseTrackedSkeleton(trackingID int) {
	s.mu.Lock()
	s.chosen = trackingID
	s.mu.Unlock()
}

// Chosen returns the tracking id most recently passed to ChooseTrackedSkeleton.
func (s *Sensor) Chosen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chosen
}

// Status implements kinect.Sensor.
func (s *Sensor) Status() kinect.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Disconnect simulates unplugging the sensor. Pending frames are discarded.
func (s *Sensor) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = kinect.Disconnected
	s.color, s.depth, s.skeletons = nil, nil, nil
}

// Render returns the frames of a single tick in the given pose without advancing the sensor.
func (s *Sensor) Render(pose Pose) (*kinect.ColorFrame, *kinect.DepthFrame, []kinect.Skeleton) {
	return s.render(pose, 0)
}

// layout holds the scene geometry in depth pixels.
type layout struct {
	scale          float64
	bodyX          float64
	headY, headR   float64
	torsoTop       float64
	torsoHalfWidth float64
	shoulderY      float64
	hipY           float64
	paintHand      r2.Point
	paintHandR     float64
	ring           r2.Point
	ringOuter      float64
	ringInner      float64
}

func (s *Sensor) layout() layout {
	sc := float64(s.opts.DepthSize.X) / 320
	bodyX := 0.3 * float64(s.opts.DepthSize.X)
	return layout{
		scale:          sc,
		bodyX:          bodyX,
		headY:          45 * sc,
		headR:          15 * sc,
		torsoTop:       70 * sc,
		torsoHalfWidth: 30 * sc,
		shoulderY:      75 * sc,
		hipY:           150 * sc,
		paintHand:      r2.Point{X: bodyX + 70*sc, Y: 110 * sc},
		paintHandR:     10 * sc,
		ring:           r2.Point{X: bodyX + 90*sc, Y: 110 * sc},
		ringOuter:      18 * sc,
		ringInner:      9 * sc,
	}
}

// RingCenter returns the depth pixel at the center of the picking hand's ring.
func (s *Sensor) RingCenter() image.Point {
	return rimage.R2ToImage(s.layout().ring)
}

// PaintPotCenter returns where the paint pot seen through the ring appears in the color image.
func (s *Sensor) PaintPotCenter() image.Point {
	p := s.MapDepthPointToColorPoint(s.RingCenter(), uint16(s.opts.BackgroundMM))
	return rimage.R2ToImage(p.Mul(float64(s.opts.ColorSize.X) / float64(s.opts.DepthSize.X)))
}

func (s *Sensor) render(pose Pose, tick int64) (*kinect.ColorFrame, *kinect.DepthFrame, []kinect.Skeleton) {
	lay := s.layout()
	depth := kinect.NewDepthFrame(s.opts.DepthSize.X, s.opts.DepthSize.Y)
	for i := range depth.Depth {
		depth.Depth[i] = uint16(s.opts.BackgroundMM)
	}
	body := uint16(s.opts.BodyDistanceMM)
	set := func(x, y int, d uint16, player uint8) {
		if x < 0 || y < 0 || x >= depth.Width || y >= depth.Height {
			return
		}
		depth.Depth[y*depth.Width+x] = d
		depth.Player[y*depth.Width+x] = player
	}
	disk := func(c r2.Point, outer, inner float64, d uint16, player uint8) {
		for y := int(c.Y - outer - 1); y <= int(c.Y+outer+1); y++ {
			for x := int(c.X - outer - 1); x <= int(c.X+outer+1); x++ {
				r := math.Hypot(float64(x)-c.X, float64(y)-c.Y)
				if r <= outer && r >= inner {
					set(x, y, d, player)
				}
			}
		}
	}

	var skeletons []kinect.Skeleton
	if s.opts.Bystander {
		farMM := uint16(math.Min(s.opts.BodyDistanceMM+1000, s.opts.BackgroundMM-1))
		x0 := int(0.82 * float64(depth.Width))
		for y := int(90 * lay.scale); y < depth.Height; y++ {
			for x := x0; x < x0+int(30*lay.scale); x++ {
				set(x, y, farMM, s.opts.PlayerIndex+1)
			}
		}
		pos := s.DepthPointToSkeletonPoint(r2.Point{X: float64(x0) + 15*lay.scale, Y: lay.hipY}, float64(farMM))
		skeletons = append(skeletons, kinect.Skeleton{
			TrackingID:  s.opts.TrackingID + 2,
			PlayerIndex: s.opts.PlayerIndex + 1,
			State:       kinect.PositionOnly,
			Position:    pos,
		})
	}

	if pose != Absent {
		player := s.opts.PlayerIndex
		// torso
		for y := int(lay.torsoTop); y < depth.Height; y++ {
			for x := int(lay.bodyX - lay.torsoHalfWidth); x <= int(lay.bodyX+lay.torsoHalfWidth); x++ {
				set(x, y, body, player)
			}
		}
		disk(r2.Point{X: lay.bodyX, Y: lay.headY}, lay.headR, 0, body, player)

		left := r2.Point{X: lay.bodyX - 40*lay.scale, Y: lay.hipY}
		right := r2.Point{X: lay.bodyX + 40*lay.scale, Y: lay.hipY}
		leftDepth, rightDepth := s.opts.BodyDistanceMM, s.opts.BodyDistanceMM
		switch pose {
		case Paint:
			right, rightDepth = lay.paintHand, s.opts.BodyDistanceMM-350
			disk(right, lay.paintHandR, 0, uint16(rightDepth), player)
		case Pick:
			right, rightDepth = lay.ring, s.opts.BodyDistanceMM-500
			disk(right, lay.ringOuter, lay.ringInner, uint16(rightDepth), player)
		case Erase:
			left = r2.Point{X: lay.bodyX - 3*lay.scale, Y: 15 * lay.scale}
			right = r2.Point{X: lay.bodyX + 3*lay.scale, Y: 15 * lay.scale}
			disk(left, 6*lay.scale, 0, body, player)
			disk(right, 6*lay.scale, 0, body, player)
		case Absent, Idle:
			disk(left, 6*lay.scale, 0, body, player)
			disk(right, 6*lay.scale, 0, body, player)
		}

		toSkeleton := func(p r2.Point, d float64) r3.Vector {
			return s.DepthPointToSkeletonPoint(p, d)
		}
		hip := toSkeleton(r2.Point{X: lay.bodyX, Y: lay.hipY}, s.opts.BodyDistanceMM)
		skeletons = append(skeletons, kinect.Skeleton{
			TrackingID:  s.opts.TrackingID,
			PlayerIndex: player,
			State:       kinect.Tracked,
			Position:    hip,
			Joints: map[kinect.JointType]r3.Vector{
				kinect.HipCenter:      hip,
				kinect.ShoulderCenter: toSkeleton(r2.Point{X: lay.bodyX, Y: lay.shoulderY}, s.opts.BodyDistanceMM),
				kinect.Head:           toSkeleton(r2.Point{X: lay.bodyX, Y: lay.headY}, s.opts.BodyDistanceMM),
				kinect.HandLeft:       toSkeleton(left, leftDepth),
				kinect.HandRight:      toSkeleton(right, rightDepth),
			},
		})
	}

	return &kinect.ColorFrame{Image: s.renderColor(depth), FrameNumber: tick}, depth, skeletons
}

// renderColor paints a gradient wall, the people seen by the depth camera and the paint pot.
func (s *Sensor) renderColor(depth *kinect.DepthFrame) *image.NRGBA {
	cw, ch := s.opts.ColorSize.X, s.opts.ColorSize.Y
	img := image.NewNRGBA(image.Rect(0, 0, cw, ch))
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(60 + 120*x/cw),
				G: uint8(80 + 100*y/ch),
				B: 150,
				A: 255,
			})
		}
	}

	scale := float64(cw) / float64(depth.Width)
	block := int(math.Ceil(scale))
	skin := color.NRGBA{R: 200, G: 170, B: 150, A: 255}
	for y := 0; y < depth.Height; y++ {
		for x := 0; x < depth.Width; x++ {
			i := y*depth.Width + x
			if depth.Player[i] == 0 {
				continue
			}
			cp := rimage.R2ToImage(s.MapDepthPointToColorPoint(image.Point{x, y}, depth.Depth[i]).Mul(scale))
			for by := 0; by < block; by++ {
				for bx := 0; bx < block; bx++ {
					if p := cp.Add(image.Point{bx, by}); p.In(img.Rect) {
						img.SetNRGBA(p.X, p.Y, skin)
					}
				}
			}
		}
	}

	pot := s.PaintPotCenter()
	radius := 14 * float64(cw) / 640
	potColor := s.opts.PickColor.NRGBA()
	for y := pot.Y - int(radius); y <= pot.Y+int(radius); y++ {
		for x := pot.X - int(radius); x <= pot.X+int(radius); x++ {
			if !(image.Point{x, y}).In(img.Rect) {
				continue
			}
			if math.Hypot(float64(x-pot.X), float64(y-pot.Y)) <= radius {
				img.SetNRGBA(x, y, potColor)
			}
		}
	}
	return img
}
