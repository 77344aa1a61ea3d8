package paint

import (
	"image"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/bodypaint/config"
	"go.viam.com/bodypaint/fusion"
	"go.viam.com/bodypaint/kinect"
	"go.viam.com/bodypaint/kinect/fake"
	"go.viam.com/bodypaint/logging"
	"go.viam.com/bodypaint/rimage"
	"go.viam.com/bodypaint/tracking"
)

type fixture struct {
	cfg     *config.Config
	sensor  *fake.Sensor
	fuser   *fusion.Fuser
	engine  *Engine
	session *Session
	frame   int64
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	test.That(t, cfg.Validate("test"), test.ShouldBeNil)
	sensor, err := fake.NewSensor(fake.DefaultOptions())
	test.That(t, err, test.ShouldBeNil)
	logger := logging.NewTestLogger(t)
	return &fixture{
		cfg:     cfg,
		sensor:  sensor,
		fuser:   fusion.NewFuser(cfg, logger),
		engine:  NewEngine(sensor, logger),
		session: NewSession(cfg),
	}
}

func (f *fixture) input(pose fake.Pose) FrameInput {
	f.frame++
	color, depth, skeletons := f.sensor.Render(pose)
	in := FrameInput{Fused: f.fuser.Fuse(color, depth), FrameNumber: f.frame}
	if sk, ok := tracking.Select(skeletons, f.sensor); ok {
		in.Skeleton = &sk
	}
	return in
}

func (f *fixture) process(pose fake.Pose) FrameResult {
	return f.engine.ProcessFrame(f.session, f.input(pose))
}

func TestNoSignal(t *testing.T) {
	f := newFixture(t, nil)
	res := f.engine.ProcessFrame(f.session, FrameInput{})
	test.That(t, res.State, test.ShouldEqual, NoSignal)
	want := rimage.SolidImage(640, 480, f.cfg.FallbackColor())
	test.That(t, res.Display.Pix, test.ShouldResemble, want.Pix)

	// a cached color frame does not count as signal when both streams are missing
	f.process(fake.Idle)
	res = f.engine.ProcessFrame(f.session, FrameInput{})
	test.That(t, res.State, test.ShouldEqual, NoSignal)
	test.That(t, res.Display.Pix, test.ShouldResemble, want.Pix)
}

func TestNoPersonShowsColorCopy(t *testing.T) {
	f := newFixture(t, nil)
	in := f.input(fake.Absent)
	test.That(t, in.Skeleton, test.ShouldBeNil)
	res := f.engine.ProcessFrame(f.session, in)
	test.That(t, res.State, test.ShouldEqual, NoPerson)
	test.That(t, res.Display.Pix, test.ShouldResemble, in.Fused.Color.Pix)
	test.That(t, res.Display, test.ShouldNotEqual, in.Fused.Color)
	test.That(t, f.session.CanvasPlanes().IsZero(), test.ShouldBeTrue)

	before := rimage.CloneToNRGBA(res.Display)
	for i := 0; i < 3; i++ {
		f.process(fake.Paint)
	}
	test.That(t, f.session.CanvasPlanes().IsZero(), test.ShouldBeFalse)
	test.That(t, res.Display.Pix, test.ShouldResemble, before.Pix)
}

func TestTrackingPaints(t *testing.T) {
	f := newFixture(t, nil)
	res := f.process(fake.Paint)
	test.That(t, res.State, test.ShouldEqual, Tracking)
	test.That(t, res.Display.Bounds().Size(), test.ShouldResemble, image.Point{640, 480})
	test.That(t, res.Debug, test.ShouldBeNil)
	_, ok := f.session.Homography()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, f.sensor.Chosen(), test.ShouldEqual, 7)
	test.That(t, f.session.CanvasPlanes().IsZero(), test.ShouldBeFalse)
}

func TestSkeletonWithoutPlayerIsNoPerson(t *testing.T) {
	f := newFixture(t, nil)
	in := f.input(fake.Paint)
	test.That(t, in.Skeleton, test.ShouldNotBeNil)
	sk := *in.Skeleton
	sk.PlayerIndex = 0
	sk.Position.Z = 4.0
	in.Skeleton = &sk

	res := f.engine.ProcessFrame(f.session, in)
	test.That(t, res.State, test.ShouldEqual, NoPerson)
	test.That(t, res.Picked, test.ShouldBeFalse)
	test.That(t, res.Display.Pix, test.ShouldResemble, in.Fused.Color.Pix)
	test.That(t, f.session.CanvasPlanes().IsZero(), test.ShouldBeTrue)
}

func TestEmptyColorFrameKeepsDisplaySize(t *testing.T) {
	f := newFixture(t, nil)
	_, depth, skeletons := f.sensor.Render(fake.Paint)
	in := FrameInput{
		Fused:       f.fuser.Fuse(&kinect.ColorFrame{Image: image.NewNRGBA(image.Rect(0, 0, 0, 0))}, depth),
		FrameNumber: 1,
	}
	if sk, ok := tracking.Select(skeletons, f.sensor); ok {
		in.Skeleton = &sk
	}
	test.That(t, in.Fused.Color, test.ShouldBeNil)

	res := f.engine.ProcessFrame(f.session, in)
	test.That(t, res.State, test.ShouldEqual, NoSignal)
	test.That(t, res.Display.Bounds().Size(), test.ShouldResemble, image.Point{640, 480})
}

func TestEmptyBrushLeavesCanvasUntouched(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 3; i++ {
		f.process(fake.Paint)
	}
	before := f.session.CanvasPlanes()
	for i := 0; i < 5; i++ {
		res := f.process(fake.Idle)
		test.That(t, res.State, test.ShouldEqual, Tracking)
		test.That(t, res.Erased, test.ShouldBeFalse)
		test.That(t, f.session.CanvasPlanes().Equal(before), test.ShouldBeTrue)
	}
}

func TestStampingIsMonotonicAndSaturates(t *testing.T) {
	f := newFixture(t, nil)
	prev := f.session.CanvasPlanes()
	for i := 0; i < 40; i++ {
		f.process(fake.Paint)
		cur := f.session.CanvasPlanes()
		for y := 0; y < 480; y += 4 {
			for x := 0; x < 640; x += 4 {
				r, g, b := cur.At(x, y)
				pr, pg, pb := prev.At(x, y)
				if r < pr || g < pg || b < pb || r > 255 || g > 255 || b > 255 {
					t.Fatalf("frame %d pixel (%d, %d): %v,%v,%v after %v,%v,%v", i, x, y, r, g, b, pr, pg, pb)
				}
			}
		}
		prev = cur
	}

	h, ok := f.session.Homography()
	test.That(t, ok, test.ShouldBeTrue)
	_, _, skeletons := f.sensor.Render(fake.Paint)
	hand, _ := skeletons[0].Joint(kinect.HandRight)
	p := rimage.R2ToImage(h.Apply(f.sensor.MapSkeletonPointToDepthPoint(hand)))
	r, g, b := prev.At(p.X, p.Y)
	test.That(t, r, test.ShouldEqual, float32(255))
	test.That(t, g, test.ShouldEqual, float32(0))
	test.That(t, b, test.ShouldEqual, float32(0))
}

func TestEraseGestureClearsCanvas(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 5; i++ {
		f.process(fake.Paint)
	}
	test.That(t, f.session.CanvasPlanes().IsZero(), test.ShouldBeFalse)

	res := f.process(fake.Erase)
	test.That(t, res.State, test.ShouldEqual, Tracking)
	test.That(t, res.Erased, test.ShouldBeTrue)
	test.That(t, f.session.CanvasPlanes().IsZero(), test.ShouldBeTrue)
	canvas := f.session.Canvas()
	for i := 0; i < len(canvas.Pix); i += 4 {
		if canvas.Pix[i] != 0 || canvas.Pix[i+1] != 0 || canvas.Pix[i+2] != 0 {
			t.Fatal("canvas not cleared")
		}
	}
}

func TestColorPicker(t *testing.T) {
	f := newFixture(t, nil)
	pot := fake.DefaultOptions().PickColor
	test.That(t, f.session.BrushColor(), test.ShouldResemble, rimage.Red)

	res := f.process(fake.Pick)
	test.That(t, res.State, test.ShouldEqual, Tracking)
	test.That(t, res.Picked, test.ShouldBeTrue)
	test.That(t, rimage.PointDistance(res.PickPoint, f.sensor.PaintPotCenter()), test.ShouldBeLessThanOrEqualTo, 4)

	brush := f.session.BrushColor()
	test.That(t, res.BrushColor, test.ShouldResemble, brush)
	test.That(t, rimage.HueDistance(brush.H, pot.H), test.ShouldBeLessThan, 1)
	test.That(t, brush.S, test.ShouldBeGreaterThan, pot.S)
	test.That(t, brush.S, test.ShouldBeLessThanOrEqualTo, 1)
	test.That(t, brush.V, test.ShouldBeGreaterThan, pot.V)
	test.That(t, brush.V, test.ShouldBeLessThanOrEqualTo, 1)

	// painting after picking uses the new color
	f.session.Erase()
	f.process(fake.Paint)
	canvas := f.session.Canvas()
	h, _ := f.session.Homography()
	_, _, skeletons := f.sensor.Render(fake.Paint)
	hand, _ := skeletons[0].Joint(kinect.HandRight)
	p := rimage.R2ToImage(h.Apply(f.sensor.MapSkeletonPointToDepthPoint(hand)))
	painted := canvas.NRGBAAt(p.X, p.Y)
	test.That(t, painted.G, test.ShouldBeGreaterThan, painted.R)
}

func TestPickerIgnoresSmallHoles(t *testing.T) {
	cfg := config.Default()
	cfg.Picker.MinHoleAreaPx = 10000
	f := newFixture(t, cfg)
	res := f.process(fake.Pick)
	test.That(t, res.State, test.ShouldEqual, Tracking)
	test.That(t, res.Picked, test.ShouldBeFalse)
	test.That(t, f.session.BrushColor(), test.ShouldResemble, rimage.Red)
}

// switchMapper maps every depth point onto a line while broken is set.
type switchMapper struct {
	*fake.Mapper
	broken bool
}

func (m *switchMapper) MapDepthPointToColorPoint(p image.Point, depthMM uint16) r2.Point {
	if m.broken {
		return r2.Point{X: float64(p.X), Y: float64(p.X)}
	}
	return m.Mapper.MapDepthPointToColorPoint(p, depthMM)
}

func TestCalibrationFailureRetries(t *testing.T) {
	f := newFixture(t, nil)
	mapper := &switchMapper{Mapper: f.sensor.Mapper, broken: true}
	logger, logs := logging.NewObservedTestLogger(t)
	f.engine = NewEngine(mapper, logger)

	res := f.process(fake.Paint)
	test.That(t, res.State, test.ShouldEqual, NoPerson)
	_, ok := f.session.Homography()
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, f.session.CanvasPlanes().IsZero(), test.ShouldBeTrue)
	test.That(t, logs.FilterMessage("calibration failed, retrying next frame").Len(), test.ShouldEqual, 1)

	mapper.broken = false
	res = f.process(fake.Paint)
	test.That(t, res.State, test.ShouldEqual, Tracking)
	first, ok := f.session.Homography()
	test.That(t, ok, test.ShouldBeTrue)

	// calibrated once, even if the mapper changes afterwards
	mapper.broken = true
	res = f.process(fake.Paint)
	test.That(t, res.State, test.ShouldEqual, Tracking)
	second, _ := f.session.Homography()
	test.That(t, second, test.ShouldResemble, first)

	f.session.InvalidateCalibration()
	res = f.process(fake.Paint)
	test.That(t, res.State, test.ShouldEqual, NoPerson)
}

func TestStaleFrames(t *testing.T) {
	f := newFixture(t, nil)
	f.process(fake.Idle)

	in := f.input(fake.Paint)
	in.Fused.Color = nil
	res := f.engine.ProcessFrame(f.session, in)
	test.That(t, res.State, test.ShouldEqual, NoPerson)
	test.That(t, f.session.CanvasPlanes().IsZero(), test.ShouldBeTrue)

	in = f.input(fake.Paint)
	in.Fused.Depth = nil
	res = f.engine.ProcessFrame(f.session, in)
	test.That(t, res.State, test.ShouldEqual, NoPerson)
	test.That(t, res.Display.Pix, test.ShouldResemble, in.Fused.Color.Pix)

	cfg := config.Default()
	cfg.AllowStaleFrames = true
	f = newFixture(t, cfg)
	f.process(fake.Paint)
	in = f.input(fake.Paint)
	in.Fused.Color = nil
	res = f.engine.ProcessFrame(f.session, in)
	test.That(t, res.State, test.ShouldEqual, Tracking)
	in = f.input(fake.Paint)
	in.Fused.Depth = nil
	res = f.engine.ProcessFrame(f.session, in)
	test.That(t, res.State, test.ShouldEqual, Tracking)
}

func TestDebugImages(t *testing.T) {
	cfg := config.Default()
	cfg.Compositor.ShowDebug = true
	f := newFixture(t, cfg)
	res := f.process(fake.Pick)
	test.That(t, res.State, test.ShouldEqual, Tracking)
	for _, name := range []string{"depth", "players", "player_mask", "brush_mask", "picker_mask"} {
		img, ok := res.Debug[name]
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, img.Bounds().Size(), test.ShouldResemble, image.Point{320, 240})
	}

	res = f.process(fake.Absent)
	test.That(t, res.State, test.ShouldEqual, NoPerson)
	test.That(t, res.Debug, test.ShouldContainKey, "depth")
	test.That(t, rimage.MaskIsEmpty(res.Debug["players"].(*image.Gray)), test.ShouldBeTrue)
	test.That(t, res.Debug, test.ShouldNotContainKey, "brush_mask")
}

func TestSessionConfig(t *testing.T) {
	f := newFixture(t, nil)
	f.process(fake.Idle)
	_, ok := f.session.Homography()
	test.That(t, ok, test.ShouldBeTrue)

	bigger := config.Default()
	bigger.ColorWidth, bigger.ColorHeight = 1280, 960
	err := f.session.SetConfig(bigger)
	test.That(t, err, test.ShouldWrap, config.ErrResolutionChange)
	test.That(t, f.session.Config(), test.ShouldEqual, f.cfg)

	tuned := config.Default()
	tuned.Brush.StampWeight = 0.5
	test.That(t, f.session.SetConfig(tuned), test.ShouldBeNil)
	_, ok = f.session.Homography()
	test.That(t, ok, test.ShouldBeTrue)

	recal := config.Default()
	recal.Calibration.GridSize = 5
	test.That(t, f.session.SetConfig(recal), test.ShouldBeNil)
	_, ok = f.session.Homography()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestMetersToMillimeters(t *testing.T) {
	test.That(t, metersToMillimeters(2), test.ShouldEqual, 2000.0)
	test.That(t, math.IsNaN(metersToMillimeters(math.NaN())), test.ShouldBeTrue)
}

func TestStateStrings(t *testing.T) {
	test.That(t, NoSignal.String(), test.ShouldEqual, "no_signal")
	test.That(t, Tracking.String(), test.ShouldEqual, "tracking")
}
