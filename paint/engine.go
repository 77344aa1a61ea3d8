// Package paint turns fused sensor frames into a painted display. A person paints by reaching a hand
// toward the sensor, picks a color by looking through a ring made with their fingers, and erases by
// bringing both hands together above their head.
package paint

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"go.viam.com/bodypaint/calibration"
	"go.viam.com/bodypaint/fusion"
	"go.viam.com/bodypaint/kinect"
	"go.viam.com/bodypaint/logging"
	"go.viam.com/bodypaint/rimage"
	"go.viam.com/bodypaint/rimage/transform"
)

// State is the engine state a frame was processed in.
type State int

const (
	// NoSignal means there was no color to show; the display is the fallback color.
	NoSignal State = iota
	// NoPerson means nobody is painting; the display is the color image.
	NoPerson
	// Tracking means a person was segmented and painting gestures were evaluated.
	Tracking
)

func (s State) String() string {
	switch s {
	case NoSignal:
		return "no_signal"
	case NoPerson:
		return "no_person"
	case Tracking:
		return "tracking"
	}
	return "unknown"
}

// FrameInput is everything the engine needs for one frame.
type FrameInput struct {
	Fused fusion.Fused
	// Skeleton is the selected skeleton, nil when nobody qualified.
	Skeleton    *kinect.Skeleton
	FrameNumber int64
}

// FrameResult is the outcome of one frame.
type FrameResult struct {
	State      State
	Display    *image.NRGBA
	BrushColor rimage.Color
	// Picked is set when the color picker changed the brush color; PickPoint is where it sampled, in
	// color image coordinates.
	Picked    bool
	PickPoint image.Point
	Erased    bool
	// Debug holds intermediate images when the compositor's show_debug is on.
	Debug map[string]image.Image
}

// Engine runs the per-frame painting algorithm against a Session.
type Engine struct {
	mapper kinect.CoordinateMapper
	logger logging.Logger
}

// NewEngine returns an engine using the sensor's coordinate mapper.
func NewEngine(mapper kinect.CoordinateMapper, logger logging.Logger) *Engine {
	return &Engine{mapper: mapper, logger: logger}
}

// metersToMillimeters is the only place skeleton distances become depth distances.
func metersToMillimeters(m float64) float64 {
	return m * 1000
}

// ProcessFrame runs one frame. It never fails: missing input degrades to NoPerson or NoSignal.
func (e *Engine) ProcessFrame(s *Session, in FrameInput) FrameResult {
	cfg := s.cfg
	res := FrameResult{}
	if cfg.Compositor.ShowDebug {
		res.Debug = map[string]image.Image{}
	}

	colorImg, colorStale := in.Fused.Color, false
	if colorImg != nil {
		s.lastColor = colorImg
	} else if s.lastColor != nil {
		colorImg, colorStale = s.lastColor, true
	}
	depth, depthStale := in.Fused.Depth, false
	if depth != nil {
		s.lastDepth = depth
	} else if s.lastDepth != nil && cfg.AllowStaleFrames {
		depth, depthStale = s.lastDepth, true
	}

	if (in.Fused.Color == nil && in.Fused.Depth == nil) || colorImg == nil {
		size := cfg.ColorSize()
		res.State = NoSignal
		res.Display = rimage.SolidImage(size.X, size.Y, cfg.FallbackColor())
		res.BrushColor = s.brush
		return res
	}
	if depth != nil && res.Debug != nil {
		res.Debug["depth"] = depth.Visualize(rimage.Depth(cfg.MaxDepthMM))
		res.Debug["players"] = depth.Labels.AnyMask()
	}

	noPerson := func(reason string) FrameResult {
		e.logger.Debugw("no person", "frame", in.FrameNumber, "reason", reason)
		res.State = NoPerson
		res.Display = rimage.CloneToNRGBA(colorImg)
		res.BrushColor = s.brush
		return res
	}
	switch {
	case in.Skeleton == nil:
		return noPerson("no skeleton")
	case in.Skeleton.PlayerIndex == 0:
		// label 0 marks pixels without a player
		return noPerson("skeleton has no player index")
	case depth == nil:
		return noPerson("no depth")
	case colorStale && !cfg.AllowStaleFrames:
		return noPerson("stale color")
	}
	if colorStale || depthStale {
		e.logger.Debugw("painting on a stale frame", "frame", in.FrameNumber, "color_stale", colorStale, "depth_stale", depthStale)
	}

	h, err := e.homography(s)
	if err != nil {
		e.logger.Warnw("calibration failed, retrying next frame", "frame", in.FrameNumber, "error", err)
		return noPerson("calibration failed")
	}
	display, ok := e.track(s, h, colorImg, depth, in, &res)
	if !ok {
		return noPerson("warp failed")
	}
	res.State = Tracking
	res.Display = display
	res.BrushColor = s.brush
	return res
}

// homography returns the cached homography, calibrating first if there is none.
func (e *Engine) homography(s *Session) (transform.Homography, error) {
	if h, ok := s.Homography(); ok {
		return h, nil
	}
	cfg := s.cfg
	h, err := calibration.ComputeHomography(e.mapper, cfg.DepthSize(), cfg.ColorSize(), cfg.Calibration)
	if err != nil {
		return transform.Homography{}, err
	}
	s.SetHomography(h)
	e.logger.Infow("calibrated depth to color homography", "homography", h.String())
	return h, nil
}

// track runs the painting steps for a tracked person and returns the display.
func (e *Engine) track(
	s *Session,
	h transform.Homography,
	colorImg *image.NRGBA,
	depth *fusion.DepthField,
	in FrameInput,
	res *FrameResult,
) (*image.NRGBA, bool) {
	cfg := s.cfg
	colorSize := cfg.ColorSize()
	sk := in.Skeleton

	playerMask := depth.PlayerMask(sk.PlayerIndex)
	registered, err := rimage.WarpGray(playerMask, h, colorSize)
	if err != nil {
		e.logger.Warnw("could not register player mask", "error", err)
		s.InvalidateCalibration()
		return nil, false
	}

	display := rimage.BlendMask(colorImg, registered, cfg.Compositor.BackgroundWeight, cfg.Compositor.MaskWeight)
	display = rimage.Blur(display, cfg.Compositor.SmoothingSigma)

	playerDepth := depth.PlayerDepth(playerMask)
	brushThreshold := metersToMillimeters(sk.Position.Z) - cfg.Brush.OffsetMM
	brushMask := thresholdMask(playerDepth, brushThreshold)
	if !rimage.MaskIsEmpty(brushMask) {
		e.stamp(s, h, brushMask)
	}

	if e.isEraseGesture(sk, cfg.Erase.HandDistanceM) {
		s.Erase()
		res.Erased = true
		e.logger.Debugw("erased canvas", "frame", in.FrameNumber)
	}

	pick := e.pickColor(s, depth, playerDepth, colorImg, brushThreshold-cfg.Picker.OffsetMM)
	if pick.found {
		s.SetBrushColor(pick.color)
		res.Picked = true
		res.PickPoint = pick.point
		display = rimage.DrawOnto(display, func(dc *gg.Context) {
			rimage.DrawCircleFilled(dc, pick.point, cfg.Picker.IndicatorRadius, pick.color)
		})
		e.logger.Debugw("picked color", "frame", in.FrameNumber, "point", pick.point, "color", pick.color.Hex())
	}

	w := cfg.Compositor.PaintWeight
	display = rimage.Blend(display, s.canvasPlanes().Image(), 1-w, w)

	if res.Debug != nil {
		res.Debug["player_mask"] = playerMask
		res.Debug["brush_mask"] = brushMask
		if pick.mask != nil {
			res.Debug["picker_mask"] = pick.mask
		}
		display = e.annotate(display, h, in, s.brush)
	}
	return display, true
}

// stamp adds a blurred, brush colored copy of the registered brush mask to the canvas.
func (e *Engine) stamp(s *Session, h transform.Homography, brushMask *image.Gray) {
	cfg := s.cfg
	registered, err := rimage.WarpGray(brushMask, h, cfg.ColorSize())
	if err != nil {
		e.logger.Warnw("could not register brush mask", "error", err)
		return
	}
	stamp := rimage.Blur(rimage.ColorizeMask(registered, s.brush), cfg.Brush.BlurSigma)
	s.canvasPlanes().Accumulate(stamp, cfg.Brush.StampWeight)
}

// thresholdMask selects the pixels with a known depth nearer than threshold millimeters.
func thresholdMask(dm *rimage.DepthMap, threshold float64) *image.Gray {
	mask := rimage.NewMask(dm.Width(), dm.Height())
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			if d := dm.GetDepth(x, y); d != 0 && float64(d) < threshold {
				mask.Pix[y*mask.Stride+x] = rimage.MaskOn
			}
		}
	}
	return mask
}

// annotate draws the frame number, skeleton and hand positions for debugging.
func (e *Engine) annotate(display *image.NRGBA, h transform.Homography, in FrameInput, brush rimage.Color) *image.NRGBA {
	sk := in.Skeleton
	return rimage.DrawOnto(display, func(dc *gg.Context) {
		text := fmt.Sprintf("frame %d  skeleton %d  brush %s", in.FrameNumber, sk.TrackingID, brush.Hex())
		rimage.DrawString(dc, text, image.Point{10, 10}, color.White, 14)
		for _, jt := range []kinect.JointType{kinect.HandLeft, kinect.HandRight} {
			p, ok := sk.Joint(jt)
			if !ok {
				continue
			}
			c := h.Apply(e.mapper.MapSkeletonPointToDepthPoint(p))
			rimage.DrawCircle(dc, rimage.R2ToImage(c), 10, rimage.Blue, 2)
		}
	})
}
