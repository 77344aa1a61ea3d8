package paint

import (
	"image"

	"go.viam.com/bodypaint/config"
	"go.viam.com/bodypaint/fusion"
	"go.viam.com/bodypaint/rimage"
	"go.viam.com/bodypaint/rimage/transform"
)

// Session is the state that outlives a single frame: the canvas, the brush color, the cached
// calibration and the last frames seen. It has no locking of its own; exactly one goroutine may
// process frames against a session at a time.
type Session struct {
	cfg    *config.Config
	canvas *Canvas
	brush  rimage.Color
	// homography is replaced, never modified, so a warp in progress keeps the matrix it started with.
	homography *transform.Homography

	lastColor *image.NRGBA
	lastDepth *fusion.DepthField
}

// NewSession returns an empty session for cfg. The config must be valid.
func NewSession(cfg *config.Config) *Session {
	return &Session{
		cfg:   cfg,
		brush: cfg.BrushColor(),
	}
}

// Config returns the config currently in effect.
func (s *Session) Config() *config.Config {
	return s.cfg
}

// SetConfig swaps in a new config between frames. Resolution changes are rejected with
// config.ErrResolutionChange. A changed calibration section drops the cached homography.
func (s *Session) SetConfig(cfg *config.Config) error {
	if err := s.cfg.CheckReload(cfg); err != nil {
		return err
	}
	if cfg.Calibration != s.cfg.Calibration {
		s.homography = nil
	}
	s.cfg = cfg
	return nil
}

// canvasPlanes returns the canvas, allocating it at the configured color resolution on first use.
func (s *Session) canvasPlanes() *Canvas {
	if s.canvas == nil {
		size := s.cfg.ColorSize()
		s.canvas = NewCanvas(size.X, size.Y)
	}
	return s.canvas
}

// Canvas returns a snapshot of the canvas. Later painting does not affect it.
func (s *Session) Canvas() *image.NRGBA {
	return s.canvasPlanes().Image()
}

// CanvasPlanes returns a copy of the raw canvas values.
func (s *Session) CanvasPlanes() *Canvas {
	return s.canvasPlanes().Clone()
}

// Erase clears the canvas.
func (s *Session) Erase() {
	s.canvasPlanes().Clear()
}

// BrushColor returns the color new paint is applied with.
func (s *Session) BrushColor() rimage.Color {
	return s.brush
}

// SetBrushColor changes the color new paint is applied with.
func (s *Session) SetBrushColor(c rimage.Color) {
	s.brush = c
}

// Homography returns the cached depth to color homography, if calibration has succeeded.
func (s *Session) Homography() (transform.Homography, bool) {
	if s.homography == nil {
		return transform.Homography{}, false
	}
	return *s.homography, true
}

// SetHomography replaces the cached homography.
func (s *Session) SetHomography(h transform.Homography) {
	s.homography = &h
}

// InvalidateCalibration drops the cached homography; the next tracked frame recalibrates.
func (s *Session) InvalidateCalibration() {
	s.homography = nil
}
