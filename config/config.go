// Package config defines the tunables of the painting pipeline and how they are loaded,
// validated and hot reloaded.
package config

import (
	"image"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/bodypaint/rimage"
)

// ErrResolutionChange is returned when a reload tries to change a stream resolution. The canvas and
// the cached calibration are sized once per session, so resolutions are fixed for its lifetime.
var ErrResolutionChange = errors.New("stream resolutions cannot change while running")

// Config is the full set of pipeline tunables.
type Config struct {
	DepthWidth  int `json:"depth_width"`
	DepthHeight int `json:"depth_height"`
	ColorWidth  int `json:"color_width"`
	ColorHeight int `json:"color_height"`
	// MaxDepthMM is the largest depth the sensor reports; readings are clamped to it.
	MaxDepthMM int `json:"max_depth_mm"`

	Calibration Calibration `json:"calibration"`
	Brush       Brush       `json:"brush"`
	Picker      Picker      `json:"picker"`
	Erase       Erase       `json:"erase"`
	Compositor  Compositor  `json:"compositor"`

	AllowStaleFrames bool          `json:"allow_stale_frames"`
	FrameInterval    time.Duration `json:"frame_interval"`
	StatsEvery       int           `json:"stats_every"`
}

// Calibration configures the depth to color homography estimate.
type Calibration struct {
	GridSize       int `json:"grid_size"`
	MarginPx       int `json:"margin_px"`
	NominalDepthMM int `json:"nominal_depth_mm"`
}

// Brush configures how painting accumulates on the canvas.
type Brush struct {
	OffsetMM     float64 `json:"offset_mm"`
	StampWeight  float64 `json:"stamp_weight"`
	BlurSigma    float64 `json:"blur_sigma"`
	DefaultColor string  `json:"default_color"`
}

// Picker configures the color picker gesture.
type Picker struct {
	OffsetMM        float64 `json:"offset_mm"`
	MinHoleAreaPx   float64 `json:"min_hole_area_px"`
	MorphKernel     int     `json:"morph_kernel"`
	SaturationBoost float64 `json:"saturation_boost"`
	ValueBoost      float64 `json:"value_boost"`
	IndicatorRadius float64 `json:"indicator_radius"`
}

// Erase configures the erase gesture.
type Erase struct {
	HandDistanceM float64 `json:"hand_distance_m"`
}

// Compositor configures the displayed image.
type Compositor struct {
	BackgroundWeight float64 `json:"background_weight"`
	MaskWeight       float64 `json:"mask_weight"`
	SmoothingSigma   float64 `json:"smoothing_sigma"`
	PaintWeight      float64 `json:"paint_weight"`
	FallbackColor    string  `json:"fallback_color"`
	ShowDebug        bool    `json:"show_debug"`
}

// Default returns the default configuration for a 320x240 depth / 640x480 color sensor.
func Default() *Config {
	return &Config{
		DepthWidth:  320,
		DepthHeight: 240,
		ColorWidth:  640,
		ColorHeight: 480,
		MaxDepthMM:  4000,
		Calibration: Calibration{
			GridSize:       4,
			MarginPx:       20,
			NominalDepthMM: 2000,
		},
		Brush: Brush{
			OffsetMM:     300,
			StampWeight:  0.05,
			BlurSigma:    2.0,
			DefaultColor: "#ff0000",
		},
		Picker: Picker{
			OffsetMM:        125,
			MinHoleAreaPx:   75,
			MorphKernel:     3,
			SaturationBoost: 1.5,
			ValueBoost:      1.3,
			IndicatorRadius: 8,
		},
		Erase: Erase{
			HandDistanceM: 0.3,
		},
		Compositor: Compositor{
			BackgroundWeight: 0.7,
			MaskWeight:       0.3,
			SmoothingSigma:   1.0,
			PaintWeight:      0.5,
			FallbackColor:    "#203040",
		},
		FrameInterval: 33 * time.Millisecond,
		StatsEvery:    300,
	}
}

// DepthSize returns the depth stream resolution.
func (cfg *Config) DepthSize() image.Point {
	return image.Point{cfg.DepthWidth, cfg.DepthHeight}
}

// ColorSize returns the color stream resolution, which is also the display and canvas resolution.
func (cfg *Config) ColorSize() image.Point {
	return image.Point{cfg.ColorWidth, cfg.ColorHeight}
}

// Copy returns an independent copy of the config.
func (cfg *Config) Copy() *Config {
	c := *cfg
	return &c
}

// BrushColor returns the parsed default brush color. Validated configs never fail here.
func (cfg *Config) BrushColor() rimage.Color {
	c, err := rimage.NewColorFromHex(cfg.Brush.DefaultColor)
	if err != nil {
		return rimage.Red
	}
	return c
}

// FallbackColor returns the parsed "no signal" color. Validated configs never fail here.
func (cfg *Config) FallbackColor() rimage.Color {
	c, err := rimage.NewColorFromHex(cfg.Compositor.FallbackColor)
	if err != nil {
		return rimage.Black
	}
	return c
}

// CheckReload returns ErrResolutionChange if next changes any stream resolution of cfg.
func (cfg *Config) CheckReload(next *Config) error {
	if cfg.DepthSize() != next.DepthSize() || cfg.ColorSize() != next.ColorSize() {
		return errors.Wrapf(ErrResolutionChange, "depth %v -> %v, color %v -> %v",
			cfg.DepthSize(), next.DepthSize(), cfg.ColorSize(), next.ColorSize())
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	for field, v := range map[string]int{
		"depth_width":  cfg.DepthWidth,
		"depth_height": cfg.DepthHeight,
		"color_width":  cfg.ColorWidth,
		"color_height": cfg.ColorHeight,
		"max_depth_mm": cfg.MaxDepthMM,
	} {
		if v <= 0 {
			return goutils.NewConfigValidationFieldRequiredError(path, field)
		}
	}
	if cfg.MaxDepthMM > int(rimage.MaxDepth) {
		return goutils.NewConfigValidationError(path, errors.Errorf("max_depth_mm must be at most %d", rimage.MaxDepth))
	}
	if cfg.ColorWidth%cfg.DepthWidth != 0 || cfg.ColorHeight%cfg.DepthHeight != 0 ||
		cfg.ColorWidth/cfg.DepthWidth != cfg.ColorHeight/cfg.DepthHeight {
		return goutils.NewConfigValidationError(path,
			errors.New("color resolution must be the same integer multiple of the depth resolution on both axes"))
	}
	if cfg.FrameInterval <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "frame_interval")
	}
	if cfg.StatsEvery < 0 {
		return goutils.NewConfigValidationError(path, errors.New("stats_every cannot be negative"))
	}
	if err := cfg.Calibration.Validate(join(path, "calibration"), cfg.DepthSize()); err != nil {
		return err
	}
	if err := cfg.Brush.Validate(join(path, "brush")); err != nil {
		return err
	}
	if err := cfg.Picker.Validate(join(path, "picker")); err != nil {
		return err
	}
	if err := cfg.Erase.Validate(join(path, "erase")); err != nil {
		return err
	}
	return cfg.Compositor.Validate(join(path, "compositor"))
}

// Validate ensures all parts of the config are valid.
func (c *Calibration) Validate(path string, depthSize image.Point) error {
	if c.GridSize < 2 {
		return goutils.NewConfigValidationError(path, errors.New("grid_size must be at least 2"))
	}
	if c.MarginPx < 0 || 2*c.MarginPx >= depthSize.X || 2*c.MarginPx >= depthSize.Y {
		return goutils.NewConfigValidationError(path, errors.Errorf("margin_px %d does not fit in a %v depth frame", c.MarginPx, depthSize))
	}
	if c.NominalDepthMM <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "nominal_depth_mm")
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (b *Brush) Validate(path string) error {
	if b.OffsetMM < 0 {
		return goutils.NewConfigValidationError(path, errors.New("offset_mm cannot be negative"))
	}
	if b.StampWeight <= 0 || b.StampWeight > 1 {
		return goutils.NewConfigValidationError(path, errors.New("stamp_weight must be in (0, 1]"))
	}
	if b.BlurSigma < 0 {
		return goutils.NewConfigValidationError(path, errors.New("blur_sigma cannot be negative"))
	}
	if b.DefaultColor == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "default_color")
	}
	if _, err := rimage.NewColorFromHex(b.DefaultColor); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (p *Picker) Validate(path string) error {
	if p.OffsetMM < 0 {
		return goutils.NewConfigValidationError(path, errors.New("offset_mm cannot be negative"))
	}
	if p.MinHoleAreaPx < 0 {
		return goutils.NewConfigValidationError(path, errors.New("min_hole_area_px cannot be negative"))
	}
	if p.MorphKernel < 1 || p.MorphKernel%2 == 0 {
		return goutils.NewConfigValidationError(path, errors.New("morph_kernel must be a positive odd number"))
	}
	if p.SaturationBoost <= 0 || p.ValueBoost <= 0 {
		return goutils.NewConfigValidationError(path, errors.New("saturation_boost and value_boost must be positive"))
	}
	if p.IndicatorRadius < 0 {
		return goutils.NewConfigValidationError(path, errors.New("indicator_radius cannot be negative"))
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (e *Erase) Validate(path string) error {
	if e.HandDistanceM <= 0 {
		return goutils.NewConfigValidationFieldRequiredError(path, "hand_distance_m")
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (c *Compositor) Validate(path string) error {
	for field, w := range map[string]float64{
		"background_weight": c.BackgroundWeight,
		"mask_weight":       c.MaskWeight,
		"paint_weight":      c.PaintWeight,
	} {
		if w < 0 || w > 1 {
			return goutils.NewConfigValidationError(path, errors.Errorf("%s must be in [0, 1]", field))
		}
	}
	if c.SmoothingSigma < 0 {
		return goutils.NewConfigValidationError(path, errors.New("smoothing_sigma cannot be negative"))
	}
	if c.FallbackColor == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "fallback_color")
	}
	if _, err := rimage.NewColorFromHex(c.FallbackColor); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	return nil
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}
