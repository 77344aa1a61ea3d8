// Package composite presents displayed frames on host surfaces.
package composite

import (
	"image"
	"image/color"
	"image/draw"
	"sort"
	"sync"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/bodypaint/logging"
	"go.viam.com/bodypaint/rimage"
	"go.viam.com/bodypaint/utils"
)

// debugTileHeight is the height every debug image is scaled to in the debug strip.
const debugTileHeight = 120

// Compositor copies displayed frames onto surfaces and remembers the last one.
type Compositor struct {
	logger logging.Logger

	mu         sync.Mutex
	showDebug  bool
	last       *image.NRGBA
	debugStrip *image.NRGBA
	presented  int64
}

// NewCompositor returns a compositor.
func NewCompositor(showDebug bool, logger logging.Logger) *Compositor {
	return &Compositor{showDebug: showDebug, logger: logger}
}

// SetShowDebug turns the debug strip on or off.
func (c *Compositor) SetShowDebug(show bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showDebug = show
	if !show {
		c.debugStrip = nil
	}
}

// Present hands display to every surface. A surface whose size differs from the display is an error;
// frames are never resampled here. Every surface is attempted even if one fails.
func (c *Compositor) Present(display *image.NRGBA, debug map[string]image.Image, surfaces ...Surface) error {
	if display == nil {
		return errors.New("nothing to present")
	}
	if display.Rect.Min != (image.Point{}) {
		display = rimage.CloneToNRGBA(display)
	}
	size := display.Rect.Size()

	var err error
	for _, s := range surfaces {
		if s.Size() != size {
			err = multierr.Combine(err, utils.NewSizeMismatchError("surface", size, s.Size()))
			continue
		}
		err = multierr.Combine(err, s.Update(display.Pix, display.Stride))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = display
	c.presented++
	if c.showDebug && len(debug) > 0 {
		c.debugStrip = DebugStrip(debug, debugTileHeight)
	}
	return err
}

// Last returns the last presented display, nil before the first frame. It stays available after the
// sensor goes away.
func (c *Compositor) Last() *image.NRGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Presented returns the number of frames presented.
func (c *Compositor) Presented() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.presented
}

// DebugStrip returns the latest debug strip, nil when debug output is off or empty.
func (c *Compositor) DebugStrip() *image.NRGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.debugStrip
}

// DebugStrip scales every debug image to tileHeight and lays them out left to right in name order,
// each labeled with its name.
func DebugStrip(debug map[string]image.Image, tileHeight int) *image.NRGBA {
	if len(debug) == 0 || tileHeight <= 0 {
		return nil
	}
	names := make([]string, 0, len(debug))
	for name := range debug {
		names = append(names, name)
	}
	sort.Strings(names)

	tiles := make([]image.Image, 0, len(names))
	width := 0
	for _, name := range names {
		tile := resize.Resize(0, uint(tileHeight), debug[name], resize.Bilinear)
		tiles = append(tiles, tile)
		width += tile.Bounds().Dx()
	}
	strip := image.NewNRGBA(image.Rect(0, 0, width, tileHeight))
	x := 0
	for _, tile := range tiles {
		b := tile.Bounds()
		draw.Draw(strip, image.Rect(x, 0, x+b.Dx(), tileHeight), tile, b.Min, draw.Src)
		x += b.Dx()
	}
	return rimage.DrawOnto(strip, func(dc *gg.Context) {
		x := 0
		for i, name := range names {
			rimage.DrawString(dc, name, image.Point{x + 4, 4}, color.White, 12)
			x += tiles[i].Bounds().Dx()
		}
	})
}
