// Package fusion turns raw sensor frames into images at the pipeline's configured resolutions.
package fusion

import (
	"image"
	"time"

	"github.com/nfnt/resize"
	"golang.org/x/time/rate"

	"go.viam.com/bodypaint/config"
	"go.viam.com/bodypaint/kinect"
	"go.viam.com/bodypaint/logging"
	"go.viam.com/bodypaint/rimage"
)

// Fused holds the frames of one tick. Either field is nil when its stream had nothing new.
type Fused struct {
	Color *image.NRGBA
	Depth *DepthField
}

// Fuser converts frames to the configured resolutions.
type Fuser struct {
	depthSize image.Point
	colorSize image.Point
	maxDepth  rimage.Depth
	logger    logging.Logger
	// warnings throttles per-frame warnings from a misbehaving depth stream.
	warnings rate.Sometimes
}

// NewFuser returns a Fuser for the resolutions in cfg.
func NewFuser(cfg *config.Config, logger logging.Logger) *Fuser {
	return &Fuser{
		depthSize: cfg.DepthSize(),
		colorSize: cfg.ColorSize(),
		maxDepth:  rimage.Depth(cfg.MaxDepthMM),
		logger:    logger,
		warnings:  rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
}

// MaxDepth returns the depth readings are clamped to.
func (f *Fuser) MaxDepth() rimage.Depth {
	return f.maxDepth
}

// Fuse converts the frames of one tick. Nil and empty frames come back nil. Color frames at another resolution are
// resampled; depth frames at another resolution are dropped because player labels cannot be
// interpolated.
func (f *Fuser) Fuse(color *kinect.ColorFrame, depth *kinect.DepthFrame) Fused {
	var out Fused
	if color != nil && color.Image != nil {
		if color.Image.Bounds().Empty() {
			f.warnings.Do(func() {
				f.logger.Warnw("dropping empty color frame", "frame", color.FrameNumber)
			})
		} else {
			out.Color = f.fuseColor(color)
		}
	}
	if depth != nil {
		out.Depth = f.fuseDepth(depth)
	}
	return out
}

func (f *Fuser) fuseColor(frame *kinect.ColorFrame) *image.NRGBA {
	img := frame.Image
	b := img.Bounds()
	if b.Size() == f.colorSize {
		if b.Min == (image.Point{}) {
			return img
		}
		return rimage.CloneToNRGBA(img)
	}
	f.logger.Debugw("resampling color frame", "frame", frame.FrameNumber, "from", b.Size(), "to", f.colorSize)
	resized := resize.Resize(uint(f.colorSize.X), uint(f.colorSize.Y), img, resize.Bilinear)
	if nrgba, ok := resized.(*image.NRGBA); ok {
		return nrgba
	}
	return rimage.CloneToNRGBA(resized)
}

func (f *Fuser) fuseDepth(frame *kinect.DepthFrame) *DepthField {
	if err := frame.Validate(); err != nil {
		f.warnings.Do(func() {
			f.logger.Warnw("dropping malformed depth frame", "error", err)
		})
		return nil
	}
	if frame.Size() != f.depthSize {
		f.warnings.Do(func() {
			f.logger.Warnw("dropping depth frame with unexpected size", "size", frame.Size(), "expected", f.depthSize)
		})
		return nil
	}
	return NewDepthField(frame, f.maxDepth)
}
