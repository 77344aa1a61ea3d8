package paint

import (
	"image"
	"math"

	"go.viam.com/bodypaint/fusion"
	"go.viam.com/bodypaint/kinect"
	"go.viam.com/bodypaint/rimage"
)

// isEraseGesture reports whether both hands are together and above the head. "Above" is judged in
// depth image rows so it agrees with what the sensor sees.
func (e *Engine) isEraseGesture(sk *kinect.Skeleton, maxHandDistance float64) bool {
	left, okL := sk.Joint(kinect.HandLeft)
	right, okR := sk.Joint(kinect.HandRight)
	head, okH := sk.Joint(kinect.Head)
	if !okL || !okR || !okH {
		return false
	}
	if left.Distance(right) >= maxHandDistance {
		return false
	}
	headY := e.mapper.MapSkeletonPointToDepthPoint(head).Y
	return e.mapper.MapSkeletonPointToDepthPoint(left).Y < headY &&
		e.mapper.MapSkeletonPointToDepthPoint(right).Y < headY
}

type pickResult struct {
	found bool
	point image.Point
	color rimage.Color
	// mask is the cleaned picker band, kept for debugging.
	mask *image.Gray
}

// pickColor looks for a ring of player pixels nearer than threshold and samples the color seen
// through it.
func (e *Engine) pickColor(
	s *Session,
	depth *fusion.DepthField,
	playerDepth *rimage.DepthMap,
	colorImg *image.NRGBA,
	threshold float64,
) pickResult {
	cfg := s.cfg
	band := thresholdMask(playerDepth, threshold)
	if rimage.MaskIsEmpty(band) {
		return pickResult{}
	}
	closed, err := rimage.CloseSquare(rimage.MaskToDense(band), cfg.Picker.MorphKernel)
	if err != nil {
		e.logger.Warnw("could not clean picker mask", "error", err)
		return pickResult{}
	}
	res := pickResult{mask: rimage.DenseToMask(closed)}

	hole, ok := firstHole(closed, cfg.Picker.MinHoleAreaPx)
	if !ok {
		return res
	}
	center := rimage.ClampToBounds(rimage.ContourCentroid(hole), depth.Depth.Bounds())
	d := depth.Depth.Get(center)
	if d == 0 {
		d = rimage.Depth(math.Max(threshold, 0))
	}
	colorSize := cfg.ColorSize()
	scale := float64(colorSize.X) / float64(depth.Size().X)
	p := rimage.R2ToImage(e.mapper.MapDepthPointToColorPoint(center, uint16(d)).Mul(scale))
	if !p.In(colorImg.Bounds()) {
		e.logger.Debugw("picker point outside color image", "point", p)
		return res
	}
	sampled := rimage.NewColorFromColor(colorImg.NRGBAAt(p.X, p.Y))
	res.found = true
	res.point = p
	res.color = sampled.Boost(cfg.Picker.SaturationBoost, cfg.Picker.ValueBoost)
	return res
}
