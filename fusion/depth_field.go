package fusion

import (
	"image"

	"go.viam.com/bodypaint/kinect"
	"go.viam.com/bodypaint/rimage"
)

// DepthField is a depth frame split into distances and player labels, both at depth resolution.
type DepthField struct {
	Depth  *rimage.DepthMap
	Labels *rimage.LabelMap
}

// NewDepthField converts a validated depth frame, clamping distances to maxDepth.
func NewDepthField(df *kinect.DepthFrame, maxDepth rimage.Depth) *DepthField {
	dm := rimage.NewEmptyDepthMap(df.Width, df.Height)
	lm := rimage.NewLabelMap(df.Width, df.Height)
	for y := 0; y < df.Height; y++ {
		for x := 0; x < df.Width; x++ {
			i := y*df.Width + x
			d := rimage.Depth(df.Depth[i])
			if d > maxDepth {
				d = maxDepth
			}
			dm.Set(x, y, d)
			lm.Set(x, y, df.Player[i])
		}
	}
	return &DepthField{Depth: dm, Labels: lm}
}

// Size returns the field's dimensions.
func (f *DepthField) Size() image.Point {
	return image.Point{f.Depth.Width(), f.Depth.Height()}
}

// PlayerMask returns the pixels labeled with the given player index.
func (f *DepthField) PlayerMask(index uint8) *image.Gray {
	return f.Labels.Mask(index)
}

// PlayerDepth returns the depth restricted to mask, zero elsewhere.
func (f *DepthField) PlayerDepth(mask *image.Gray) *rimage.DepthMap {
	out := rimage.NewEmptyDepthMap(f.Depth.Width(), f.Depth.Height())
	b := mask.Bounds().Intersect(f.Depth.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.GrayAt(x, y).Y != 0 {
				out.Set(x, y, f.Depth.GetDepth(x, y))
			}
		}
	}
	return out
}

// Visualize renders the depth for debugging, near orange and far blue.
func (f *DepthField) Visualize(maxDepth rimage.Depth) *image.NRGBA {
	return f.Depth.ToPrettyPicture(0, maxDepth)
}
