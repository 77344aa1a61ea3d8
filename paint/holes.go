package paint

import (
	"image"

	"gonum.org/v1/gonum/mat"

	"go.viam.com/bodypaint/rimage"
)

// firstHole returns the first hole, in discovery order of the outer contours, whose area exceeds
// minArea. Only the first hole of every outer contour is considered.
func firstHole(binary *mat.Dense, minArea float64) ([]image.Point, bool) {
	contours, hierarchy := rimage.FindContours(binary)
	for i, node := range hierarchy {
		if i == 0 || node.Border.Type != rimage.Outer {
			continue
		}
		children := hierarchy.Children(i)
		if len(children) == 0 || hierarchy[children[0]].Border.Type != rimage.Hole {
			continue
		}
		child := children[0]
		hole := contours[child-1]
		if rimage.ContourArea(hole) > minArea {
			return hole, true
		}
	}
	return nil, false
}
