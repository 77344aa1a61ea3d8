package transform

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// degenerateDetEpsilon is the smallest |det(H)| accepted for a normalized homography.
const degenerateDetEpsilon = 1e-9

// Homography is a 3x3 matrix (represented as a 2D array) used to transform a plane from the perspective of a 2D
// camera to the perspective of another 2D camera. Indices are [row][column].
type Homography [3][3]float64

// NewHomography creates a Homography from a row-major slice of 9 values.
func NewHomography(vals []float64) (Homography, error) {
	var h Homography
	if len(vals) != 9 {
		return h, errors.Errorf("input to NewHomography must have length of 9. Has length of %d", len(vals))
	}
	for i, v := range vals {
		h[i/3][i%3] = v
	}
	return h, nil
}

// IdentityHomography maps every point to itself.
func IdentityHomography() Homography {
	return Homography{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// At returns the value of the homography at the given row and column.
func (h *Homography) At(row, col int) float64 {
	return h[row][col]
}

// Apply maps a point through the homography. Points mapped to infinity come back as NaN.
func (h *Homography) Apply(pt r2.Point) r2.Point {
	x := h.At(0, 0)*pt.X + h.At(0, 1)*pt.Y + h.At(0, 2)
	y := h.At(1, 0)*pt.X + h.At(1, 1)*pt.Y + h.At(1, 2)
	z := h.At(2, 0)*pt.X + h.At(2, 1)*pt.Y + h.At(2, 2)
	if z == 0 {
		return r2.Point{X: math.NaN(), Y: math.NaN()}
	}
	return r2.Point{X: x / z, Y: y / z}
}

// Dense returns the homography as a gonum matrix.
func (h *Homography) Dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		h[0][0], h[0][1], h[0][2],
		h[1][0], h[1][1], h[1][2],
		h[2][0], h[2][1], h[2][2],
	})
}

// Det returns the determinant of the homography.
func (h *Homography) Det() float64 {
	return mat.Det(h.Dense())
}

// IsDegenerate reports whether the homography has non-finite entries or is (numerically) singular.
func (h *Homography) IsDegenerate() bool {
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if math.IsNaN(h[r][c]) || math.IsInf(h[r][c], 0) {
				return true
			}
		}
	}
	return math.Abs(h.Det()) < degenerateDetEpsilon
}

// Inverse returns the homography mapping points back the other way, normalized so that H[2][2] = 1
// whenever that entry is non-zero.
func (h *Homography) Inverse() (Homography, error) {
	if h.IsDegenerate() {
		return Homography{}, errors.New("cannot invert a degenerate homography")
	}
	var inv mat.Dense
	if err := inv.Inverse(h.Dense()); err != nil {
		return Homography{}, errors.Wrap(err, "homography is not invertible")
	}
	return homographyFromDense(&inv), nil
}

func (h Homography) String() string {
	return fmt.Sprintf("[[%.6g %.6g %.6g] [%.6g %.6g %.6g] [%.6g %.6g %.6g]]",
		h[0][0], h[0][1], h[0][2], h[1][0], h[1][1], h[1][2], h[2][0], h[2][1], h[2][2])
}

func homographyFromDense(m mat.Matrix) Homography {
	var h Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			h[r][c] = m.At(r, c)
		}
	}
	if s := h[2][2]; s != 0 {
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				h[r][c] /= s
			}
		}
	}
	return h
}
