package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateHomography is returned when a set of correspondences does not determine a homography.
var ErrDegenerateHomography = errors.New("point correspondences do not determine a homography")

// collinearityEpsilon bounds the ratio of the smaller to the larger principal variance of a point set
// below which the points are treated as lying on a line.
const collinearityEpsilon = 1e-9

// EstimateHomography computes the least-squares homography mapping src to dst with the normalized
// direct linear transform (Multiple View Geometry, Alg 4.2). At least 4 non-collinear correspondences
// are required. The result is normalized so that H[2][2] = 1.
func EstimateHomography(src, dst []r2.Point) (Homography, error) {
	if len(src) != len(dst) {
		return Homography{}, errors.Errorf("got %d source points but %d destination points", len(src), len(dst))
	}
	if len(src) < 4 {
		return Homography{}, errors.Wrapf(ErrDegenerateHomography, "need at least 4 correspondences, got %d", len(src))
	}
	if areCollinear(src) || areCollinear(dst) {
		return Homography{}, errors.Wrap(ErrDegenerateHomography, "points are collinear")
	}

	srcNorm, t1 := normalizePoints(src)
	dstNorm, t2 := normalizePoints(dst)

	a := mat.NewDense(2*len(src), 9, nil)
	for i := range srcNorm {
		x, y := srcNorm[i].X, srcNorm[i].Y
		u, v := dstNorm[i].X, dstNorm[i].Y
		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	svd := performSVD(a)
	if svd == nil {
		return Homography{}, errors.Wrap(ErrDegenerateHomography, "SVD failed to factorize")
	}
	// solution is the right singular vector of the smallest singular value
	h := mat.Col(nil, 8, svd.V)
	hNorm := mat.NewDense(3, 3, h)

	// denormalize: H = T2^-1 * Hn * T1
	var t2Inv mat.Dense
	if err := t2Inv.Inverse(t2); err != nil {
		return Homography{}, errors.Wrap(ErrDegenerateHomography, err.Error())
	}
	var left, out mat.Dense
	left.Mul(&t2Inv, hNorm)
	out.Mul(&left, t1)

	if math.Abs(out.At(2, 2)) < 1e-12 {
		return Homography{}, errors.Wrap(ErrDegenerateHomography, "H[2][2] is zero")
	}
	result := homographyFromDense(&out)
	if result.IsDegenerate() {
		return Homography{}, errors.Wrap(ErrDegenerateHomography, "estimated homography is singular")
	}
	return result, nil
}

// helpers
// normalizePoints normalizes points as described in Multiple View Geometry, Alg 4.2.
func normalizePoints(pts []r2.Point) ([]r2.Point, *mat.Dense) {
	nPoints := len(pts)
	// computer centroid of points
	mu := r2.Point{X: 0, Y: 0}
	for _, pt := range pts {
		mu = mu.Add(pt)
	}
	mu = mu.Mul(1. / float64(nPoints))
	// compute scale factor
	d := 0.0
	for _, pt := range pts {
		d += pt.Sub(mu).Norm() / float64(nPoints)
	}
	scale := 1.0
	if d > 0 {
		scale = math.Sqrt(2) / d
	}
	transformData := []float64{
		scale, 0, -scale * mu.X,
		0, scale, -scale * mu.Y,
		0, 0, 1,
	}
	T := mat.NewDense(3, 3, transformData)
	// apply transform to points
	pointsTransformed := make([]r2.Point, nPoints)
	for i := range pointsTransformed {
		pointsTransformed[i] = pts[i].Sub(mu).Mul(scale)
	}
	return pointsTransformed, T
}

// areCollinear reports whether all points lie (numerically) on one line, using the eigenvalues of
// their 2x2 covariance.
func areCollinear(pts []r2.Point) bool {
	n := float64(len(pts))
	mu := r2.Point{}
	for _, pt := range pts {
		mu = mu.Add(pt)
	}
	mu = mu.Mul(1 / n)
	var sxx, syy, sxy float64
	for _, pt := range pts {
		d := pt.Sub(mu)
		sxx += d.X * d.X
		syy += d.Y * d.Y
		sxy += d.X * d.Y
	}
	half := (sxx + syy) / 2
	disc := math.Sqrt((sxx-syy)*(sxx-syy)/4 + sxy*sxy)
	largest, smallest := half+disc, half-disc
	if largest <= 0 {
		return true
	}
	return smallest <= collinearityEpsilon*largest
}

// matsSVD stores the matrices from SVD decomposition.
type matsSVD struct {
	U *mat.Dense
	V *mat.Dense
	S []float64
}

// performSVD performs SVD on inputMatrix and returns matrices U, V and the singular values.
func performSVD(inputMatrix *mat.Dense) *matsSVD {
	var svd mat.SVD
	ok := svd.Factorize(inputMatrix, mat.SVDFull)
	if !ok {
		return nil
	}

	u, v := &mat.Dense{}, &mat.Dense{}
	svd.UTo(u)
	svd.VTo(v)

	return &matsSVD{u, v, svd.Values(nil)}
}
