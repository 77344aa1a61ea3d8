package rimage

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func checkKernelSize(k int) error {
	if k < 1 || k%2 == 0 {
		return errors.Errorf("structuring element size must be a positive odd number, got %d", k)
	}
	return nil
}

// applySquare replaces every element with reduce over the in-bounds k x k window centered on it.
func applySquare(img *mat.Dense, k int, init float64, reduce func(a, b float64) float64) *mat.Dense {
	rows, cols := img.Dims()
	half := k / 2
	// separable: rows first, then columns
	tmp := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := init
			for cc := c - half; cc <= c+half; cc++ {
				if cc < 0 || cc >= cols {
					continue
				}
				v = reduce(v, img.At(r, cc))
			}
			tmp.Set(r, c, v)
		}
	}
	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := init
			for rr := r - half; rr <= r+half; rr++ {
				if rr < 0 || rr >= rows {
					continue
				}
				v = reduce(v, tmp.At(rr, c))
			}
			out.Set(r, c, v)
		}
	}
	return out
}

// ErodeSquare takes in a matrix and a kernel size k, and returns the morphological erosion with a k x k
// square structuring element. Elements outside the matrix are ignored.
func ErodeSquare(img *mat.Dense, k int) (*mat.Dense, error) {
	if err := checkKernelSize(k); err != nil {
		return nil, err
	}
	return applySquare(img, k, math.Inf(1), math.Min), nil
}

// DilateSquare takes in a matrix and a kernel size k, and returns the morphological dilation with a k x k
// square structuring element.
func DilateSquare(img *mat.Dense, k int) (*mat.Dense, error) {
	if err := checkKernelSize(k); err != nil {
		return nil, err
	}
	return applySquare(img, k, math.Inf(-1), math.Max), nil
}

// CloseSquare is a dilation followed by an erosion with the same k x k square. It fills gaps narrower
// than the structuring element while keeping larger holes open.
func CloseSquare(img *mat.Dense, k int) (*mat.Dense, error) {
	dilated, err := DilateSquare(img, k)
	if err != nil {
		return nil, err
	}
	return ErodeSquare(dilated, k)
}
