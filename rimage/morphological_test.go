package rimage

import (
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func squareBinary(size, from, to int) *mat.Dense {
	m := mat.NewDense(size, size, nil)
	for r := from; r < to; r++ {
		for c := from; c < to; c++ {
			m.Set(r, c, 1)
		}
	}
	return m
}

func TestErodeSquare(t *testing.T) {
	orig := squareBinary(9, 2, 7)
	eroded, err := ErodeSquare(orig, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Equal(eroded, squareBinary(9, 3, 6)), test.ShouldBeTrue)

	// a single pixel disappears
	dot := mat.NewDense(5, 5, nil)
	dot.Set(2, 2, 1)
	eroded, err = ErodeSquare(dot, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Sum(eroded), test.ShouldEqual, 0.0)
}

func TestDilateSquare(t *testing.T) {
	orig := squareBinary(9, 3, 6)
	dilated, err := DilateSquare(orig, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Equal(dilated, squareBinary(9, 2, 7)), test.ShouldBeTrue)

	dilated, err = DilateSquare(orig, 5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Equal(dilated, squareBinary(9, 1, 8)), test.ShouldBeTrue)
}

func TestKernelSize(t *testing.T) {
	_, err := ErodeSquare(squareBinary(3, 0, 3), 2)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = DilateSquare(squareBinary(3, 0, 3), 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = CloseSquare(squareBinary(3, 0, 3), -1)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCloseSquare(t *testing.T) {
	// a ring with a one pixel gap in its wall and a 3x3 hole
	ring := squareBinary(11, 2, 9)
	for r := 4; r < 7; r++ {
		for c := 4; c < 7; c++ {
			ring.Set(r, c, 0)
		}
	}
	ring.Set(2, 5, 0)

	closed, err := CloseSquare(ring, 3)
	test.That(t, err, test.ShouldBeNil)
	// gap in the wall is filled
	test.That(t, closed.At(2, 5), test.ShouldEqual, 1.0)
	// the hole is wider than the element and survives
	test.That(t, closed.At(5, 5), test.ShouldEqual, 0.0)
	// the outside is untouched
	test.That(t, closed.At(0, 0), test.ShouldEqual, 0.0)
	test.That(t, closed.At(2, 2), test.ShouldEqual, 1.0)
}
