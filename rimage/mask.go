package rimage

import (
	"image"

	"gonum.org/v1/gonum/mat"
)

// MaskOn is the value of a set pixel in a binary mask. Unset pixels are 0.
const MaskOn = 255

// NewMask returns an empty mask. Masks are *image.Gray with a zero origin and a stride equal to the width.
func NewMask(width, height int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, width, height))
}

// MaskIsEmpty reports whether no pixel of the mask is set.
func MaskIsEmpty(mask *image.Gray) bool {
	for _, v := range mask.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

// MaskCount returns the number of set pixels.
func MaskCount(mask *image.Gray) int {
	n := 0
	for _, v := range mask.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// MaskToDense converts a mask into a rows x cols binary matrix holding 0 or 1.
func MaskToDense(mask *image.Gray) *mat.Dense {
	b := mask.Bounds()
	rows, cols := b.Dy(), b.Dx()
	data := make([]float64, rows*cols)
	for y := 0; y < rows; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+cols]
		for x, v := range row {
			if v != 0 {
				data[y*cols+x] = 1
			}
		}
	}
	return mat.NewDense(rows, cols, data)
}

// DenseToMask converts a binary matrix back into a mask; any positive entry is set.
func DenseToMask(binary *mat.Dense) *image.Gray {
	rows, cols := binary.Dims()
	mask := NewMask(cols, rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if binary.At(y, x) > 0 {
				mask.Pix[y*mask.Stride+x] = MaskOn
			}
		}
	}
	return mask
}
