package utils

import (
	"image"

	"github.com/pkg/errors"
)

// NewSizeMismatchError is used when an image or buffer does not have the dimensions
// a component was configured for.
func NewSizeMismatchError(what string, expected, actual image.Point) error {
	return errors.Errorf("%s size mismatch: expected %dx%d but got %dx%d", what, expected.X, expected.Y, actual.X, actual.Y)
}
