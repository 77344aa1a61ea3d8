package rimage

import (
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"github.com/xfmoulet/qoi"
)

// ImageFormats lists the file extensions WriteImageToFile understands. Importing this package also
// registers the ppm and qoi decoders with image.Decode.
var ImageFormats = []string{"png", "ppm", "qoi"}

// WriteImageToFile encodes img at path, creating parent directories as needed. The format follows the
// extension: .ppm and .qoi are supported besides PNG, which is used for anything else.
func WriteImageToFile(path string, img image.Image) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.Wrapf(err, "cannot create directory for %s", path)
	}
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ppm":
		// the encoder only takes RGBA
		rgba, ok := img.(*image.RGBA)
		if !ok {
			rgba = image.NewRGBA(image.Rectangle{Max: img.Bounds().Size()})
			draw.Draw(rgba, rgba.Rect, img, img.Bounds().Min, draw.Src)
		}
		return ppm.Encode(f, rgba)
	case ".qoi":
		return qoi.Encode(f, img)
	default:
		return png.Encode(f, img)
	}
}
