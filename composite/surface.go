package composite

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/bodypaint/rimage"
)

// Surface is where a host displays composited frames. Update receives opaque RGBA rows of exactly
// Size() pixels, stride bytes apart; implementations copy what they need before returning.
type Surface interface {
	Size() image.Point
	Update(pix []byte, stride int) error
}

// RGBASurface keeps the latest frame in memory, standing in for a UI bitmap.
type RGBASurface struct {
	mu      sync.Mutex
	img     *image.RGBA
	updates int
}

// NewRGBASurface returns a black surface of the given size.
func NewRGBASurface(size image.Point) *RGBASurface {
	return &RGBASurface{img: image.NewRGBA(image.Rectangle{Max: size})}
}

// Size implements Surface.
func (s *RGBASurface) Size() image.Point {
	return s.img.Rect.Size()
}

// Update implements Surface.
func (s *RGBASurface) Update(pix []byte, stride int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := copyRows(s.img.Pix, s.img.Stride, pix, stride, s.Size()); err != nil {
		return err
	}
	s.updates++
	return nil
}

// Image returns a copy of the current contents.
func (s *RGBASurface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewRGBA(s.img.Rect)
	copy(out.Pix, s.img.Pix)
	return out
}

// Updates returns how many frames the surface has received.
func (s *RGBASurface) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

// FileSurface writes every frame to a numbered image file in a directory.
type FileSurface struct {
	dir    string
	format string
	size   image.Point
	next   int
}

// NewFileSurface creates dir if needed. format is one of rimage.ImageFormats.
func NewFileSurface(dir, format string, size image.Point) (*FileSurface, error) {
	if !slices.Contains(rimage.ImageFormats, format) {
		return nil, errors.Errorf("unsupported frame format %q, expected one of %v", format, rimage.ImageFormats)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "cannot create frame directory %s", dir)
	}
	return &FileSurface{dir: dir, format: format, size: size}, nil
}

// NewPNGSurface returns a FileSurface writing PNG files.
func NewPNGSurface(dir string, size image.Point) (*FileSurface, error) {
	return NewFileSurface(dir, "png", size)
}

// Size implements Surface.
func (s *FileSurface) Size() image.Point {
	return s.size
}

// Update implements Surface.
func (s *FileSurface) Update(pix []byte, stride int) error {
	img := image.NewNRGBA(image.Rectangle{Max: s.size})
	if err := copyRows(img.Pix, img.Stride, pix, stride, s.size); err != nil {
		return err
	}
	path := s.FramePath(s.next)
	s.next++
	return rimage.WriteImageToFile(path, img)
}

// FramePath returns the file frame n is written to.
func (s *FileSurface) FramePath(n int) string {
	return filepath.Join(s.dir, fmt.Sprintf("frame_%06d.%s", n, s.format))
}

// Frames returns how many frames were written.
func (s *FileSurface) Frames() int {
	return s.next
}

func copyRows(dst []byte, dstStride int, src []byte, srcStride int, size image.Point) error {
	rowBytes := 4 * size.X
	if size.Y > 0 && (srcStride < rowBytes || len(src) < (size.Y-1)*srcStride+rowBytes) {
		return errors.Errorf("frame buffer of %d bytes with stride %d is too small for %v", len(src), srcStride, size)
	}
	for y := 0; y < size.Y; y++ {
		copy(dst[y*dstStride:y*dstStride+rowBytes], src[y*srcStride:y*srcStride+rowBytes])
	}
	return nil
}
