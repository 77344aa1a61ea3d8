package rimage

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"

	"go.viam.com/bodypaint/utils"
)

// CloneToNRGBA returns an independent NRGBA copy of any image, with a zero origin.
func CloneToNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// SolidImage returns a width x height image filled with c.
func SolidImage(width, height int, c Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c.NRGBA()}, image.Point{}, draw.Src)
	return img
}

// Blur applies a gaussian blur of the given sigma. A non-positive sigma returns a copy.
func Blur(img image.Image, sigma float64) *image.NRGBA {
	return imaging.Blur(img, sigma)
}

// BlendMask returns img*imgWeight + mask*maskWeight per channel, the mask added equally to every
// channel. Images must have the same size and a zero origin.
func BlendMask(img *image.NRGBA, mask *image.Gray, imgWeight, maskWeight float64) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	utils.ParallelForEachRow(b.Dy(), func(y int) {
		src := img.Pix[y*img.Stride:]
		dst := out.Pix[y*out.Stride:]
		m := mask.Pix[y*mask.Stride:]
		for x := 0; x < b.Dx(); x++ {
			mv := float64(m[x]) * maskWeight
			i := 4 * x
			dst[i] = utils.ClampUint8(float64(src[i])*imgWeight + mv)
			dst[i+1] = utils.ClampUint8(float64(src[i+1])*imgWeight + mv)
			dst[i+2] = utils.ClampUint8(float64(src[i+2])*imgWeight + mv)
			dst[i+3] = 0xff
		}
	})
	return out
}

// Blend returns a*aWeight + b*bWeight per channel. Images must have the same size and a zero origin.
func Blend(a, b *image.NRGBA, aWeight, bWeight float64) *image.NRGBA {
	bounds := a.Bounds()
	out := image.NewNRGBA(bounds)
	utils.ParallelForEachRow(bounds.Dy(), func(y int) {
		pa := a.Pix[y*a.Stride:]
		pb := b.Pix[y*b.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < bounds.Dx(); x++ {
			i := 4 * x
			dst[i] = utils.ClampUint8(float64(pa[i])*aWeight + float64(pb[i])*bWeight)
			dst[i+1] = utils.ClampUint8(float64(pa[i+1])*aWeight + float64(pb[i+1])*bWeight)
			dst[i+2] = utils.ClampUint8(float64(pa[i+2])*aWeight + float64(pb[i+2])*bWeight)
			dst[i+3] = 0xff
		}
	})
	return out
}

// ColorizeMask paints c wherever the mask is set, scaled by the mask intensity, on a black background.
func ColorizeMask(mask *image.Gray, c Color) *image.NRGBA {
	b := mask.Bounds()
	out := image.NewNRGBA(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := float64(mask.Pix[y*mask.Stride+x]) / 255
			i := y*out.Stride + 4*x
			out.Pix[i] = utils.ClampUint8(float64(c.R) * v)
			out.Pix[i+1] = utils.ClampUint8(float64(c.G) * v)
			out.Pix[i+2] = utils.ClampUint8(float64(c.B) * v)
			out.Pix[i+3] = 0xff
		}
	}
	return out
}
