// Package resample implements the pure pixel-resampling function: given a
// source buffer and target dimensions, produce a resized destination
// buffer. It owns the filter-kernel mapping and the Mitchell-to-Triangle
// auto-degradation policy; it knows nothing about files, codecs, or
// concurrency.
package resample

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"github.com/batchresize/engine/core"
	apperrors "github.com/batchresize/engine/errors"
)

// degradeRatio is the downscale ratio at or above which a MITCHELL request
// is silently substituted with TRIANGLE. Mitchell-Netravali's negative
// lobes ring badly once the source contributes more than ~3 samples per
// destination pixel; Triangle (bilinear-equivalent) stays clean there.
const degradeRatio = 3.0

// kernelFor maps a core.Filter onto the imaging package's named kernel,
// applying the Mitchell->Triangle degradation when the larger-axis
// downscale ratio meets or exceeds degradeRatio.
func kernelFor(f core.Filter, srcW, srcH, dstW, dstH int) imaging.ResampleFilter {
	effective := f
	if f == core.Mitchell {
		ratioW := float64(srcW) / float64(dstW)
		ratioH := float64(srcH) / float64(dstH)
		ratio := ratioW
		if ratioH > ratio {
			ratio = ratioH
		}
		if ratio >= degradeRatio {
			effective = core.Triangle
		}
	}

	switch effective {
	case core.Mitchell:
		return imaging.MitchellNetravali
	case core.CatmullRom:
		return imaging.CatmullRom
	case core.Box:
		return imaging.Box
	case core.Triangle:
		return imaging.Linear
	default:
		return imaging.MitchellNetravali
	}
}

// Resize produces a new PixelBuffer of size dstW x dstH from src, using the
// kernel named by filter (degrading Mitchell to Triangle per
// kernelFor). src.Channels is preserved in the output. Fails only on a
// malformed source buffer or non-positive target dimensions; the filter
// degradation itself never fails.
func Resize(src *core.PixelBuffer, dstW, dstH int, filter core.Filter) (*core.PixelBuffer, error) {
	if err := src.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryResize, "resample.Resize", err)
	}
	if dstW <= 0 || dstH <= 0 {
		return nil, apperrors.New(apperrors.CategoryResize, "resample.Resize", apperrors.ErrInvalidDimensions)
	}
	if src.Width == dstW && src.Height == dstH {
		out := make([]byte, len(src.Pixels))
		copy(out, src.Pixels)
		return &core.PixelBuffer{Pixels: out, Width: dstW, Height: dstH, Channels: src.Channels}, nil
	}

	img := toImage(src)
	kernel := kernelFor(filter, src.Width, src.Height, dstW, dstH)
	resized := imaging.Resize(img, dstW, dstH, kernel)

	return fromImage(resized, src.Channels), nil
}

// ResizeBilinear resizes src to dstW x dstH with x/image/draw's BiLinear
// scaler instead of the imaging kernels Resize uses. The pipeline and the
// batch dispatcher do not call it.
func ResizeBilinear(src *core.PixelBuffer, dstW, dstH int) (*core.PixelBuffer, error) {
	if err := src.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryResize, "resample.ResizeBilinear", err)
	}
	if dstW <= 0 || dstH <= 0 {
		return nil, apperrors.New(apperrors.CategoryResize, "resample.ResizeBilinear", apperrors.ErrInvalidDimensions)
	}

	srcImg := toImage(src)
	dst := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), srcImg, srcImg.Bounds(), xdraw.Over, nil)

	return fromImage(dst, src.Channels), nil
}

// toImage adapts a PixelBuffer into an image.Image without copying pixel
// data for the 4-channel case (image.NRGBA wraps the slice directly).
func toImage(b *core.PixelBuffer) image.Image {
	switch b.Channels {
	case 4:
		return &image.NRGBA{Pix: b.Pixels, Stride: b.Width * 4, Rect: image.Rect(0, 0, b.Width, b.Height)}
	case 3:
		rgba := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
		for y := 0; y < b.Height; y++ {
			srcRow := b.Pixels[y*b.Width*3 : (y+1)*b.Width*3]
			dstRow := rgba.Pix[y*rgba.Stride : y*rgba.Stride+b.Width*4]
			for x := 0; x < b.Width; x++ {
				dstRow[x*4+0] = srcRow[x*3+0]
				dstRow[x*4+1] = srcRow[x*3+1]
				dstRow[x*4+2] = srcRow[x*3+2]
				dstRow[x*4+3] = 0xff
			}
		}
		return rgba
	case 1:
		return &image.Gray{Pix: b.Pixels, Stride: b.Width, Rect: image.Rect(0, 0, b.Width, b.Height)}
	case 2:
		// Gray+alpha: treat as NRGBA with duplicated gray channels, stripped
		// back to 2-channel on the way out.
		rgba := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
		for y := 0; y < b.Height; y++ {
			srcRow := b.Pixels[y*b.Width*2 : (y+1)*b.Width*2]
			dstRow := rgba.Pix[y*rgba.Stride : y*rgba.Stride+b.Width*4]
			for x := 0; x < b.Width; x++ {
				g := srcRow[x*2+0]
				a := srcRow[x*2+1]
				dstRow[x*4+0] = g
				dstRow[x*4+1] = g
				dstRow[x*4+2] = g
				dstRow[x*4+3] = a
			}
		}
		return rgba
	default:
		return &image.NRGBA{Pix: b.Pixels, Stride: b.Width * 4, Rect: image.Rect(0, 0, b.Width, b.Height)}
	}
}

// fromImage converts back to the requested channel count. img is always
// NRGBA or Gray as produced by toImage/imaging.Resize.
func fromImage(img image.Image, channels int) *core.PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	switch channels {
	case 4:
		if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Stride == w*4 {
			return &core.PixelBuffer{Pixels: nrgba.Pix, Width: w, Height: h, Channels: 4}
		}
	case 1:
		if gray, ok := img.(*image.Gray); ok && gray.Stride == w {
			return &core.PixelBuffer{Pixels: gray.Pix, Width: w, Height: h, Channels: 1}
		}
	}

	out := make([]byte, w*h*channels)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := (y*w + x) * channels
			switch channels {
			case 1:
				out[off] = gray8(r, g, b)
			case 2:
				out[off] = gray8(r, g, b)
				out[off+1] = byte(a >> 8)
			case 3:
				out[off] = byte(r >> 8)
				out[off+1] = byte(g >> 8)
				out[off+2] = byte(b >> 8)
			case 4:
				out[off] = byte(r >> 8)
				out[off+1] = byte(g >> 8)
				out[off+2] = byte(b >> 8)
				out[off+3] = byte(a >> 8)
			}
		}
	}
	return &core.PixelBuffer{Pixels: out, Width: w, Height: h, Channels: channels}
}

func gray8(r, g, b uint32) byte {
	c := color.Gray{Y: byte((r*299 + g*587 + b*114) / 1000 >> 8)}
	return c.Y
}
