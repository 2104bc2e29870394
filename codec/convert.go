package codec

import (
	"image"

	"github.com/batchresize/engine/bufpool"
	"github.com/batchresize/engine/core"
)

// imageToPixelBuffer converts a decoded image.Image into a PixelBuffer with
// the given channel count (3 for opaque formats, 4 when alpha survives).
// Pixels are acquired from pool when non-nil.
func imageToPixelBuffer(img image.Image, channels int, pool *bufpool.Pool) *core.PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Fast path: already the exact in-memory layout we want.
	if channels == 4 {
		if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Stride == w*4 && bounds.Min == (image.Point{}) {
			return &core.PixelBuffer{Pixels: nrgba.Pix, Width: w, Height: h, Channels: 4}
		}
	}
	if channels == 1 {
		if gray, ok := img.(*image.Gray); ok && gray.Stride == w && bounds.Min == (image.Point{}) {
			return &core.PixelBuffer{Pixels: gray.Pix, Width: w, Height: h, Channels: 1}
		}
	}

	var out []byte
	if pool != nil {
		out = pool.Acquire(w * h * channels)
	} else {
		out = make([]byte, w*h*channels)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := (y*w + x) * channels
			switch channels {
			case 1:
				out[off] = byte((r*299 + g*587 + b*114) / 1000 >> 8)
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

// pixelBufferToNRGBA builds a stdlib image.Image view over buf for handing
// to an encoder. 3-channel buffers are expanded to opaque NRGBA; 4-channel
// buffers wrap the backing slice directly. pool, when non-nil, backs the
// scratch allocation for the expansion case.
//
// acquired reports whether out.Pix came from pool and must be released by
// the caller (via pool.Release) once the encoder is done reading it; it is
// false for the 4-channel wrap-in-place case, since that slice is buf's own
// backing array, not scratch.
func pixelBufferToNRGBA(buf *core.PixelBuffer, pool *bufpool.Pool) (out *image.NRGBA, acquired bool) {
	w, h := buf.Width, buf.Height
	if buf.Channels == 4 {
		return &image.NRGBA{Pix: buf.Pixels, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}, false
	}

	var pix []byte
	if pool != nil {
		pix = pool.Acquire(w * h * 4)
	} else {
		pix = make([]byte, w*h*4)
	}
	out = &image.NRGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	switch buf.Channels {
	case 3:
		for y := 0; y < h; y++ {
			srcRow := buf.Pixels[y*w*3 : (y+1)*w*3]
			dstRow := out.Pix[y*out.Stride : y*out.Stride+w*4]
			for x := 0; x < w; x++ {
				dstRow[x*4+0] = srcRow[x*3+0]
				dstRow[x*4+1] = srcRow[x*3+1]
				dstRow[x*4+2] = srcRow[x*3+2]
				dstRow[x*4+3] = 0xff
			}
		}
	case 1:
		for y := 0; y < h; y++ {
			srcRow := buf.Pixels[y*w : (y+1)*w]
			dstRow := out.Pix[y*out.Stride : y*out.Stride+w*4]
			for x := 0; x < w; x++ {
				g := srcRow[x]
				dstRow[x*4+0] = g
				dstRow[x*4+1] = g
				dstRow[x*4+2] = g
				dstRow[x*4+3] = 0xff
			}
		}
	case 2:
		for y := 0; y < h; y++ {
			srcRow := buf.Pixels[y*w*2 : (y+1)*w*2]
			dstRow := out.Pix[y*out.Stride : y*out.Stride+w*4]
			for x := 0; x < w; x++ {
				g := srcRow[x*2+0]
				a := srcRow[x*2+1]
				dstRow[x*4+0] = g
				dstRow[x*4+1] = g
				dstRow[x*4+2] = g
				dstRow[x*4+3] = a
			}
		}
	}
	return out, pool != nil
}

// stripAlpha drops a 4th channel, returning a new 3-channel buffer. JPEG
// has no alpha plane, so 4-channel sources must be stripped before
// encoding (spec.md §4.3).
//
// acquired reports whether the returned buffer's Pixels came from pool and
// must be released by the caller once encoding is done with it; it is
// false when buf already had no alpha channel, since out is then buf
// itself rather than a new allocation.
func stripAlpha(buf *core.PixelBuffer, pool *bufpool.Pool) (out *core.PixelBuffer, acquired bool) {
	if buf.Channels != 4 {
		return buf, false
	}
	w, h := buf.Width, buf.Height
	var pix []byte
	if pool != nil {
		pix = pool.Acquire(w * h * 3)
	} else {
		pix = make([]byte, w*h*3)
	}
	for i := 0; i < w*h; i++ {
		pix[i*3+0] = buf.Pixels[i*4+0]
		pix[i*3+1] = buf.Pixels[i*4+1]
		pix[i*3+2] = buf.Pixels[i*4+2]
	}
	return &core.PixelBuffer{Pixels: pix, Width: w, Height: h, Channels: 3}, pool != nil
}
