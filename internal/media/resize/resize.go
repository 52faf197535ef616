// Package resize caps image width while preserving aspect ratio.
package resize

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Dimensions returns the output size for a source of srcW x srcH capped at
// maxWidth. A maxWidth <= 0 means unconstrained. Images are never upscaled.
// The scaled height is rounded to the nearest pixel.
func Dimensions(srcW, srcH, maxWidth int) (int, int) {
	if maxWidth <= 0 || srcW <= maxWidth {
		return srcW, srcH
	}
	scale := float64(maxWidth) / float64(srcW)
	h := int(math.Round(float64(srcH) * scale))
	if h < 1 {
		h = 1
	}
	return maxWidth, h
}

// Apply returns a new surface sized by Dimensions. The input is never
// modified or returned, so callers may draw on the result freely.
func Apply(img image.Image, maxWidth int) *image.NRGBA {
	b := img.Bounds()
	w, h := Dimensions(b.Dx(), b.Dy(), maxWidth)
	if w == b.Dx() && h == b.Dy() {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}
