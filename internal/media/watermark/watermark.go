// Package watermark draws the service mark onto export surfaces.
package watermark

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// MarkText identifies the producing service on watermarked exports.
const MarkText = "Generated with UMKM Studio"

const (
	Margin      = 20
	MinFontSize = 16

	shadowBlur   = 4
	shadowOffset = 2
)

var (
	fillColor   = color.NRGBA{R: 255, G: 255, B: 255, A: 179}
	shadowColor = color.NRGBA{A: 255}
	shadowAlpha = color.Alpha{A: 128}
)

// Compositor draws MarkText in bold at the bottom-right corner.
type Compositor struct {
	font *opentype.Font
	text string
}

// New parses the embedded bold face.
func New() (*Compositor, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("watermark: parse font: %w", err)
	}
	return &Compositor{font: f, text: MarkText}, nil
}

// FontSize returns the pixel size used for an image of the given width.
func FontSize(width int) int {
	if s := width / 40; s > MinFontSize {
		return s
	}
	return MinFontSize
}

// Apply draws the mark onto img in place and returns it. A disabled call
// returns img untouched. Callers must apply at most once per surface.
func (c *Compositor) Apply(img *image.NRGBA, enabled bool) (*image.NRGBA, error) {
	if !enabled || img == nil {
		return img, nil
	}
	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    float64(FontSize(img.Bounds().Dx())),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("watermark: face: %w", err)
	}
	defer face.Close()

	dot := c.Anchor(img.Bounds(), face)
	c.drawShadow(img, face, dot)

	d := &font.Drawer{Dst: img, Src: image.NewUniform(fillColor), Face: face, Dot: dot}
	d.DrawString(c.text)
	return img, nil
}

// Anchor returns the baseline origin for right-aligned text with Margin from
// the right edge, and the baseline Margin above the bottom edge.
func (c *Compositor) Anchor(bounds image.Rectangle, face font.Face) fixed.Point26_6 {
	advance := font.MeasureString(face, c.text)
	x := bounds.Max.X - Margin - advance.Ceil()
	y := bounds.Max.Y - Margin
	return fixed.P(x, y)
}

func (c *Compositor) drawShadow(dst *image.NRGBA, face font.Face, dot fixed.Point26_6) {
	glyphs, _ := font.BoundString(face, c.text)
	pad := shadowBlur * 2
	minX := (dot.X + glyphs.Min.X).Floor() - pad
	minY := (dot.Y + glyphs.Min.Y).Floor() - pad
	maxX := (dot.X + glyphs.Max.X).Ceil() + pad
	maxY := (dot.Y + glyphs.Max.Y).Ceil() + pad

	layer := image.NewNRGBA(image.Rect(0, 0, maxX-minX, maxY-minY))
	d := &font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(shadowColor),
		Face: face,
		Dot:  fixed.Point26_6{X: dot.X - fixed.I(minX), Y: dot.Y - fixed.I(minY)},
	}
	d.DrawString(c.text)
	blurred := imaging.Blur(layer, shadowBlur/2)

	target := image.Rect(minX, minY, maxX, maxY).Add(image.Pt(shadowOffset, shadowOffset))
	draw.DrawMask(dst, target, blurred, image.Point{}, image.NewUniform(shadowAlpha), image.Point{}, draw.Over)
}
