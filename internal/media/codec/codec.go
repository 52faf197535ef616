// Package codec wraps raster decode/encode. It applies no policy.
package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/webp"

	"imgexport/internal/domain"
)

// Encoder turns a surface into bytes of the given MIME type.
type Encoder interface {
	Encode(img image.Image, mime string, quality float64) ([]byte, error)
}

// Codec is the default decoder/encoder backed by the standard image codecs.
type Codec struct{}

var _ Encoder = Codec{}

// Decode parses data as mime and returns a freshly allocated NRGBA surface.
// An empty or unknown mime lets the registered formats sniff the payload.
func (Codec) Decode(data []byte, mime string) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrDecode)
	}
	var (
		img image.Image
		err error
	)
	r := bytes.NewReader(data)
	switch normalize(mime) {
	case domain.MIMEPNG:
		img, err = png.Decode(r)
	case domain.MIMEJPEG:
		img, err = jpeg.Decode(r)
	case domain.MIMEWebP:
		img, err = webp.Decode(r)
	default:
		img, _, err = image.Decode(r)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDecode, mime, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image %dx%d", domain.ErrDecode, b.Dx(), b.Dy())
	}
	return imaging.Clone(img), nil
}

// Encode serializes img. quality is in [0.1, 1.0] and only used for JPEG.
func (Codec) Encode(img image.Image, mime string, quality float64) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil surface", domain.ErrEncode)
	}
	var buf bytes.Buffer
	switch normalize(mime) {
	case domain.MIMEPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("%w: png: %v", domain.ErrEncode, err)
		}
	case domain.MIMEJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality(quality)}); err != nil {
			return nil, fmt.Errorf("%w: jpeg: %v", domain.ErrEncode, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported output type %q", domain.ErrEncode, mime)
	}
	return buf.Bytes(), nil
}

// JPEGQuality maps a [0,1] quality to the encoder's 1-100 scale.
func JPEGQuality(q float64) int {
	v := int(math.Round(q * 100))
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}

// Lossless reports whether quality has no effect for mime.
func Lossless(mime string) bool {
	return normalize(mime) == domain.MIMEPNG
}

// Extension returns the file extension used for mime, without the dot.
func Extension(mime string) string {
	switch normalize(mime) {
	case domain.MIMEPNG:
		return "png"
	case domain.MIMEWebP:
		return "webp"
	default:
		return "jpg"
	}
}

func normalize(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "image/jpg" {
		return domain.MIMEJPEG
	}
	return mime
}
