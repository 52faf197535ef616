package domain

const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEWebP = "image/webp"
)

// ImageBytes is a fetched, immutable image payload.
type ImageBytes struct {
	Data []byte
	MIME string
}

// ExportPolicy decides which transformations an export skips. The two flags
// are independent.
type ExportPolicy struct {
	SkipWatermark   bool `json:"skip_watermark"`
	SkipCompression bool `json:"skip_compression"`
}
