// Package compress re-encodes a surface at decreasing quality until a byte
// budget is met.
package compress

import (
	"fmt"
	"image"

	"imgexport/internal/media/codec"
)

// Quality is tracked in tenths so the search is free of float drift.
const (
	startTenths     = 8
	skipStartTenths = 10
	floorTenths     = 1
)

// Target describes the byte budget for one encode.
type Target struct {
	TargetBytes     int
	Format          string
	SkipCompression bool
}

// Result is the outcome of a search.
type Result struct {
	Data     []byte
	Quality  float64
	Attempts int
}

// Compress encodes img for target. PNG output is returned after one encode:
// quality does not apply to it, so the budget cannot be enforced. When the
// floor is reached without meeting the budget, the smallest encode is
// returned. A missed budget is not an error.
func Compress(img image.Image, target Target, enc codec.Encoder) (Result, error) {
	start := startTenths
	if target.SkipCompression {
		start = skipStartTenths
	}
	data, err := enc.Encode(img, target.Format, tenths(start))
	if err != nil {
		return Result{}, err
	}
	res := Result{Data: data, Quality: tenths(start), Attempts: 1}
	if codec.Lossless(target.Format) || target.SkipCompression {
		return res, nil
	}

	best := res
	for n := 1; len(res.Data) > target.TargetBytes && start-n >= floorTenths; n++ {
		q := tenths(start - n)
		data, err := enc.Encode(img, target.Format, q)
		if err != nil {
			return Result{}, fmt.Errorf("quality %.1f: %w", q, err)
		}
		res = Result{Data: data, Quality: q, Attempts: n + 1}
		if len(data) <= len(best.Data) {
			best = res
		}
	}
	if len(res.Data) <= target.TargetBytes {
		return res, nil
	}
	best.Attempts = res.Attempts
	return best, nil
}

func tenths(n int) float64 {
	return float64(n) / 10
}
