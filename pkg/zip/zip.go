package zip

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"time"
)

type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// ArchiveAssets packs assets into one zip blob. Entries keep the given order;
// empty or duplicate filenames are rejected.
func ArchiveAssets(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	seen := make(map[string]struct{}, len(assets))
	now := time.Now()
	for _, asset := range assets {
		if asset.Filename == "" {
			return nil, errors.New("zip: empty filename")
		}
		if _, dup := seen[asset.Filename]; dup {
			return nil, fmt.Errorf("zip: duplicate entry %q", asset.Filename)
		}
		seen[asset.Filename] = struct{}{}
		// Images are already compressed.
		w, err := zw.CreateHeader(&zip.FileHeader{Name: asset.Filename, Method: zip.Store, Modified: now})
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", asset.Filename, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", asset.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}
