package sink

import (
	"context"
	"fmt"
	"sync"

	"imgexport/internal/export"
	"imgexport/internal/storage"
)

// DirSaver writes exports into a FileStore. SaveLink copies the source bytes
// verbatim.
type DirSaver struct {
	store *storage.FileStore
	raw   export.Source

	mu    sync.Mutex
	paths []string
}

func NewDirSaver(store *storage.FileStore, raw export.Source) *DirSaver {
	return &DirSaver{store: store, raw: raw}
}

func (d *DirSaver) Save(ctx context.Context, filename, _ string, data []byte) error {
	key, err := d.store.Write(ctx, filename, data)
	if err != nil {
		return err
	}
	d.record(key)
	return nil
}

func (d *DirSaver) SaveLink(ctx context.Context, filename, url string) error {
	if d.raw == nil {
		return fmt.Errorf("sink: no source for direct download of %s", url)
	}
	img, err := d.raw.Fetch(ctx, url)
	if err != nil {
		return err
	}
	return d.Save(ctx, filename, img.MIME, img.Data)
}

// Paths lists the absolute paths written so far.
func (d *DirSaver) Paths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.paths...)
}

func (d *DirSaver) record(key string) {
	p, err := d.store.Path(key)
	if err != nil {
		return
	}
	d.mu.Lock()
	d.paths = append(d.paths, p)
	d.mu.Unlock()
}
