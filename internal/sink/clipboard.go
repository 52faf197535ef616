package sink

import (
	"context"
	"fmt"
	"sync"

	"golang.design/x/clipboard"

	"imgexport/internal/domain"
)

// SystemClipboard writes PNG images to the desktop clipboard.
type SystemClipboard struct {
	once    sync.Once
	initErr error
}

func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

// Write places a PNG on the clipboard. A clipboard that cannot be opened or
// refuses the image yields domain.ErrClipboardFocus.
func (c *SystemClipboard) Write(ctx context.Context, mimeType string, data []byte) error {
	if mimeType != domain.MIMEPNG {
		return fmt.Errorf("%w: clipboard accepts %s only, got %s", domain.ErrClipboard, domain.MIMEPNG, mimeType)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.once.Do(func() { c.initErr = clipboard.Init() })
	if c.initErr != nil {
		return fmt.Errorf("%w: %v", domain.ErrClipboardFocus, c.initErr)
	}
	if changed := clipboard.Write(clipboard.FmtImage, data); changed == nil {
		return domain.ErrClipboardFocus
	}
	return nil
}
