// Package sink delivers finished exports: HTTP responses for the API, files
// and the system clipboard for the CLI.
package sink

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"imgexport/internal/domain"
)

// ClipboardHeader marks a response the browser should place on the clipboard.
const ClipboardHeader = "X-Export-Sink"

var (
	errAlreadyWritten = errors.New("sink: response already written")
	errNoLinks        = errors.New("sink: direct links are disabled")
)

// Linker maps a source URL to an address that is safe to redirect a client to.
type Linker interface {
	PublicURL(rawURL string) (string, error)
}

// ResponseSaver answers a download request. A response can only be written
// once; Written lets the handler decide whether it still owns the body.
// Without a Linker every direct-link fallback is refused.
type ResponseSaver struct {
	w       http.ResponseWriter
	r       *http.Request
	links   Linker
	written bool
}

func NewResponseSaver(w http.ResponseWriter, r *http.Request, links Linker) *ResponseSaver {
	return &ResponseSaver{w: w, r: r, links: links}
}

func (s *ResponseSaver) Written() bool { return s.written }

// Save streams data as an attachment.
func (s *ResponseSaver) Save(ctx context.Context, filename, mimeType string, data []byte) error {
	if s.written {
		return errAlreadyWritten
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.written = true
	h := s.w.Header()
	h.Set("Content-Type", mimeType)
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	h.Set("Cache-Control", "no-store")
	s.w.WriteHeader(http.StatusOK)
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("sink: write response: %w", err)
	}
	return nil
}

// SaveLink redirects the client to the untouched source, provided the Linker
// can give it a public address. A refused link leaves the response unwritten.
func (s *ResponseSaver) SaveLink(ctx context.Context, filename, url string) error {
	if s.written {
		return errAlreadyWritten
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.links == nil {
		return errNoLinks
	}
	target, err := s.links.PublicURL(url)
	if err != nil {
		return fmt.Errorf("sink: direct link: %w", err)
	}
	s.written = true
	s.w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	http.Redirect(s.w, s.r, target, http.StatusFound)
	return nil
}

// ResponseClipboard hands a PNG to the browser, which writes it to the
// clipboard while the page has focus.
type ResponseClipboard struct {
	w       http.ResponseWriter
	written bool
}

func NewResponseClipboard(w http.ResponseWriter) *ResponseClipboard {
	return &ResponseClipboard{w: w}
}

func (c *ResponseClipboard) Written() bool { return c.written }

func (c *ResponseClipboard) Write(ctx context.Context, mimeType string, data []byte) error {
	if mimeType != domain.MIMEPNG {
		return fmt.Errorf("%w: clipboard accepts %s only, got %s", domain.ErrClipboard, domain.MIMEPNG, mimeType)
	}
	if c.written {
		return errAlreadyWritten
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.written = true
	h := c.w.Header()
	h.Set("Content-Type", domain.MIMEPNG)
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set(ClipboardHeader, "clipboard")
	h.Set("Cache-Control", "no-store")
	c.w.WriteHeader(http.StatusOK)
	if _, err := c.w.Write(data); err != nil {
		return fmt.Errorf("sink: write response: %w", err)
	}
	return nil
}
