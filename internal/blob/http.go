// Package blob fetches the raw bytes behind an image URL.
package blob

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"imgexport/internal/domain"
)

// MaxBytes bounds a single fetched image.
const MaxBytes = 50 << 20

// HTTPSource performs a plain GET with no credentials.
type HTTPSource struct {
	client *http.Client
	allow  map[string]struct{}
	logger zerolog.Logger
}

// NewHTTPSource builds a source. An empty allowlist accepts every host.
func NewHTTPSource(timeout time.Duration, allowlist []string, logger zerolog.Logger) *HTTPSource {
	allow := make(map[string]struct{}, len(allowlist))
	for _, h := range allowlist {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allow[h] = struct{}{}
		}
	}
	return &HTTPSource{
		client: &http.Client{Timeout: timeout},
		allow:  allow,
		logger: logger,
	}
}

// Fetch downloads rawURL.
func (s *HTTPSource) Fetch(ctx context.Context, rawURL string) (domain.ImageBytes, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.ImageBytes{}, fmt.Errorf("%w: invalid url %q", domain.ErrFetch, rawURL)
	}
	if !s.Allows(u.Hostname()) {
		return domain.ImageBytes{}, fmt.Errorf("%w: host %q is not allowed", domain.ErrFetch, u.Hostname())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.ImageBytes{}, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	req.Header.Set("Accept", "image/*")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return domain.ImageBytes{}, fmt.Errorf("%w: GET %s: %v", domain.ErrFetch, u.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.ImageBytes{}, fmt.Errorf("%w: GET %s: %s", domain.ErrFetch, u.Redacted(), resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBytes+1))
	if err != nil {
		return domain.ImageBytes{}, fmt.Errorf("%w: read body: %v", domain.ErrFetch, err)
	}
	if len(data) > MaxBytes {
		return domain.ImageBytes{}, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrFetch, MaxBytes)
	}

	s.logger.Debug().
		Str("host", u.Host).
		Int("bytes", len(data)).
		Dur("elapsed", time.Since(start)).
		Msg("blob: fetched")
	return domain.ImageBytes{Data: data, MIME: resolveMIME(resp.Header.Get("Content-Type"), data)}, nil
}

// Allows reports whether host may be fetched, or linked to as a fallback.
func (s *HTTPSource) Allows(host string) bool {
	if len(s.allow) == 0 {
		return true
	}
	_, ok := s.allow[strings.ToLower(host)]
	return ok
}

// resolveMIME trusts a declared image/* type and sniffs everything else.
func resolveMIME(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}
	return sniff(data)
}

func sniff(data []byte) string {
	mt, _, _ := mime.ParseMediaType(mimetype.Detect(data).String())
	return mt
}
