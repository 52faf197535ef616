package blob

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"imgexport/internal/domain"
	"imgexport/internal/export"
)

// ErrNotLinkable means a URL has no public address the service can hand out.
var ErrNotLinkable = errors.New("blob: url cannot be linked")

// Router picks a source by URL scheme. Unset sources reject their scheme.
// StorageBaseURL is the public prefix of the local store; without it storage
// keys cannot be linked.
type Router struct {
	HTTP           export.Source
	File           export.Source
	S3             export.Source
	StorageBaseURL string
}

var _ export.Source = (*Router)(nil)

func (r *Router) Fetch(ctx context.Context, rawURL string) (domain.ImageBytes, error) {
	src := r.pick(rawURL)
	if src == nil {
		return domain.ImageBytes{}, fmt.Errorf("%w: no source for %q", domain.ErrFetch, rawURL)
	}
	return src.Fetch(ctx, rawURL)
}

// PublicURL returns the absolute address a client may be sent to for rawURL.
// http(s) URLs must pass the HTTP source's host allowlist, storage keys are
// joined onto StorageBaseURL, and anything else is refused.
func (r *Router) PublicURL(rawURL string) (string, error) {
	scheme, rest, found := strings.Cut(rawURL, "://")
	if !found {
		return r.storageURL(rawURL)
	}
	switch strings.ToLower(scheme) {
	case "http", "https":
		u, err := url.Parse(rawURL)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("%w: invalid url %q", ErrNotLinkable, rawURL)
		}
		checker, ok := r.HTTP.(interface{ Allows(string) bool })
		if !ok || !checker.Allows(u.Hostname()) {
			return "", fmt.Errorf("%w: host %q is not allowed", ErrNotLinkable, u.Hostname())
		}
		return u.String(), nil
	case "file":
		return r.storageURL(rest)
	}
	return "", fmt.Errorf("%w: scheme %q", ErrNotLinkable, scheme)
}

func (r *Router) storageURL(key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if r.StorageBaseURL == "" || key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: storage key %q", ErrNotLinkable, key)
	}
	base, err := url.Parse(r.StorageBaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("%w: storage base %q", ErrNotLinkable, r.StorageBaseURL)
	}
	return base.JoinPath(key).String(), nil
}

func (r *Router) pick(rawURL string) export.Source {
	scheme, _, found := strings.Cut(rawURL, "://")
	if !found {
		return r.File
	}
	switch strings.ToLower(scheme) {
	case "http", "https":
		return r.HTTP
	case "file":
		return r.File
	case "s3":
		return r.S3
	}
	return nil
}
