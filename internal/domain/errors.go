package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")

	ErrFetch     = errors.New("fetch failed")
	ErrDecode    = errors.New("decode failed")
	ErrEncode    = errors.New("encode failed")
	ErrClipboard = errors.New("clipboard write failed")
	ErrArchive   = errors.New("archive build failed")
)

// ErrClipboardFocus is returned when the clipboard rejects a write because the
// requesting surface is not focused or lacks permission.
var ErrClipboardFocus = &clipboardFocusError{}

type clipboardFocusError struct{}

func (*clipboardFocusError) Error() string {
	return "clipboard write rejected: document not focused or permission denied"
}

func (*clipboardFocusError) Unwrap() error { return ErrClipboard }
