package export

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultBaseName = "image"
	maxBaseNameLen  = 60
)

// Slug turns free text such as a prompt title into a filename-safe base name.
// Diacritics are folded ("Kopi Susu Gula Aren Café" -> "kopi-susu-gula-aren-cafe").
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > maxBaseNameLen {
		out = strings.TrimRight(out[:maxBaseNameLen], "-")
	}
	return out
}

// EntryName returns the archive entry name for the zero-based index.
func EntryName(base string, index int, ext string) string {
	return fmt.Sprintf("%s-%d.%s", base, index+1, ext)
}

func singleName(base string, index *int, ext string) string {
	if index != nil && *index >= 0 {
		return EntryName(base, *index, ext)
	}
	return base + "." + ext
}

// linkName names an untransformed download after the source's own extension.
func linkName(base string, index *int, rawURL string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(strings.SplitN(rawURL, "?", 2)[0])), ".")
	switch ext {
	case "png", "jpg", "jpeg", "webp":
	default:
		ext = "jpg"
	}
	return singleName(base, index, ext)
}
