package blob

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"imgexport/internal/domain"
	"imgexport/internal/storage"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestHTTPSourceFetch(t *testing.T) {
	body := samplePNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/typed.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(body)
		case "/generic":
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write(body)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(5*time.Second, nil, zerolog.Nop())
	ctx := context.Background()

	got, err := src.Fetch(ctx, srv.URL+"/typed.png")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.MIME != domain.MIMEPNG || !bytes.Equal(got.Data, body) {
		t.Fatalf("Fetch = %q, %d bytes", got.MIME, len(got.Data))
	}

	got, err = src.Fetch(ctx, srv.URL+"/generic")
	if err != nil {
		t.Fatalf("Fetch generic: %v", err)
	}
	if got.MIME != domain.MIMEPNG {
		t.Fatalf("sniffed MIME = %q, want image/png", got.MIME)
	}

	_, err = src.Fetch(ctx, srv.URL+"/missing.png")
	if !errors.Is(err, domain.ErrFetch) || !strings.Contains(err.Error(), "404") {
		t.Fatalf("err = %v, want ErrFetch with 404", err)
	}
}

func TestHTTPSourceAllowlist(t *testing.T) {
	src := NewHTTPSource(time.Second, []string{"cdn.example.com"}, zerolog.Nop())
	_, err := src.Fetch(context.Background(), "https://evil.example.org/a.png")
	if !errors.Is(err, domain.ErrFetch) || !strings.Contains(err.Error(), "not allowed") {
		t.Fatalf("err = %v", err)
	}
	if !src.Allows("CDN.example.com") {
		t.Fatalf("allowlist should be case-insensitive")
	}
}

func TestHTTPSourceRejectsBadURL(t *testing.T) {
	src := NewHTTPSource(time.Second, nil, zerolog.Nop())
	for _, u := range []string{"ftp://x/y.png", "not a url", "https:///nohost"} {
		if _, err := src.Fetch(context.Background(), u); !errors.Is(err, domain.ErrFetch) {
			t.Fatalf("Fetch(%q) err = %v", u, err)
		}
	}
}

func TestFileSource(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	body := samplePNG(t)
	if _, err := store.Write(context.Background(), "gen/a.png", body); err != nil {
		t.Fatalf("Write: %v", err)
	}
	src := NewFileSource(store)
	for _, u := range []string{"file://gen/a.png", "gen/a.png"} {
		got, err := src.Fetch(context.Background(), u)
		if err != nil {
			t.Fatalf("Fetch(%q): %v", u, err)
		}
		if got.MIME != domain.MIMEPNG {
			t.Fatalf("MIME = %q", got.MIME)
		}
	}
	_, err = src.Fetch(context.Background(), "file://gen/missing.png")
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}
}

type fakeGetter struct {
	objects map[string][]byte
	last    *s3.GetObjectInput
}

func (f *fakeGetter) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.last = in
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Source(t *testing.T) {
	body := samplePNG(t)
	getter := &fakeGetter{objects: map[string][]byte{"assets/gen/a.png": body}}
	src := NewS3Source(getter)

	got, err := src.Fetch(context.Background(), "s3://assets/gen/a.png")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if aws.ToString(getter.last.Key) != "gen/a.png" || got.MIME != domain.MIMEPNG {
		t.Fatalf("key = %q mime = %q", aws.ToString(getter.last.Key), got.MIME)
	}

	_, err = src.Fetch(context.Background(), "s3://assets/missing.png")
	if !errors.Is(err, domain.ErrFetch) || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrFetch and ErrNotFound", err)
	}

	for _, bad := range []string{"s3://bucket-only", "s3:///key", "https://x/y"} {
		if _, _, err := splitS3URL(bad); err == nil {
			t.Fatalf("splitS3URL(%q) expected error", bad)
		}
	}
}

type namedSource string

func (n namedSource) Fetch(ctx context.Context, url string) (domain.ImageBytes, error) {
	return domain.ImageBytes{MIME: string(n)}, nil
}

func TestRouterDispatch(t *testing.T) {
	r := &Router{HTTP: namedSource("http"), File: namedSource("file")}
	tests := map[string]string{
		"https://cdn/a.png": "http",
		"HTTP://cdn/a.png":  "http",
		"file://a.png":      "file",
		"gen/a.png":         "file",
	}
	for u, want := range tests {
		got, err := r.Fetch(context.Background(), u)
		if err != nil || got.MIME != want {
			t.Fatalf("Fetch(%q) = %q, %v; want %q", u, got.MIME, err, want)
		}
	}
	if _, err := r.Fetch(context.Background(), "s3://b/k"); !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("unset s3 source should fail with ErrFetch, got %v", err)
	}
}

func TestRouterPublicURL(t *testing.T) {
	r := &Router{
		HTTP:           NewHTTPSource(time.Second, []string{"cdn.example.com"}, zerolog.Nop()),
		StorageBaseURL: "https://cdn.example.com/static",
	}
	tests := []struct {
		in   string
		want string
	}{
		{in: "https://cdn.example.com/gen/a.png", want: "https://cdn.example.com/gen/a.png"},
		{in: "HTTP://CDN.example.com/a.png", want: "http://CDN.example.com/a.png"},
		{in: "gen/a.png", want: "https://cdn.example.com/static/gen/a.png"},
		{in: "file:///gen/b.png", want: "https://cdn.example.com/static/gen/b.png"},
	}
	for _, tc := range tests {
		got, err := r.PublicURL(tc.in)
		if err != nil || got != tc.want {
			t.Fatalf("PublicURL(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}

	for _, in := range []string{
		"https://evil.example.org/phish.png",
		"s3://bucket/key.png",
		"javascript://alert(1)",
		"../secret.png",
		"",
	} {
		if _, err := r.PublicURL(in); !errors.Is(err, ErrNotLinkable) {
			t.Fatalf("PublicURL(%q) err = %v, want ErrNotLinkable", in, err)
		}
	}

	bare := &Router{HTTP: namedSource("http")}
	if _, err := bare.PublicURL("https://cdn.example.com/a.png"); !errors.Is(err, ErrNotLinkable) {
		t.Fatalf("source without an allowlist must not be linkable, got %v", err)
	}
	if _, err := bare.PublicURL("gen/a.png"); !errors.Is(err, ErrNotLinkable) {
		t.Fatalf("storage key without a base url must not be linkable, got %v", err)
	}
}
