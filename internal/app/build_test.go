package app

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/rs/zerolog"

	"imgexport/internal/domain"
	"imgexport/internal/export"
	"imgexport/internal/infra"
)

type recordingSaver struct {
	names []string
}

func (r *recordingSaver) Save(ctx context.Context, filename, mime string, data []byte) error {
	r.names = append(r.names, filename)
	return nil
}

func (r *recordingSaver) SaveLink(ctx context.Context, filename, url string) error {
	r.names = append(r.names, "link:"+filename)
	return nil
}

func TestBuildReadsLocalFiles(t *testing.T) {
	t.Setenv("STORAGE_PATH", t.TempDir())
	t.Setenv("S3_BUCKET", "")
	t.Setenv("EXPORT_BASE_NAME", "Katalog Produk")
	cfg, err := infra.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	p, err := Build(context.Background(), cfg, zerolog.Nop(), Extras{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.Sources.S3 != nil {
		t.Fatalf("s3 source should stay unset without a bucket")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	if _, err := p.Files.Write(context.Background(), "gen/a.png", buf.Bytes()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	saver := &recordingSaver{}
	rep := p.Exporter.DownloadOne(context.Background(), export.SingleRequest{
		Session: domain.Session{},
		URL:     "file://gen/a.png",
	}, saver)
	if rep.State != export.StateSucceeded {
		t.Fatalf("state = %s (%v)", rep.State, rep.Err())
	}
	if len(saver.names) != 1 || saver.names[0] != "katalog-produk.jpg" {
		t.Fatalf("saved = %v", saver.names)
	}
}
