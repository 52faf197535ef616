package blob

import (
	"context"
	"fmt"
	"strings"

	"imgexport/internal/domain"
	"imgexport/internal/storage"
)

// FileSource reads images kept in a local FileStore. It accepts file://key
// and bare keys.
type FileSource struct {
	store *storage.FileStore
}

func NewFileSource(store *storage.FileStore) *FileSource {
	return &FileSource{store: store}
}

func (s *FileSource) Fetch(ctx context.Context, rawURL string) (domain.ImageBytes, error) {
	key := strings.TrimPrefix(rawURL, "file://")
	data, err := s.store.Read(ctx, key)
	if err != nil {
		return domain.ImageBytes{}, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	return domain.ImageBytes{Data: data, MIME: sniff(data)}, nil
}
