package imagestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fileStore serves images from a local directory, matching the reference
// deployment's on-device storage. Used when no bucket is configured.
type fileStore struct {
	baseDir string
}

// NewFileStore creates a filesystem-backed image store rooted at baseDir.
func NewFileStore(baseDir string) Store {
	return &fileStore{baseDir: baseDir}
}

func (s *fileStore) Fetch(_ context.Context, ref string) ([]byte, error) {
	path := filepath.Join(s.baseDir, filepath.Clean("/"+ref))
	if !strings.HasPrefix(path, filepath.Clean(s.baseDir)+string(os.PathSeparator)) {
		return nil, fmt.Errorf("image ref %q escapes base directory", ref)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %q: %w", ref, err)
	}
	return data, nil
}

var _ Store = (*fileStore)(nil)
