package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const productsSubdir = "products"

// Store keeps uploaded product images on the local filesystem and hands
// out absolute URLs for the records. Files live under
// <Dir>/products/<uuid><ext> and are served at <BaseURL>/uploads/products/.
type Store struct {
	Dir     string
	BaseURL string
}

func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, productsSubdir), 0o755); err != nil {
		return nil, fmt.Errorf("uploads: mkdir: %w", err)
	}
	return &Store{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// SaveProductImage writes one multipart file and returns its public URL.
func (s *Store) SaveProductImage(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("uploads: open upload: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	dst, err := os.Create(filepath.Join(s.Dir, productsSubdir, name))
	if err != nil {
		return "", fmt.Errorf("uploads: create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("uploads: write file: %w", err)
	}

	return s.BaseURL + "/uploads/" + productsSubdir + "/" + name, nil
}

// IsLocal reports whether the URL points at a file this store owns.
func (s *Store) IsLocal(url string) bool {
	return strings.HasPrefix(url, s.BaseURL+"/uploads/") || strings.HasPrefix(url, "/uploads/")
}

// Remove deletes the file backing url. Best effort: a file that is
// already gone is not an error.
func (s *Store) Remove(url string) error {
	if !s.IsLocal(url) {
		return nil
	}
	idx := strings.Index(url, "/uploads/")
	rel := strings.TrimPrefix(url[idx:], "/uploads/")
	// Normalize so a crafted URL cannot escape the upload dir.
	rel = path.Clean("/" + rel)
	target := filepath.Join(s.Dir, filepath.FromSlash(rel))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("uploads: remove %s: %w", rel, err)
	}
	return nil
}
