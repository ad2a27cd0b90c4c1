package uploads

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func uploadedFile(t *testing.T, name, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("images", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["images"][0]
}

func TestSaveAndRemove(t *testing.T) {
	s, err := NewStore(t.TempDir(), "http://localhost:8080/")
	require.NoError(t, err)

	url, err := s.SaveProductImage(uploadedFile(t, "photo.JPG", "bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/products/"))
	require.True(t, strings.HasSuffix(url, ".jpg"))
	require.True(t, s.IsLocal(url))

	rel := strings.TrimPrefix(url, "http://localhost:8080/uploads/")
	_, err = os.Stat(filepath.Join(s.Dir, rel))
	require.NoError(t, err)

	require.NoError(t, s.Remove(url))
	_, err = os.Stat(filepath.Join(s.Dir, rel))
	require.True(t, os.IsNotExist(err))

	// Removing twice, or removing a foreign URL, is a no-op.
	require.NoError(t, s.Remove(url))
	require.NoError(t, s.Remove("https://cdn.example.com/x.jpg"))
}

func TestIsLocal(t *testing.T) {
	s, err := NewStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	require.True(t, s.IsLocal("/uploads/products/a.jpg"))
	require.True(t, s.IsLocal("http://localhost:8080/uploads/products/a.jpg"))
	require.False(t, s.IsLocal("https://cdn.example.com/a.jpg"))
}
