package storage

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fileHeader builds a real *multipart.FileHeader by round-tripping a form
// through the HTTP multipart parser.
func fileHeader(t *testing.T, filename string, size int) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("poster", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("x"), size)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	_ = w.Close()

	req, err := http.NewRequest(http.MethodPost, "/", &body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(8 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}
	return req.MultipartForm.File["poster"][0]
}

func dirEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	return len(entries)
}

func TestSaveAndRemove(t *testing.T) {
	store, err := NewPosterStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewPosterStore: %v", err)
	}

	publicPath, err := store.Save(fileHeader(t, "cover.PNG", 1024))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(publicPath, PublicPrefix+"/") {
		t.Errorf("public path = %q, want %q prefix", publicPath, PublicPrefix)
	}
	if !strings.HasSuffix(publicPath, ".png") {
		t.Errorf("public path = %q, want lower-cased .png extension", publicPath)
	}
	name := strings.TrimPrefix(publicPath, PublicPrefix+"/")
	if _, err := os.Stat(filepath.Join(store.Dir, name)); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}

	if err := store.Remove(publicPath); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Dir, name)); !os.IsNotExist(err) {
		t.Error("file still present after Remove")
	}
	// Removing again is a no-op.
	if err := store.Remove(publicPath); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestSaveRejectsDisallowedExtension(t *testing.T) {
	store, err := NewPosterStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewPosterStore: %v", err)
	}
	if _, err := store.Save(fileHeader(t, "malware.exe", 128)); !errors.Is(err, ErrPosterType) {
		t.Errorf("Save(.exe) err = %v, want ErrPosterType", err)
	}
	if n := dirEntries(t, store.Dir); n != 0 {
		t.Errorf("store dir has %d entries after rejected save, want 0", n)
	}
}

func TestSaveRejectsOversizedUpload(t *testing.T) {
	store, err := NewPosterStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewPosterStore: %v", err)
	}
	// 3 MB poster: over the 2 MB limit, nothing may be written.
	if _, err := store.Save(fileHeader(t, "big.jpg", 3*1024*1024)); !errors.Is(err, ErrPosterTooLarge) {
		t.Errorf("Save(3MB) err = %v, want ErrPosterTooLarge", err)
	}
	if n := dirEntries(t, store.Dir); n != 0 {
		t.Errorf("store dir has %d entries after rejected save, want 0", n)
	}
}

func TestRemoveIgnoresForeignPaths(t *testing.T) {
	store, err := NewPosterStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewPosterStore: %v", err)
	}
	for _, p := range []string{"", "/etc/passwd", "/other/evil.png", PublicPrefix} {
		if err := store.Remove(p); err != nil {
			t.Errorf("Remove(%q) = %v, want nil", p, err)
		}
	}
}
