package objectstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileBackend_Fetch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "module.wasm")
	if err := os.WriteFile(path, []byte("binary"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewResolver()
	r.Register("file", FileBackend{})

	got, err := r.Fetch(context.Background(), "file://"+path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "binary" {
		t.Fatalf("got %q", got)
	}
}

func TestHTTPBackend_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("module bytes"))
	}))
	defer srv.Close()

	r := NewResolver()
	r.Register("http", NewHTTPBackend(5*time.Second))

	got, err := r.Fetch(context.Background(), srv.URL+"/module.wasm")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "module bytes" {
		t.Fatalf("got %q", got)
	}
}

func TestResolver_UnknownScheme(t *testing.T) {
	r := NewResolver()
	if _, err := r.Fetch(context.Background(), "s3://bucket/key"); err == nil {
		t.Fatal("want error for unregistered scheme")
	}
}
