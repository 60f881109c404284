package httpapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"imagerelay/internal/http/handlers"
)

func TestMediaServesStoredFilesWithoutSniffing(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.bin"), []byte("<html>x</html>"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	router := NewRouter(handlers.NewApp(nil, nil, nil, nil, 0), Options{
		Logger:    zerolog.Nop(),
		MediaRoot: root,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/a.bin", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q, want nosniff", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("directory status = %d, want 404", rec.Code)
	}
}
