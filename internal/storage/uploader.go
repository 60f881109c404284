package storage

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MediaPrefix is the URL path under which saved uploads are served.
const MediaPrefix = "/media/"

// ErrNoBaseURL is returned when a saved upload cannot be given an absolute URL.
var ErrNoBaseURL = errors.New("storage: no public base url available")

// Upload is one inbound image file.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Uploader turns an upload into a reference the generation API can read.
// requestBaseURL is the scheme and host of the inbound request, used when no
// public base URL is configured.
type Uploader interface {
	Save(ctx context.Context, upload Upload, requestBaseURL string) (string, error)
}

// MediaUploader stores uploads in a FileStore and returns their public URL.
type MediaUploader struct {
	store         *FileStore
	publicBaseURL string
}

// NewMediaUploader constructs a MediaUploader. publicBaseURL may be empty.
func NewMediaUploader(store *FileStore, publicBaseURL string) *MediaUploader {
	return &MediaUploader{store: store, publicBaseURL: strings.TrimSpace(publicBaseURL)}
}

// Save writes the upload under a random name that keeps the original extension
// when it is a known image type.
func (u *MediaUploader) Save(ctx context.Context, upload Upload, requestBaseURL string) (string, error) {
	base := u.baseURL(requestBaseURL)
	if base == "" {
		return "", ErrNoBaseURL
	}
	name := strings.ReplaceAll(uuid.NewString(), "-", "") + extension(upload.Filename)
	key, err := u.store.Write(ctx, name, upload.Body)
	if err != nil {
		return "", err
	}
	return PublicURL(base, key), nil
}

func (u *MediaUploader) baseURL(requestBaseURL string) string {
	if u.publicBaseURL != "" {
		return strings.TrimRight(u.publicBaseURL, "/")
	}
	return strings.TrimRight(strings.TrimSpace(requestBaseURL), "/")
}

// imageExtensions lists the extensions a stored upload may keep. Anything else
// is saved as .bin.
var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
	".bmp":  {},
}

func extension(filename string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if _, ok := imageExtensions[ext]; !ok {
		return ".bin"
	}
	return ext
}

// InlineUploader encodes uploads as data URLs so nothing is written to disk.
type InlineUploader struct {
	// MaxBytes bounds a single upload; zero means unbounded.
	MaxBytes int64
}

// Save returns data:<mime>;base64,<payload>.
func (u InlineUploader) Save(ctx context.Context, upload Upload, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r := upload.Body
	if u.MaxBytes > 0 {
		r = io.LimitReader(r, u.MaxBytes+1)
	}
	br := bufio.NewReader(r)
	mime := strings.TrimSpace(upload.ContentType)
	if mime == "" || mime == "application/octet-stream" {
		head, _ := br.Peek(512)
		mime = http.DetectContentType(head)
	}
	data, err := io.ReadAll(br)
	if err != nil {
		return "", fmt.Errorf("storage: read upload: %w", err)
	}
	if u.MaxBytes > 0 && int64(len(data)) > u.MaxBytes {
		return "", fmt.Errorf("storage: upload exceeds %d bytes", u.MaxBytes)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
