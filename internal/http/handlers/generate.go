package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"imagerelay/internal/relay"
	"imagerelay/internal/storage"
)

const multipartMemory = 8 << 20

// GenerateUpload accepts multipart image1..image4 files, stores them through the
// configured uploader and runs the feature on the resulting references.
func (a *App) GenerateUpload(w http.ResponseWriter, r *http.Request) {
	feature, ok := a.feature(w, r)
	if !ok {
		return
	}

	if !a.limitBody(w, r) {
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "body exceeds size limit")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	baseURL := requestBaseURL(r)
	named := make(map[string]string, len(relay.WellKnownImageKeys))
	for _, field := range relay.WellKnownImageKeys {
		file, header, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid file field "+field)
			return
		}
		ref, err := a.Uploader.Save(r.Context(), storage.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		}, baseURL)
		_ = file.Close()
		if err != nil {
			a.logger(r).Error().Err(err).Str("field", field).Msg("http: store upload failed")
			a.error(w, http.StatusInternalServerError, "internal", "internal server error")
			return
		}
		named[field] = ref
	}

	a.generate(w, r, feature, relay.ImageSet{Named: named})
}

// GenerateJSON accepts image references directly, either as a JSON array or as an
// object with image1..image4 and/or an "images" array.
func (a *App) GenerateJSON(w http.ResponseWriter, r *http.Request) {
	feature, ok := a.feature(w, r)
	if !ok {
		return
	}

	if !a.limitBody(w, r) {
		return
	}
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "body exceeds size limit")
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	images, err := decodeImageSet(raw)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	a.generate(w, r, feature, images)
}

func (a *App) feature(w http.ResponseWriter, r *http.Request) (string, bool) {
	feature := strings.TrimSpace(chi.URLParam(r, "feature"))
	if feature == "" || !a.Features.Has(feature) {
		a.error(w, http.StatusNotFound, "not_found", "unknown feature")
		return "", false
	}
	return feature, true
}

// limitBody rejects a declared oversized body and caps the rest while reading.
func (a *App) limitBody(w http.ResponseWriter, r *http.Request) bool {
	if r.ContentLength > a.MaxUploadBytes {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "body exceeds size limit")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	return true
}

func (a *App) generate(w http.ResponseWriter, r *http.Request, feature string, images relay.ImageSet) {
	result, err := a.Relay.Run(r.Context(), feature, images)
	if err != nil {
		var svcErr *relay.ServiceError
		if errors.As(err, &svcErr) && svcErr.Fault == relay.FaultClient {
			a.error(w, http.StatusBadRequest, "bad_request", svcErr.Message)
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	a.json(w, http.StatusOK, result)
}

func decodeImageSet(raw json.RawMessage) (relay.ImageSet, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return relay.ImageSet{}, err
		}
		return relay.ImageSet{Ordered: stringsOnly(items)}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return relay.ImageSet{}, err
	}
	set := relay.ImageSet{Named: make(map[string]string, len(relay.WellKnownImageKeys))}
	for _, key := range relay.WellKnownImageKeys {
		if ref, ok := jsonString(fields[key]); ok {
			set.Named[key] = ref
		}
	}
	if v, ok := fields["images"]; ok {
		var items []json.RawMessage
		if json.Unmarshal(v, &items) == nil {
			set.Extra = stringsOnly(items)
		}
	}
	return set, nil
}

// stringsOnly keeps the string elements of a JSON array.
func stringsOnly(items []json.RawMessage) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := jsonString(item); ok {
			out = append(out, s)
		}
	}
	return out
}

func jsonString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-Proto"), ",")[0]); proto != "" {
		scheme = strings.ToLower(proto)
	}
	host := r.Host
	if fwd := strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-Host"), ",")[0]); fwd != "" {
		host = fwd
	}
	if host == "" {
		return ""
	}
	return scheme + "://" + host
}
