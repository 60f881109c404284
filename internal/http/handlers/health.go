package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListFeatures returns the configured generation features.
func (a *App) ListFeatures(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"features": a.Features.Features()})
}
