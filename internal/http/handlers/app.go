package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"imagerelay/internal/infra"
	"imagerelay/internal/prompts"
	"imagerelay/internal/relay"
	"imagerelay/internal/storage"
)

const defaultMaxUploadBytes = 32 << 20

// Generator runs one generation.
type Generator interface {
	Run(ctx context.Context, feature string, images relay.ImageSet) (*relay.Result, error)
}

// FeatureCatalog lists and validates generation features.
type FeatureCatalog interface {
	Has(feature string) bool
	Features() []prompts.Feature
}

type App struct {
	Relay          Generator
	Features       FeatureCatalog
	Uploader       storage.Uploader
	Logger         *infra.Logger
	MaxUploadBytes int64
}

func NewApp(gen Generator, features FeatureCatalog, uploader storage.Uploader, logger *infra.Logger, maxUploadBytes int64) *App {
	if logger == nil {
		l := infra.Logger(zerolog.New(io.Discard))
		logger = &l
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &App{
		Relay:          gen,
		Features:       features,
		Uploader:       uploader,
		Logger:         logger,
		MaxUploadBytes: maxUploadBytes,
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorBody{Error: errorDetail{
		Code:      code,
		Message:   message,
		RequestID: w.Header().Get("X-Request-ID"),
	}})
}

// logger returns the request-scoped logger when the logging middleware set one.
func (a *App) logger(r *http.Request) *infra.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return a.Logger
}
