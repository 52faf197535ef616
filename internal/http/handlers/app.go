package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"imgexport/internal/domain"
	"imgexport/internal/export"
	"imgexport/internal/sink"
)

// Exporter is the export pipeline as the handlers use it.
type Exporter interface {
	Policy(ctx context.Context, session domain.Session) domain.ExportPolicy
	DownloadOne(ctx context.Context, req export.SingleRequest, saver export.Saver) export.Report
	DownloadAll(ctx context.Context, req export.BatchRequest, saver export.Saver) export.Report
	CopyOne(ctx context.Context, req export.SingleRequest, clip export.Clipboard) export.Report
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	Exporter Exporter
	Metrics  http.Handler
	DB       Pinger
	Logger   zerolog.Logger

	// Links vets the direct-download fallback; nil disables it.
	Links sink.Linker

	// MaxBatch caps the number of URLs in one archive request.
	MaxBatch int

	validate *validator.Validate
}

func NewApp(exp Exporter, metrics http.Handler, db Pinger, logger zerolog.Logger) *App {
	return &App{
		Exporter: exp,
		Metrics:  metrics,
		DB:       db,
		Logger:   logger,
		MaxBatch: 50,
		validate: validator.New(),
	}
}

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	JobID   string            `json:"job_id,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, apiError{Code: code, Message: message})
}

func (a *App) validationError(w http.ResponseWriter, err error) {
	fields := map[string]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range verrs {
			switch e.Tag() {
			case "required":
				fields[e.Field()] = "is required"
			case "max":
				fields[e.Field()] = "exceeds maximum"
			case "min":
				fields[e.Field()] = "below minimum"
			default:
				fields[e.Field()] = "invalid value"
			}
		}
	} else {
		fields["error"] = err.Error()
	}
	a.json(w, http.StatusBadRequest, apiError{Code: "bad_request", Message: "invalid request", Fields: fields})
}
