package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"imgexport/internal/export"
	"imgexport/internal/middleware"
	"imgexport/internal/sink"
)

type singleQuery struct {
	URL      string `validate:"required,max=2048"`
	Index    *int   `validate:"omitempty,min=0"`
	BaseName string `validate:"max=120"`
}

type archiveRequest struct {
	URLs     []string `json:"urls" validate:"required,min=1,dive,required,max=2048"`
	BaseName string   `json:"base_name" validate:"max=120"`
}

func (a *App) parseSingle(w http.ResponseWriter, r *http.Request) (export.SingleRequest, bool) {
	q := r.URL.Query()
	params := singleQuery{URL: strings.TrimSpace(q.Get("url")), BaseName: q.Get("base_name")}
	if raw := q.Get("index"); raw != "" {
		i, err := strconv.Atoi(raw)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "index must be an integer")
			return export.SingleRequest{}, false
		}
		params.Index = &i
	}
	if err := a.validate.Struct(params); err != nil {
		a.validationError(w, err)
		return export.SingleRequest{}, false
	}
	return export.SingleRequest{
		Session:  middleware.SessionFromContext(r.Context()),
		URL:      params.URL,
		Index:    params.Index,
		BaseName: params.BaseName,
	}, true
}

// Download answers with the processed JPEG, or redirects to the source when
// processing fails.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	req, ok := a.parseSingle(w, r)
	if !ok {
		return
	}
	saver := sink.NewResponseSaver(w, r, a.Links)
	rep := a.Exporter.DownloadOne(r.Context(), req, saver)
	if !saver.Written() {
		a.reportError(w, rep)
	}
}

// Archive answers with a zip of every image that could be processed.
func (a *App) Archive(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var body archiveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.validate.Struct(body); err != nil {
		a.validationError(w, err)
		return
	}
	if a.MaxBatch > 0 && len(body.URLs) > a.MaxBatch {
		a.error(w, http.StatusBadRequest, "bad_request", "too many urls, max "+strconv.Itoa(a.MaxBatch))
		return
	}
	saver := sink.NewResponseSaver(w, r, a.Links)
	rep := a.Exporter.DownloadAll(r.Context(), export.BatchRequest{
		Session:  middleware.SessionFromContext(r.Context()),
		URLs:     body.URLs,
		BaseName: body.BaseName,
	}, saver)
	if !saver.Written() {
		a.reportError(w, rep)
	}
}

// Copy answers with a PNG marked for the clipboard.
func (a *App) Copy(w http.ResponseWriter, r *http.Request) {
	req, ok := a.parseSingle(w, r)
	if !ok {
		return
	}
	clip := sink.NewResponseClipboard(w)
	rep := a.Exporter.CopyOne(r.Context(), req, clip)
	if !clip.Written() {
		a.reportError(w, rep)
	}
}

// Policy shows what an export would do for the caller.
func (a *App) Policy(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())
	a.json(w, http.StatusOK, map[string]any{
		"authenticated": session.Authenticated(),
		"policy":        a.Exporter.Policy(r.Context(), session),
	})
}

func (a *App) reportError(w http.ResponseWriter, rep export.Report) {
	status := http.StatusInternalServerError
	switch rep.Kind {
	case export.KindProcessing:
		status = http.StatusBadGateway
	case export.KindClipboard:
		status = http.StatusUnprocessableEntity
	}
	code := string(rep.Kind)
	if code == "" {
		code = "internal"
	}
	a.json(w, status, apiError{Code: code, Message: rep.Message, JobID: rep.JobID})
}
