// Package httpapi exposes the presentation commands over HTTP/JSON.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/roach88/shelflife/internal/app"
	"github.com/roach88/shelflife/internal/expiry"
	"github.com/roach88/shelflife/internal/inventory"
	"github.com/roach88/shelflife/internal/scan"
	"github.com/roach88/shelflife/internal/view"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Server serves an App.
type Server struct {
	app    *app.App
	logger *slog.Logger
}

// NewServer creates a Server. A nil logger uses slog.Default().
func NewServer(a *app.App, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{app: a, logger: logger}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods("GET")

	r.HandleFunc("/records", s.listRecords).Methods("GET")
	r.HandleFunc("/records", s.commitRecord).Methods("POST")
	r.HandleFunc("/records/{id}", s.getRecord).Methods("GET")
	r.HandleFunc("/records/{id}", s.removeRecord).Methods("DELETE")

	r.HandleFunc("/summary", s.summary).Methods("GET")
	r.HandleFunc("/snapshot", s.snapshot).Methods("GET")
	r.HandleFunc("/filter", s.getFilter).Methods("GET")
	r.HandleFunc("/filter", s.setFilter).Methods("PUT")

	r.HandleFunc("/scan", s.openScan).Methods("POST")
	r.HandleFunc("/scan", s.scanStatus).Methods("GET")
	r.HandleFunc("/scan", s.cancelScan).Methods("DELETE")

	r.Use(s.logRequests)
	return r
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field,omitempty"`
	} `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	s.writeJSON(w, status, body)
}

// writeAppError maps domain errors onto status codes.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	var ve *inventory.ValidationError
	var se *scan.Error
	switch {
	case errors.As(err, &ve):
		var body errorBody
		body.Error.Code = "VALIDATION_FAILED"
		body.Error.Message = err.Error()
		body.Error.Field = ve.Field
		s.writeJSON(w, http.StatusUnprocessableEntity, body)
	case expiry.IsInvalidDate(err):
		s.writeError(w, http.StatusUnprocessableEntity, "INVALID_DATE", err.Error())
	case scan.IsAlreadyOpen(err):
		s.writeError(w, http.StatusConflict, "ALREADY_OPEN", err.Error())
	case errors.As(err, &se):
		s.writeError(w, http.StatusServiceUnavailable, string(se.Reason), err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type rowsResponse struct {
	Reference time.Time   `json:"reference"`
	Filter    view.Filter `json:"filter"`
	Rows      []view.Row  `json:"rows"`
}

// listRecords projects with the query's filters, falling back to the
// current filter for parameters left out.
func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	f := s.app.Filter()
	q := r.URL.Query()
	if q.Has("bucket") {
		b, err := view.ParseBucketFilter(q.Get("bucket"))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "BAD_FILTER", err.Error())
			return
		}
		f.Bucket = b
	}
	if q.Has("location") {
		l, err := view.ParseLocationFilter(q.Get("location"))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "BAD_FILTER", err.Error())
			return
		}
		f.Location = l
	}

	rows, ref, err := s.app.View(f)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rowsResponse{Reference: ref, Filter: f, Rows: rows})
}

func (s *Server) commitRecord(w http.ResponseWriter, r *http.Request) {
	var d inventory.Draft
	if err := decodeBody(r, &d); err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	rec, err := s.app.CommitDraft(r.Context(), d)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, ok := s.app.Record(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", "no such record")
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) removeRecord(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	removed, err := s.app.RemoveRecord(r.Context(), id)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "removed": removed})
}

type summaryResponse struct {
	Reference time.Time    `json:"reference"`
	Summary   view.Summary `json:"summary"`
}

func (s *Server) summary(w http.ResponseWriter, _ *http.Request) {
	sum, ref, err := s.app.Summary()
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summaryResponse{Reference: ref, Summary: sum})
}

func (s *Server) snapshot(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.app.Snapshot()
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) getFilter(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.app.Filter())
}

func (s *Server) setFilter(w http.ResponseWriter, r *http.Request) {
	var f view.Filter
	if err := decodeBody(r, &f); err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_FILTER", err.Error())
		return
	}
	s.app.SetFilter(f)
	s.writeJSON(w, http.StatusOK, f)
}

func (s *Server) openScan(w http.ResponseWriter, r *http.Request) {
	if _, err := s.app.OpenScan(r.Context()); err != nil {
		s.writeAppError(w, err)
		return
	}
	status, _ := s.app.ScanStatus()
	s.writeJSON(w, http.StatusAccepted, status)
}

func (s *Server) scanStatus(w http.ResponseWriter, _ *http.Request) {
	status, ok := s.app.ScanStatus()
	if !ok {
		s.writeError(w, http.StatusNotFound, "NO_SESSION", "no scan session has been opened")
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) cancelScan(w http.ResponseWriter, _ *http.Request) {
	s.app.CancelScan()
	status, ok := s.app.ScanStatus()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
