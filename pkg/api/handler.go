package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hazyhaar/reviewlab/pkg/dataset"
	"github.com/hazyhaar/reviewlab/pkg/kit"
	"github.com/hazyhaar/reviewlab/pkg/session"
	"github.com/hazyhaar/reviewlab/pkg/textclean"
)

const (
	maxUploadSize = 32 << 20

	// DefaultTimeout bounds a single endpoint call.
	DefaultTimeout = 2 * time.Minute
)

// Config wires the router to its collaborators.
type Config struct {
	Sessions   *session.Manager
	NewCleaner CleanerFactory
	Defaults   textclean.Options
	Parse      dataset.Options
	Logger     *slog.Logger
	Timeout    time.Duration
}

func (cfg Config) withDefaults() Config {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.NewCleaner == nil {
		logger := cfg.Logger
		cfg.NewCleaner = func(o textclean.Options) *textclean.Cleaner {
			return textclean.New(o, textclean.WithLogger(logger))
		}
	}
	return cfg
}

// wrap applies the middleware shared by every transport.
func (cfg Config) wrap(name string, e kit.Endpoint) kit.Endpoint {
	return kit.Chain(kit.Logging(cfg.Logger, name), kit.Timeout(cfg.Timeout))(e)
}

// NewRouter returns an http.Handler with all API routes.
func NewRouter(cfg Config) http.Handler {
	cfg = cfg.withDefaults()

	mux := http.NewServeMux()
	h := &handler{
		cleanTexts:    cfg.wrap("clean_text", cleanTextsEndpoint(cfg.NewCleaner)),
		cleanSession:  cfg.wrap("clean_session", cleanSessionEndpoint(cfg.Sessions, cfg.NewCleaner)),
		datasetInfo:   cfg.wrap("dataset_info", datasetInfoEndpoint(cfg.Sessions)),
		uploadDataset: cfg.wrap("upload_dataset", uploadDatasetEndpoint(cfg.Sessions, cfg.Parse)),
		sessions:      cfg.Sessions,
		defaults:      cfg.Defaults,
	}

	mux.HandleFunc("POST /v1/clean", h.handleCleanTexts)
	mux.HandleFunc("POST /v1/sessions", h.handleOpenSession)
	mux.HandleFunc("DELETE /v1/sessions/{id}", h.handleCloseSession)
	mux.HandleFunc("GET /v1/sessions/{id}/dataset", h.handleDatasetInfo)
	mux.HandleFunc("PUT /v1/sessions/{id}/dataset", h.handleUploadDataset)
	mux.HandleFunc("GET /v1/sessions/{id}/columns", h.handleGetColumns)
	mux.HandleFunc("PUT /v1/sessions/{id}/columns", h.handleSetColumns)
	mux.HandleFunc("POST /v1/sessions/{id}/clean", h.handleCleanSession)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return requestID(cors(mux))
}

type handler struct {
	cleanTexts    kit.Endpoint
	cleanSession  kit.Endpoint
	datasetInfo   kit.Endpoint
	uploadDataset kit.Endpoint
	sessions      *session.Manager
	defaults      textclean.Options
}

// --- clean texts ---

type httpCleanRequest struct {
	Texts   []*string         `json:"texts"`
	Options textclean.Options `json:"options"`
}

func (h *handler) handleCleanTexts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	// Options absent from the body keep their configured defaults.
	req := httpCleanRequest{Options: h.defaults}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.cleanTexts(r.Context(), &cleanTextsReq{Texts: req.Texts, Options: req.Options})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- sessions ---

func (h *handler) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Open()
	writeJSON(w, http.StatusCreated, map[string]string{"id": s.ID})
}

func (h *handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.PathValue("id")); err != nil {
		writeEndpointError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- dataset ---

func (h *handler) handleDatasetInfo(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	resp, err := h.datasetInfo(kit.WithSessionID(r.Context(), id), id)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	resp, err := h.uploadDataset(kit.WithSessionID(r.Context(), id), &uploadDatasetReq{SessionID: id, Body: r.Body})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- columns ---

func (h *handler) handleGetColumns(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	cols, ok := s.Columns()
	if !ok {
		writeError(w, http.StatusNotFound, "no columns selected")
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

func (h *handler) handleSetColumns(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 4*1024)
	var cols session.Columns
	if err := json.NewDecoder(r.Body).Decode(&cols); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if cols.Text == "" {
		writeError(w, http.StatusBadRequest, "missing text_column")
		return
	}
	s.SetColumns(cols.Text, cols.Label)
	writeJSON(w, http.StatusOK, cols)
}

// --- clean session dataset ---

func (h *handler) handleCleanSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	req := &cleanSessionReq{SessionID: id, Options: h.defaults}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		req.Limit = n
	}
	// The options body is optional; an empty one keeps the defaults.
	r.Body = http.MaxBytesReader(w, r.Body, 4*1024)
	if err := json.NewDecoder(r.Body).Decode(&req.Options); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.cleanSession(kit.WithSessionID(r.Context(), id), req)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Sessions: h.sessions.Count(),
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeEndpointError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusUnprocessableEntity, err.Error())
}

// requestID tags the request context with the caller's X-Request-ID or a fresh one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(kit.WithRequestID(r.Context(), id)))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
