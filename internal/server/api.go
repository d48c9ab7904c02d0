package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hfi/secure-mask/internal/audit"
	"github.com/hfi/secure-mask/internal/config"
	"github.com/hfi/secure-mask/internal/masking"
	"github.com/hfi/secure-mask/internal/service"
)

// ErrorPrefix marks user-facing error messages
const ErrorPrefix = "⚠️ error: "

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

// MaskRequest is the body of POST /api/v1/mask
type MaskRequest struct {
	Source   string `json:"source"`
	Language string `json:"language,omitempty"`
}

// MaskResponse is the success body of POST /api/v1/mask
type MaskResponse struct {
	Masked    string `json:"masked"`
	Language  string `json:"language"`
	Cached    bool   `json:"cached"`
	RequestID string `json:"request_id"`
}

// LanguagesResponse is the body of GET /api/v1/languages
type LanguagesResponse struct {
	Languages []string `json:"languages"`
	Default   string   `json:"default"`
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// API serves the masking endpoints
type API struct {
	server          *http.Server
	mux             *http.ServeMux
	svc             *service.MaskService
	auditor         audit.Auditor
	logger          zerolog.Logger
	maxBodyBytes    int64
	defaultLanguage string
}

// NewAPI creates the masking API server
func NewAPI(svc *service.MaskService, cfg config.Config, auditor audit.Auditor, logger zerolog.Logger) *API {
	if auditor == nil {
		auditor = audit.NewNopLogger()
	}

	a := &API{
		mux:             http.NewServeMux(),
		svc:             svc,
		auditor:         auditor,
		logger:          logger,
		maxBodyBytes:    cfg.Server.MaxBodyBytes,
		defaultLanguage: cfg.Masking.DefaultLanguage,
	}

	a.mux.HandleFunc("POST /api/v1/mask", a.maskHandler)
	a.mux.HandleFunc("GET /api/v1/languages", a.languagesHandler)

	a.server = &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           a.mux,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	return a
}

// Start starts the API server
func (a *API) Start() error {
	return a.server.ListenAndServe()
}

// Stop gracefully shuts down the API server
func (a *API) Stop(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (a *API) Handler() http.Handler {
	return a.mux
}

// Addr returns the server address
func (a *API) Addr() string {
	return a.server.Addr
}

func (a *API) maskHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)
	defer func() {
		a.auditor.LogRequestProcessed(requestID, r.Method, r.URL.Path, float64(time.Since(start).Microseconds())/1000)
	}()

	var req MaskRequest
	body := http.MaxBytesReader(w, r.Body, a.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.writeError(w, http.StatusRequestEntityTooLarge, requestID, "request body too large")
			return
		}
		a.writeError(w, http.StatusBadRequest, requestID, "invalid request body")
		return
	}

	resp, err := a.svc.Process(r.Context(), service.Request{
		Source:    req.Source,
		Language:  req.Language,
		RequestID: requestID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyInput), masking.IsUnsupportedLanguage(err):
			a.writeError(w, http.StatusBadRequest, requestID, err.Error())
		default:
			a.logger.Error().Err(err).Str("request_id", requestID).Msg("mask request failed")
			a.writeError(w, http.StatusInternalServerError, requestID, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, &MaskResponse{
		Masked:    resp.Masked,
		Language:  resp.Language,
		Cached:    resp.Cached,
		RequestID: resp.RequestID,
	})
}

func (a *API) languagesHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, &LanguagesResponse{
		Languages: a.svc.Languages(),
		Default:   a.defaultLanguage,
	})
}

func (a *API) writeError(w http.ResponseWriter, code int, requestID, msg string) {
	writeJSON(w, code, &ErrorResponse{
		Error:     ErrorPrefix + msg,
		RequestID: requestID,
	})
}
