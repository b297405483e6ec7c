// Package server exposes payload building, parsing and verification over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gregLibert/sgqr/pkg/sgqr"
	"github.com/gregLibert/sgqr/pkg/tlv"
	"github.com/rs/zerolog"
)

const (
	maxBodyBytes    = 64 << 10
	RequestIDHeader = "X-Request-ID"
)

// Server routes API requests. It holds no per-request state.
type Server struct {
	router    *mux.Router
	logger    zerolog.Logger
	buildOpts []sgqr.BuildOption
}

// New creates a server. Build options apply to every POST /v1/payloads call.
func New(logger zerolog.Logger, opts ...sgqr.BuildOption) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		logger:    logger.With().Str("component", "server").Logger(),
		buildOpts: opts,
	}

	s.router.Use(s.requestLogger)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/payloads", s.handleBuild).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/payloads/parse", s.handleParse).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/payloads/verify", s.handleVerify).Methods(http.MethodPost)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// PayloadRequest carries a raw payload string.
type PayloadRequest struct {
	Payload string `json:"payload"`
}

type buildResponse struct {
	Payload string `json:"payload"`
}

type parseResponse struct {
	DataObjects []tlv.Field `json:"dataObjects"`
	Problems    []string    `json:"problems,omitempty"`
}

type verifyResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Path  string `json:"path,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK\n"))
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var cfg sgqr.PayloadConfig
	if !s.decodeBody(w, r, &cfg) {
		return
	}

	payload, err := sgqr.Build(cfg, s.buildOpts...)
	if err != nil {
		resp := errorResponse{Error: err.Error()}
		var fe *sgqr.FieldError
		if errors.As(err, &fe) {
			resp.Path = fe.Path
		}
		s.writeJSON(w, r, http.StatusUnprocessableEntity, resp)
		return
	}

	s.writeJSON(w, r, http.StatusOK, buildResponse{Payload: payload})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req PayloadRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	resp := parseResponse{DataObjects: sgqr.Parse(req.Payload)}
	if _, err := tlv.DecodeStrict(req.Payload); err != nil {
		resp.Problems = append(resp.Problems, err.Error())
	}
	resp.Problems = append(resp.Problems, flatten(sgqr.Validate(resp.DataObjects))...)

	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req PayloadRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if err := sgqr.Verify(req.Payload); err != nil {
		s.writeJSON(w, r, http.StatusOK, verifyResponse{Valid: false, Error: err.Error()})
		return
	}
	s.writeJSON(w, r, http.StatusOK, verifyResponse{Valid: true})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write response")
	}
}

// flatten splits a joined error into its messages.
func flatten(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger tags each request with an ID and logs one line when it completes.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		logger := s.logger.With().Str("request_id", id).Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
