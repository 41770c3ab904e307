// Package httpapi serves the contact filter as JSON over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ppiankov/chatguard/internal/api"
)

// maxBodyBytes caps request bodies; history is at most a few KB.
const maxBodyBytes = 1 << 20

// Checker is the host surface the handlers call. *server.Server satisfies it.
type Checker interface {
	Check(ctx context.Context, req api.EvalRequest) api.EvalResponse
	Record(ctx context.Context, req api.RecordRequest) error
	Reset(ctx context.Context, req api.ResetRequest) error
}

// Config holds HTTP host configuration.
type Config struct {
	Port     int
	Checker  Checker
	Gatherer prometheus.Gatherer // nil disables /metrics
	Logger   *zap.Logger
}

// Server is the HTTP host.
type Server struct {
	checker Checker
	log     *zap.Logger
	srv     *http.Server
}

// NewServer builds the HTTP host and its routes.
func NewServer(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{checker: cfg.Checker, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /v1/record", s.handleRecord)
	mux.HandleFunc("DELETE /v1/buffers/{channel}/{sender}", s.handleReset)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Start begins listening. Blocks until ctx is cancelled and in-flight
// requests have drained, or the shutdown timeout expires.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownErr <- s.srv.Shutdown(shutdownCtx)
	}()

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		// Serve returns as soon as Shutdown begins; wait for the drain.
		return <-shutdownErr
	}
	return err
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req api.EvalRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.checker.Check(r.Context(), req))
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req api.RecordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.checker.Record(r.Context(), req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, api.Ack{OK: true})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	req := api.ResetRequest{ChannelID: r.PathValue("channel"), SenderID: r.PathValue("sender")}
	if err := s.checker.Reset(r.Context(), req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, api.Ack{OK: true})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
