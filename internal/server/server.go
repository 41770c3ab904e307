package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/chatguard/internal/alert"
	"github.com/ppiankov/chatguard/internal/api"
	"github.com/ppiankov/chatguard/internal/audit"
	"github.com/ppiankov/chatguard/internal/config"
	"github.com/ppiankov/chatguard/internal/engine"
	"github.com/ppiankov/chatguard/internal/metrics"
	"github.com/ppiankov/chatguard/internal/verdict"
)

// ErrInvalidKey is returned when a request lacks a channel or sender ID.
var ErrInvalidKey = errors.New("channel_id and sender_id are required")

// Config holds host configuration.
type Config struct {
	Port          int
	ConfigPath    string
	AuditLogPath  string
	RecordAllowed bool
	Logger        *zap.Logger
	Metrics       *metrics.Recorder
}

// Server owns one engine and exposes it over gRPC. The HTTP and MCP hosts
// share it through Check, Record and Reset.
type Server struct {
	mu         sync.RWMutex
	configHash string

	engine   *engine.Engine
	auditLog *audit.Log
	alerts   *alert.Dispatcher
	log      *zap.Logger
	cfg      Config

	grpcServer *grpc.Server
}

// New creates a server with the catalog and reasons loaded from cfg.ConfigPath.
func New(cfg Config) (*Server, error) {
	fileCfg, hash, err := config.LoadWithHash(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cat, err := fileCfg.BuildCatalog()
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var auditLog *audit.Log
	if cfg.AuditLogPath != "" {
		auditLog, err = audit.Open(cfg.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
	}

	s := &Server{
		configHash: hash,
		engine: engine.New(
			engine.WithCatalog(cat),
			engine.WithComposer(verdict.NewComposer(fileCfg.Reasons)),
			engine.WithLogger(log.Named("engine")),
			engine.WithMetrics(cfg.Metrics),
		),
		auditLog: auditLog,
		alerts:   alert.NewDispatcher(fileCfg.Alerts, log.Named("alert")),
		log:      log,
		cfg:      cfg,
	}
	s.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(s.logUnary))
	api.RegisterContactFilterServer(s.grpcServer, &grpcHandler{s: s})
	return s, nil
}

// Engine returns the underlying engine.
func (s *Server) Engine() *engine.Engine { return s.engine }

// ConfigHash returns the hash of the config currently in effect.
func (s *Server) ConfigHash() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configHash
}

// Serve starts the gRPC server on the configured port. Blocks until stopped.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.cfg.Port, err)
	}
	return s.grpcServer.Serve(lis)
}

// ServeOn starts the gRPC server on the given listener. For testing.
func (s *Server) ServeOn(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// GracefulStop gracefully shuts down the gRPC server.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// Close waits for pending alerts and closes the audit log.
func (s *Server) Close() error {
	s.alerts.Wait()
	if s.auditLog != nil {
		return s.auditLog.Close()
	}
	return nil
}

// Check evaluates one message, audits the verdict and, when RecordAllowed is
// set, appends an allowed message to the sender's history.
func (s *Server) Check(ctx context.Context, req api.EvalRequest) api.EvalResponse {
	var res api.EvalResponse
	res.EvalID = uuid.NewString()

	if history := req.SenderHistory(); len(history) > 0 {
		res.FilterResult = s.engine.EvaluateWithHistory(req.Text, req.ChannelID, req.SenderID, history, req.Role())
	} else {
		res.FilterResult = s.engine.Evaluate(req.Text, req.ChannelID, req.SenderID, req.Role())
	}

	if s.cfg.RecordAllowed && !res.IsBlocked && !req.Bypass {
		s.engine.Commit(req.ChannelID, req.SenderID, req.Text)
	}

	s.recordAudit(res, req)
	if res.IsBlocked {
		s.alert(res, req)
	}
	return res
}

// Record replaces the sender's buffered history.
func (s *Server) Record(ctx context.Context, req api.RecordRequest) error {
	if !req.Key().Valid() {
		return ErrInvalidKey
	}
	s.engine.RecordForAnalysis(req.ChannelID, req.SenderID, req.History)
	return nil
}

// Reset drops the sender's buffer.
func (s *Server) Reset(ctx context.Context, req api.ResetRequest) error {
	if !req.Key().Valid() {
		return ErrInvalidKey
	}
	s.engine.Reset(req.ChannelID, req.SenderID)
	return nil
}

// ReloadReasons re-reads the config file and swaps the reason wording.
// Catalog changes are ignored until restart. Called by the hot-reloader.
func (s *Server) ReloadReasons() error {
	fileCfg, hash, err := config.LoadWithHash(s.cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	s.engine.Composer().SetCopy(fileCfg.Reasons)

	s.mu.Lock()
	s.configHash = hash
	s.mu.Unlock()
	return nil
}

func (s *Server) recordAudit(res api.EvalResponse, req api.EvalRequest) {
	if s.auditLog == nil {
		return
	}
	entry := audit.NewEntry(res.EvalID, req.Key(), res.FilterResult, s.ConfigHash())
	entry.Timestamp = time.Now().UTC().Format(audit.TimestampFormat)
	if err := s.auditLog.Record(entry); err != nil {
		s.log.Warn("audit write failed", zap.String("eval_id", res.EvalID), zap.Error(err))
	}
}

func (s *Server) alert(res api.EvalResponse, req api.EvalRequest) {
	s.alerts.Dispatch(alert.Event{
		Timestamp:        time.Now().UTC().Format(audit.TimestampFormat),
		EvalID:           res.EvalID,
		ChannelID:        req.ChannelID,
		SenderID:         req.SenderID,
		SenderRestricted: req.SenderRestricted,
		Category:         string(verdict.Category(res.Patterns)),
		RiskScore:        res.RiskScore,
		Patterns:         res.PatternStrings(),
		ConfigHash:       s.ConfigHash(),
	})
}

func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.log.Debug("rpc",
		zap.String("method", info.FullMethod),
		zap.Duration("took", time.Since(start)),
		zap.Error(err),
	)
	return resp, err
}

// grpcHandler adapts Server to the Struct-typed service interface.
type grpcHandler struct {
	s *Server
}

func (h *grpcHandler) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.EvalRequest
	if err := api.Decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return api.Encode(h.s.Check(ctx, req))
}

func (h *grpcHandler) Record(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.RecordRequest
	if err := api.Decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := h.s.Record(ctx, req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return api.Encode(api.Ack{OK: true})
}

func (h *grpcHandler) Reset(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.ResetRequest
	if err := api.Decode(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := h.s.Reset(ctx, req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return api.Encode(api.Ack{OK: true})
}
