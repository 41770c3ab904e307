package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/chatguard/internal/config"
	"github.com/ppiankov/chatguard/internal/httpapi"
	"github.com/ppiankov/chatguard/internal/metrics"
	"github.com/ppiankov/chatguard/internal/server"
)

var (
	serveGRPCPort      int
	serveHTTPPort      int
	serveAuditLog      string
	serveRecordAllowed bool
	serveLogLevel      string
	serveLogFormat     string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&serveGRPCPort, "grpc-port", 0, "gRPC listen port (default from config, 50061)")
	serveCmd.Flags().IntVar(&serveHTTPPort, "http-port", 0, "HTTP listen port (default from config, 8089; -1 disables)")
	serveCmd.Flags().StringVar(&serveAuditLog, "audit-log", "", "Path to verdict audit log JSONL file")
	serveCmd.Flags().BoolVar(&serveRecordAllowed, "record-allowed", false, "Append allowed messages to the sender's history")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	serveCmd.Flags().StringVar(&serveLogFormat, "log-format", "json", "Log format (json|console)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC and HTTP contact filter",
	Long: "Runs chatguard as a shared filter service. Chat backends call it over\n" +
		"gRPC (chatguard.v1.ContactFilter) or HTTP JSON (/v1/evaluate).\n" +
		"Reason wording in the config file is hot-reloaded; catalog changes need a restart.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log, err := newLogger(serveLogLevel, serveLogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	path := config.ResolvePath(configPath)
	fileCfg, err := config.Load(path)
	if err != nil {
		return err
	}
	srvCfg := mergeServerFlags(fileCfg.Server)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv, err := server.New(server.Config{
		Port:          srvCfg.GRPCPort,
		ConfigPath:    path,
		AuditLogPath:  srvCfg.AuditLog,
		RecordAllowed: srvCfg.RecordAllowed,
		Logger:        log,
		Metrics:       metrics.New(reg),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloader, err := server.NewReloader(srv, path)
	if err != nil {
		log.Warn("hot-reload disabled", zap.Error(err))
	} else {
		go reloader.Run(ctx)
	}

	var httpStart func(context.Context) error
	if srvCfg.HTTPPort > 0 {
		httpStart = httpapi.NewServer(httpapi.Config{
			Port:     srvCfg.HTTPPort,
			Checker:  srv,
			Gatherer: reg,
			Logger:   log.Named("http"),
		}).Start
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
		srv.GracefulStop()
	}()

	log.Info("chatguard listening",
		zap.Int("grpc_port", srvCfg.GRPCPort),
		zap.Int("http_port", srvCfg.HTTPPort),
		zap.String("config", path),
		zap.String("config_hash", srv.ConfigHash()),
		zap.Bool("record_allowed", srvCfg.RecordAllowed),
	)

	return serveHosts(ctx, log, srv.Serve, httpStart)
}

// serveHosts runs grpcServe in the foreground and httpStart, if set, beside
// it. Once grpcServe returns, the HTTP host is stopped and drained before
// serveHosts returns, so the caller can close what both hosts share.
func serveHosts(ctx context.Context, log *zap.Logger, grpcServe func() error, httpStart func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpDone := make(chan struct{})
	if httpStart == nil {
		close(httpDone)
	} else {
		go func() {
			defer close(httpDone)
			if err := httpStart(ctx); err != nil {
				log.Error("http server stopped", zap.Error(err))
			}
		}()
	}

	err := grpcServe()
	cancel()
	<-httpDone
	return err
}

// mergeServerFlags overlays explicitly set flags on the file settings.
func mergeServerFlags(c config.ServerConfig) config.ServerConfig {
	if serveGRPCPort != 0 {
		c.GRPCPort = serveGRPCPort
	}
	if serveHTTPPort != 0 {
		c.HTTPPort = serveHTTPPort
	}
	if serveAuditLog != "" {
		c.AuditLog = serveAuditLog
	}
	if serveRecordAllowed {
		c.RecordAllowed = true
	}
	return c
}
