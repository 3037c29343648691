package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/api"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/capabilities"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/config"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/exporter"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/importer"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/logging"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/session"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/upload"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/validator"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	if *configPath == "" {
		exePath, err := os.Executable()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
			os.Exit(1)
		}
		*configPath = filepath.Join(filepath.Dir(exePath), "config-builder.yaml")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	lg := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Dir:        cfg.Logging.Directory,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Stderr:     true,
	})

	if err := run(cfg, *configPath, lg); err != nil {
		lg.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, configPath string, lg *logging.Logger) error {
	v, err := validator.New()
	if err != nil {
		return err
	}

	var resolver capabilities.Resolver
	if cfg.Capabilities.Enabled {
		resolver = capabilities.NewHTTPResolver(
			time.Duration(cfg.Capabilities.TimeoutSeconds)*time.Second,
			cfg.Capabilities.CacheSize,
			time.Duration(cfg.Capabilities.CacheTTLMinutes)*time.Minute,
		)
	}

	im := &importer.Importer{
		Validator:   v,
		Resolver:    resolver,
		Concurrency: cfg.Capabilities.Concurrency,
		MaxSize:     cfg.Import.MaxDocumentBytes,
		Logger:      lg.With("component", "importer"),
	}

	sessionMgr := session.NewManager(cfg.Sessions.MaxSessions, lg.With("component", "session"))
	uploadMgr := upload.NewManager(im, sessionMgr,
		time.Duration(cfg.Import.JobTimeoutSeconds)*time.Second, lg.With("component", "upload"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background session and job cleanup
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sessions := sessionMgr.CleanupOldSessions(cfg.SessionTimeout())
				jobs := uploadMgr.CleanupOldJobs(time.Duration(cfg.Import.JobRetentionMins) * time.Minute)
				if sessions > 0 || jobs > 0 {
					lg.Info("cleanup", "sessions", sessions, "jobs", jobs)
				}
			}
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.SetupMiddleware(e, cfg, lg)
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Sessions:       sessionMgr,
		Importer:       im,
		Jobs:           uploadMgr,
		Resolver:       resolver,
		Exporter:       &exporter.Exporter{},
		MaxUploadSize:  cfg.Import.MaxDocumentBytes,
		ResolveTimeout: time.Duration(cfg.Capabilities.TimeoutSeconds) * time.Second,
		Logger:         lg.With("component", "api"),
		Version:        Version,
	}))

	s := &http.Server{
		Addr:         cfg.ServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	lg.Info("server starting",
		"version", Version,
		"buildTime", BuildTime,
		"config", configPath,
		"listen", cfg.ServerAddr(),
		"logFile", lg.LogFile,
		"capabilities", cfg.Capabilities.Enabled)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(s)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	uploadMgr.Wait()
	return nil
}
