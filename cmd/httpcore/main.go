package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/freekieb7/httpcore/config"
	"github.com/freekieb7/httpcore/filesystem"
	"github.com/freekieb7/httpcore/http"
	"github.com/freekieb7/httpcore/telemetry"
)

const (
	name            = "github.com/freekieb7/httpcore"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, args []string) (err error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = errors.Join(err, tel.Shutdown(shutdownCtx))
	}()

	logger := tel.NewLogger(name, os.Stderr, telemetry.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	var files filesystem.Filesystem
	if cfg.Directory != "" {
		if files, err = filesystem.NewLocalFileSystem(cfg.Directory); err != nil {
			return err
		}
		logger.Info("serving files", "root", files.Root())
	}

	server, err := newServer(cfg, tel, logger, files)
	if err != nil {
		return err
	}

	if err := server.Bind(cfg.Address); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Run(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newServer(cfg config.Config, tel *telemetry.Telemetry, logger *slog.Logger, files filesystem.Filesystem) (*http.Server, error) {
	server, err := http.NewServer(
		http.WithName(name),
		http.WithWorkers(cfg.Workers),
		http.WithReadTimeout(cfg.ReadTimeout),
		http.WithWriteTimeout(cfg.WriteTimeout),
		http.WithLogger(logger),
		http.WithTracerProvider(tel.TracerProvider),
		http.WithMeterProvider(tel.MeterProvider),
	)
	if err != nil {
		return nil, err
	}

	encodings := make([]http.Encoding, 0, len(cfg.Compression.Encodings))
	for _, enc := range cfg.Compression.Encodings {
		encodings = append(encodings, http.Encoding(enc))
	}
	compression, err := http.NewCompression(
		http.WithCompressionLogger(logger),
		http.WithGzipLevel(cfg.Compression.Level),
		http.WithMinSize(cfg.Compression.MinSize),
		http.WithEncodings(encodings...),
	)
	if err != nil {
		return nil, err
	}

	if err := server.Use(http.NewRequestID(), http.NewRecovery(logger), compression); err != nil {
		return nil, err
	}

	if err := registerRoutes(server, files, tel); err != nil {
		server.Close()
		return nil, fmt.Errorf("registering routes: %w", err)
	}

	return server, nil
}
