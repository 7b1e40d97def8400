package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/coder/quartz"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/treasure-hunt-backend/internal/config"
	"github.com/DoyleJ11/treasure-hunt-backend/internal/dispatch"
	"github.com/DoyleJ11/treasure-hunt-backend/internal/httpapi"
	"github.com/DoyleJ11/treasure-hunt-backend/internal/hub"
	"github.com/DoyleJ11/treasure-hunt-backend/internal/logging"
	"github.com/DoyleJ11/treasure-hunt-backend/internal/ws"
)

func main() {
	if err := config.LoadEnvFiles(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var cfg config.Config
	kong.Parse(&cfg,
		kong.Name("treasure-hunt"),
		kong.Description("Two-player Treasure Hunt game server"),
		kong.UsageOnError(),
	)

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, logger)
	defer h.Shutdown()
	d := dispatch.New(h, logger)

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(h, d, ws.Options{
		OriginPatterns:  cfg.WS.AllowedOrigins,
		PingInterval:    cfg.WS.PingInterval,
		WriteTimeout:    cfg.WS.WriteTimeout,
		OutboxSize:      cfg.WS.OutboxSize,
		MaxMessageBytes: cfg.WS.MaxMessageBytes,
		Clock:           quartz.NewReal(),
	}, logger)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
