// Package serverrun wires configuration, store, services and the HTTP
// server into a running process.
package serverrun

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	cfgpkg "github.com/kittclouds/tenwords/internal/config"
	"github.com/kittclouds/tenwords/internal/logging"
	httpserver "github.com/kittclouds/tenwords/internal/server/http"
	"github.com/kittclouds/tenwords/internal/store"
	"github.com/kittclouds/tenwords/pkg/rotation"
	"github.com/kittclouds/tenwords/pkg/subscriptions"
)

type Options struct {
	Config cfgpkg.Config
	Logger *slog.Logger
	// Listener overrides Config.Address when set.
	Listener net.Listener
}

// OpenStore opens the store described by cfg.
func OpenStore(ctx context.Context, cfg cfgpkg.Config) (*store.SQLStore, error) {
	return store.Open(ctx, store.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		BusyTimeout:  time.Duration(cfg.Database.BusyTimeout),
	})
}

// Run serves HTTP and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s, err := OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	count, err := s.CountItems(ctx)
	if err != nil {
		return err
	}

	logger.Info("Starting tenwords server",
		slog.String("addr", cfg.Address()),
		slog.String("driver", s.Driver()),
		slog.Int("words", count),
		slog.Int("batch_size", cfg.Rotation.BatchSize),
	)
	if count == 0 {
		logger.Warn("word table is empty; load words with `tenwords seed`")
	}

	hsrv := httpserver.New(httpserver.Options{
		Picker:     rotation.New(s, rotation.WithLogger(logging.Component(logger, "rotation"))),
		Subscriber: subscriptions.NewService(s),
		Health:     s,
		BatchSize:  cfg.Rotation.BatchSize,
		Logger:     logging.Component(logger, "http"),
	})
	defer hsrv.Close()

	if opts.Listener != nil {
		return hsrv.Serve(ctx, opts.Listener)
	}
	return hsrv.ListenAndServe(ctx, cfg.Address())
}
