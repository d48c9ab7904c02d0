package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hfi/secure-mask/internal/audit"
	"github.com/hfi/secure-mask/internal/masking"
	"github.com/hfi/secure-mask/internal/metrics"
	"github.com/hfi/secure-mask/internal/server"
	"github.com/hfi/secure-mask/internal/service"
	"github.com/hfi/secure-mask/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the masking HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	log := a.logger

	engine, err := masking.New(masking.Options{
		TypeNames:      cfg.Masking.TypeNames,
		DisabledPasses: cfg.Masking.DisabledPasses,
	})
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Error().Err(err).Str("type", cfg.Storage.Type).Msg("failed to open result store")
		return err
	}
	defer store.Close()

	auditor, err := audit.NewLogger(audit.FromConfig(cfg.Logging.Audit))
	if err != nil {
		log.Error().Err(err).Msg("failed to open audit log")
		return err
	}
	defer auditor.Close()

	svc := service.New(engine,
		service.WithStore(store),
		service.WithAuditor(auditor),
		service.WithLogger(log),
		service.WithDefaultLanguage(cfg.Masking.DefaultLanguage),
	)

	api := server.NewAPI(svc, *cfg, auditor, log)

	var mgmt *server.Server
	if cfg.Metrics.Enabled {
		mgmt = server.New(server.FromConfig(cfg.Metrics, Version))
		mgmt.SetLanguages(engine.Languages())
		mgmt.RegisterHealthCheck("engine", server.EngineCheck(engine.Mask, cfg.Masking.DefaultLanguage))
		if rs, ok := store.(*storage.RedisStore); ok {
			mgmt.RegisterHealthCheck("redis", server.StoreCheck(rs.Ping))
		}
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("addr", api.Addr()).Str("version", Version).Msg("masking API listening")
		if err := api.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if mgmt != nil {
		go func() {
			log.Info().Str("addr", mgmt.Addr()).Msg("management server listening")
			if err := mgmt.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	go reportStoreSize(ctx, store)

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err = <-errCh:
		log.Error().Err(err).Msg("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if stopErr := api.Stop(shutdownCtx); stopErr != nil {
		log.Warn().Err(stopErr).Msg("masking API shutdown")
	}
	if mgmt != nil {
		if stopErr := mgmt.Stop(shutdownCtx); stopErr != nil {
			log.Warn().Err(stopErr).Msg("management server shutdown")
		}
	}

	return err
}

// reportStoreSize keeps the store size gauge current as entries expire
func reportStoreSize(ctx context.Context, store storage.ResultStore) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.ResultStoreSize.Set(float64(store.Size()))
		case <-ctx.Done():
			return
		}
	}
}
