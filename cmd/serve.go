package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jaam8/voting_booth/internal/api"
	"github.com/jaam8/voting_booth/internal/config"
	"github.com/jaam8/voting_booth/internal/metrics"
	"github.com/jaam8/voting_booth/internal/notify"
	"github.com/jaam8/voting_booth/internal/repository"
	"github.com/jaam8/voting_booth/internal/service"
	"github.com/jaam8/voting_booth/pkg/logger"
	"github.com/jaam8/voting_booth/pkg/tarantool"
	"github.com/mattermost/mattermost-server/v6/model"
	"github.com/spf13/cobra"
	got "github.com/tarantool/go-tarantool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the task dispatch HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = log.Sync() }()
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	var conn *got.Connection
	if cfg.UsesTarantool() {
		var err error
		conn, err = tarantool.New(cfg.Tarantool)
		if err != nil {
			return err
		}
		defer conn.CloseGraceful()
		log.Info("connected to tarantool", zap.String("addr", cfg.Tarantool.Addr()))
	}

	var invitations service.InvitationRepository
	if cfg.StoreBackend == config.BackendTarantool {
		invitations = repository.NewInvitationRepository(conn, log)
	} else {
		invitations = repository.NewMemoryInvitationRepository(log)
	}

	var (
		tokens  service.TokenCache
		sweeper *repository.TarantoolTokenCache
	)
	if cfg.CacheBackend == config.BackendTarantool {
		sweeper = repository.NewTarantoolTokenCache(conn, log)
		tokens = sweeper
	} else {
		tokens = repository.NewMemoryTokenCache(cfg.CacheSize, cfg.TokenTTL, log)
	}

	sender, err := newSender(cfg.Mattermost, log)
	if err != nil {
		return err
	}

	m, err := metrics.New()
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	svc := service.New(invitations, tokens, sender, service.Options{
		TokenTTL:    cfg.TokenTTL,
		TokenLength: cfg.TokenLength,
		Concurrency: cfg.InvitationConcurrency,
	}, log)
	handler := api.NewRouter(
		api.NewTaskHandler(svc, m, cfg.StrictTaskKinds, log),
		api.NewAuthenticator([]byte(cfg.JWTSecret), log),
		m,
		api.RouterConfig{AllowedOrigins: cfg.CORSOrigins},
		log,
	)

	server := &http.Server{
		Addr:              ":" + cfg.RestPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		log.Info("server graceful stopped")
		return nil
	})
	if sweeper != nil {
		g.Go(func() error {
			sweep(ctx, sweeper, cfg.SweepInterval, log)
			return nil
		})
	}
	return g.Wait()
}

func sweep(ctx context.Context, cache *repository.TarantoolTokenCache, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := cache.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("failed to sweep vote tokens", zap.Error(err))
			}
		}
	}
}

func newSender(cfg config.Mattermost, log *zap.Logger) (service.InvitationSender, error) {
	if cfg.URL == "" {
		log.Warn("MM_URL is not set, invitations will only be logged")
		return notify.NewLogSender(log), nil
	}

	client := model.NewAPIv4Client(cfg.URL)
	client.SetToken(cfg.BotToken)
	bot, _, err := client.GetMe("")
	if err != nil {
		return nil, fmt.Errorf("failed to get bot user: %w", err)
	}
	return notify.NewMattermostSender(client, bot.Id, cfg.InviteURL, "", log)
}
