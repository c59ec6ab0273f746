package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jaam8/voting_booth/internal/api"
	"github.com/jaam8/voting_booth/internal/booth"
	"github.com/jaam8/voting_booth/internal/config"
	"github.com/jaam8/voting_booth/internal/vote"
	"github.com/jaam8/voting_booth/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newBoothCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "booth",
		Short: "Run the booth kiosk on stdin/stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewBooth()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			signer, err := vote.NewBoothSigner(cfg.PrivateKey)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			notifier := booth.Notifiers{booth.NewZapNotifier(log), booth.NewWriterNotifier(out)}

			// a booth without data still starts, with no artworks to scan
			data, err := booth.LoadData(cfg.DataFile)
			if err != nil {
				notifier.Notify(booth.Notification{Kind: booth.NotificationError, Text: "Invalid vote data", Err: err})
			}
			creator := booth.NewCreator(data, booth.Config{
				FestivalChainID: cfg.FestivalChainID,
				Nonce:           cfg.Nonce,
				MaxSelections:   cfg.MaxSelections,
			}, signer, notifier, log)
			log.Info("booth ready", zap.String("address", signer.Address()))

			kiosk := booth.NewKiosk(creator, out, cfg.VoteURL, log)
			err = kiosk.Run(cmd.Context(), cmd.InOrStdin())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newAdminTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Issue a bearer token for protected task kinds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.NewAdmin()
			if err != nil {
				return err
			}
			token, err := api.IssueAdminToken([]byte(cfg.JWTSecret), subject, ttl, time.Now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "user id carried by the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
