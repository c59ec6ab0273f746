package main

import (
	"context"
	logg "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	root := &cobra.Command{
		Use:           "voting_booth",
		Short:         "Festival vote invitations, redemption tokens and the booth kiosk",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newBoothCmd(), newAdminTokenCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		logg.Fatalf("voting_booth: %s", err)
	}
}
