package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/vincent/internal/config"
	"github.com/turtacn/vincent/internal/infrastructure/monitoring"
	"github.com/turtacn/vincent/internal/serverlite"
	"github.com/turtacn/vincent/pkg/logger"
)

func newConsentServerCommand(loadConfig configFunc) *cobra.Command {
	var (
		addr         string
		privateKey   string
		appID        string
		appVersion   int
		redirectURIs []string
	)
	cmd := &cobra.Command{
		Use:   "consent-server",
		Short: "Run an in-memory consent server for local development",
		Long: `consent-server answers GET /appId/{appId}/consent?redirectUri=... for one registered
app by redirecting back with a Vincent JWT signed by the configured signer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, identity, err := resolveSigner(cmd.Context(), privateKey, loadConfig)
			if err != nil {
				return err
			}
			log, err := monitoring.NewZapLogger(&config.LogConfig{Level: "info"})
			if err != nil {
				return err
			}
			srv, err := serverlite.NewServer(addr, signer, identity, log)
			if err != nil {
				return err
			}
			srv.RegisterApp(serverlite.App{ID: appID, Version: appVersion, RedirectURIs: redirectURIs})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			srv.Start()
			log.Info(ctx, "Consent server listening",
				logger.String("addr", addr),
				logger.String("app_id", appID),
				logger.PKPAddress(identity.Address),
			)
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Stop(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8090", "listen address")
	cmd.Flags().StringVar(&privateKey, "private-key", "", "hex secp256k1 key (defaults to the configured signer)")
	cmd.Flags().StringVar(&appID, "app-id", "1", "app id to register")
	cmd.Flags().IntVar(&appVersion, "app-version", 1, "app version to put in issued tokens")
	cmd.Flags().StringSliceVar(&redirectURIs, "redirect-uri", nil, "allowed redirect URI (repeatable)")
	_ = cmd.MarkFlagRequired("redirect-uri")
	return cmd
}
