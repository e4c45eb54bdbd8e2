package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/weftworks/weft/internal/config"
	"github.com/weftworks/weft/internal/server"
	"github.com/weftworks/weft/pkg/logger"
)

var addrHTTP string

// serveCmd starts the HTTP run surface
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workflow HTTP server",
	Long:  `Start the HTTP server exposing workflow validation, run submission and run status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if addrHTTP != "" {
			cfg.Server.HTTP.Addr = addrHTTP
		}

		service, cleanup, err := initService(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// Stop on interrupt
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-quit
			logger.Infof("Received signal %s, shutting down...", sig.String())
			cancel()
		}()

		return server.Serve(ctx, cfg, service)
	},
}

func init() {
	serveCmd.Flags().StringVar(&addrHTTP, "addr-http", "", "HTTP server address (overrides config file)")
	_ = viper.BindPFlag("server.http.addr", serveCmd.Flags().Lookup("addr-http"))

	rootCmd.AddCommand(serveCmd)
}
