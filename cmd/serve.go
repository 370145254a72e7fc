package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/killallgit/blog-api/pkg/config"
	"github.com/spf13/cobra"
)

var (
	serverHost string
	serverPort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the Blog API server with the configured settings.

The server handles post generation, content management and the
background workers that run queued generation jobs.

Example:
  blog-api serve
  blog-api serve --port 9090
  blog-api serve --host 0.0.0.0 --port 8080`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if serverHost == "" {
		serverHost = cfg.Server.Host
	}
	if serverPort == 0 {
		serverPort = cfg.Server.Port
	}
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	address := fmt.Sprintf("%s:%d", serverHost, serverPort)
	app, err := newApplication(cfg, address)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.startBackground(ctx); err != nil {
		_ = app.shutdown(context.Background())
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := app.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	log.Info("Blog API server started", "address", address, "version", Version, "workers", cfg.Processing.Workers)

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down server")
	case runErr = <-serverErr:
		log.Error("Server error", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := app.shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		if runErr == nil {
			runErr = err
		}
	} else {
		log.Info("Server gracefully stopped")
	}
	return runErr
}
