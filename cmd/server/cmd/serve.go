package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wikirecon/reconcile/internal/api/handlers"
	"github.com/wikirecon/reconcile/internal/config"
)

var (
	serverHost   string
	serverPort   int
	manifestPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reconciliation HTTP API",
	Long: `Start the reconciliation HTTP API and begin accepting requests.

The server will:
- Load configuration from environment variables (or --config file if provided)
- Load the static manifest fields from --manifest, if given
- Start the HTTP API and handle graceful shutdown on SIGINT/SIGTERM

Examples:
  server serve
  server serve --host 127.0.0.1 --port 9090
  server serve --log-level debug
  server serve --manifest ./manifest.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
	serveCmd.Flags().StringVar(&manifestPath, "manifest", "", "path to a YAML manifest file (optional, uses built-in Wikidata defaults)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting reconciliation server")

	manifest, err := config.LoadManifest(manifestPath)
	if err != nil {
		return fmt.Errorf("manifest error: %w", err)
	}

	wired, err := buildApp(cfg, logger)
	if err != nil {
		return fmt.Errorf("wiring error: %w", err)
	}

	handler := buildRouter(wired, logger, handlers.ManifestConfig{
		ServiceName:   manifest.Name,
		ThisHost:      cfg.Server.BaseURL,
		IdentifierIRI: manifest.IdentifierIRISpace,
		SchemaIRI:     manifest.SchemaIRISpace,
		DefaultTypeID: manifest.DefaultTypeEntity,
		PreviewWidth:  cfg.Reconcile.PreviewWidth,
		PreviewHeight: cfg.Reconcile.PreviewHeight,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		config.LoadEnvFile(configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
