package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"esquematiza/internal/app"
	"esquematiza/internal/config"
	"esquematiza/internal/essay"
	"esquematiza/internal/i18n"
	"esquematiza/internal/logger"
	"esquematiza/internal/metrics"
	transport "esquematiza/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if portFlag != "" {
		cfg.Server.Port = portFlag
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	stores, err := openBackends(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("failed to open backends")
		return err
	}
	defer stores.close()

	catalog, err := i18n.New(cfg.Lang, log)
	if err != nil {
		return err
	}

	m := metrics.New()
	opts := []app.Option{app.WithLogger(log), app.WithMetrics(m)}
	if stores.locker != nil {
		opts = append(opts, app.WithLocker(stores.locker))
	}
	exam := app.NewExamService(stores.subjects, stores.sessions, stores.history, opts...)
	grader := essay.New(essay.Config{
		BaseURL:   cfg.Essay.BaseURL,
		APIKey:    cfg.Essay.APIKey,
		Model:     cfg.Essay.Model,
		MinLength: cfg.Essay.MinLength,
		Timeout:   config.TTLDuration(cfg.Essay.Timeout, 60*time.Second),
	}, stores.prompts, log)
	if cfg.Essay.APIKey == "" {
		log.Warn("essay api key not set; grading disabled")
	}

	api := transport.NewServer(transport.Deps{
		Exam:      exam,
		Dashboard: app.NewDashboard(stores.subjects, stores.history, stores.prompts),
		Essay:     grader,
		Bank:      stores.bank,
		Areas:     cfg.Areas,
		Catalog:   catalog,
		Metrics:   m,
		Log:       log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Essay grading waits on the model.
		WriteTimeout: 90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting esquematiza")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	case err := <-errCh:
		log.WithError(err).Error("server failed")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
