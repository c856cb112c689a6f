package command

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/commute-matching/internal/dispatch"
	httpapi "github.com/example/commute-matching/internal/http"
	"github.com/example/commute-matching/internal/ingest"
	"github.com/example/commute-matching/internal/logging"
	"github.com/example/commute-matching/internal/matcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the matching HTTP API",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := checkStatusBackend(cfg); err != nil {
		return err
	}
	logger := logging.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := newDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.close()

	zones, err := buildZones(cfg)
	if err != nil {
		return err
	}
	est, err := buildEstimator(cfg)
	if err != nil {
		return err
	}
	gc, err := d.geocoder()
	if err != nil {
		return err
	}
	ws := dispatch.NewWSRegistry()
	notifier, err := d.notifier(ws)
	if err != nil {
		return err
	}

	dir := d.directory()
	svc := matcher.NewService(dir, gc, d.store(), zones, est, logger)
	svc.Dispatch = notifier
	svc.TopN = cfg.MatcherTopN

	opts := httpapi.Options{
		Matcher:   svc,
		Zones:     zones,
		Directory: dir,
		WSReg:     ws,
		JWTSecret: cfg.JWTSecret,
		Logger:    logger,
	}
	if len(cfg.KafkaBrokers) > 0 {
		kp := ingest.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		opts.Publisher = kp
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewServer(opts),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("commute-matching listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
