// Command decisionsd watches an inbox directory and runs every new report
// through the decision extraction pipeline, persisting candidates for review.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/decisions-tracker/internal/async"
	"github.com/joseph-ayodele/decisions-tracker/internal/common"
	"github.com/joseph-ayodele/decisions-tracker/internal/governor"
	"github.com/joseph-ayodele/decisions-tracker/internal/ingest"
	"github.com/joseph-ayodele/decisions-tracker/internal/metrics"
	"github.com/joseph-ayodele/decisions-tracker/internal/pipeline"
	"github.com/joseph-ayodele/decisions-tracker/internal/quality"
	"github.com/joseph-ayodele/decisions-tracker/internal/repository"
	"github.com/joseph-ayodele/decisions-tracker/internal/signals"
)

// resumeInterval is how often documents paused for time or memory are retried.
const resumeInterval = 30 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("DECISIONS_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if cfg.Ingest.InboxDir == "" {
		slog.Error("ingest.inbox_dir is required (DECISIONS_INGEST_INBOX_DIR)")
		os.Exit(2)
	}

	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("decisionsd stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	db, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close(logger)

	if err := db.HealthCheck(ctx, 5*time.Second, logger); err != nil {
		return err
	}
	if err := db.Migrate(ctx); err != nil {
		return err
	}
	store := repository.NewStore(db, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	floors := quality.Floors{A: cfg.Scoring.FloorA, B: cfg.Scoring.FloorB, C: cfg.Scoring.FloorC}
	stage := pipeline.NewPageStage(signals.NewScorer(floors), logger)
	opts := append(governor.OptionsFromConfig(cfg.Governor),
		governor.WithSink(store),
		governor.WithMetrics(metrics.New(reg)),
	)
	gov := governor.New(stage, logger, opts...)

	ingestor := ingest.NewFSIngestor(gov, store, logger)
	queue := async.NewProcessorQueue(ingestor, gov, logger)

	events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Ingest.InboxDir},
		InitialScan: true,
		SkipHidden:  cfg.Ingest.SkipHidden,
		Debounce:    cfg.Ingest.Debounce,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	// gRPC health
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		return err
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	metricsServer := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("decisionsd grpc listening", "addr", cfg.Server.GRPCAddr)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("decisionsd metrics listening", "addr", cfg.Server.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		for path := range events {
			if err := queue.Enqueue(gctx, async.Job{Path: path}); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for err := range watchErrs {
			logger.Warn("inbox watcher error", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(resumeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if !gov.Running() {
					_ = queue.Trigger(gctx)
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...", "status", gov.Status())
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		gov.Pause()
		queue.Shutdown(shutdownCtx)
		_ = metricsServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return nil
	})

	return g.Wait()
}
