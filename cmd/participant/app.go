package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"idsim/internal/backend"
	"idsim/internal/platform/bootstrap"
	"idsim/internal/platform/config"
	"idsim/internal/platform/deferred"
	"idsim/internal/platform/health"
	"idsim/internal/platform/httpserver"
	"idsim/internal/platform/logger"
	"idsim/internal/platform/metrics"
	"idsim/internal/platform/redis"
	"idsim/pkg/platform/events"
)

const shutdownTimeout = 15 * time.Second

// deps are shared by every role.
type deps struct {
	cfg     config.Config
	log     *slog.Logger
	reg     *prometheus.Registry
	metrics *metrics.Metrics
	client  *backend.Client
	runner  *deferred.Runner
	emitter events.Emitter
	redis   *redis.Client
}

// participant is what a role contributes to the process.
type participant struct {
	register func(chi.Router)
	steps    []bootstrap.Step
	checks   []health.Check
	closers  []func()
}

func run(ctx context.Context, cfg config.Config) error {
	log := logger.New(cfg.LogLevel, cfg.Role)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg, cfg.Role)

	client, err := backend.New(cfg.Backend.URL, cfg.Backend.APIVersion, cfg.Backend.Timeout, backend.WithLogger(log))
	if err != nil {
		return err
	}

	d := &deps{
		cfg:     cfg,
		log:     log,
		reg:     reg,
		metrics: m,
		client:  client,
		runner:  deferred.New(log, m),
	}

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	emitter, checks, closeEvents, err := newEmitter(cfg, log)
	if err != nil {
		return err
	}
	d.emitter = emitter
	closers = append(closers, closeEvents)

	if cfg.Store.Pending == config.DriverRedis {
		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		d.redis = rc
		closers = append(closers, func() { _ = rc.Close() })
		checks = append(checks, health.Check{Name: "redis", Probe: rc.Health})
	}

	var p participant
	switch cfg.Role {
	case config.RoleIdP:
		p, err = wireIdP(ctx, d)
	case config.RoleRP:
		p, err = wireRP(ctx, d)
	case config.RoleAS:
		p, err = wireAS(d)
	default:
		err = fmt.Errorf("unknown role %q", cfg.Role)
	}
	if err != nil {
		return err
	}
	closers = append(closers, p.closers...)
	checks = append(checks, p.checks...)

	checker, err := health.New(cfg.Role, version, checks...)
	if err != nil {
		return fmt.Errorf("health checks: %w", err)
	}

	router := chi.NewRouter()
	router.Get("/health", checker.ServeHTTP)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	p.register(router)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("participant listening",
			"role", cfg.Role,
			"node_id", cfg.NodeID,
			"addr", cfg.Addr,
			"backend", client.BaseURL(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := bootstrap.New(log, cfg.Bootstrap.RetryInterval).Run(gctx, p.steps...)
		if err != nil && gctx.Err() == nil {
			log.Error("registration abandoned", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		srvErr := srv.Shutdown(shutdownCtx)
		runnerErr := d.runner.Shutdown(shutdownCtx)
		return errors.Join(srvErr, runnerErr)
	})
	return g.Wait()
}

// newEmitter publishes lifecycle events to Kafka when brokers are
// configured and drops them otherwise.
func newEmitter(cfg config.Config, log *slog.Logger) (events.Emitter, []health.Check, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.Nop{}, nil, func() {}, nil
	}
	sink, err := events.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, nil, nil, err
	}
	pub := events.NewPublisher(sink,
		events.WithAsyncBuffer(256),
		events.WithLogger(log),
		events.WithSource(cfg.Role, cfg.NodeID),
	)
	checks := []health.Check{{Name: "kafka", Optional: true, Probe: sink.Ping}}
	return pub, checks, func() {
		pub.Close()
		sink.Close()
	}, nil
}
