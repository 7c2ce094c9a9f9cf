package main

import (
	"context"
	"fmt"

	ashandler "idsim/internal/as/handler"
	asservice "idsim/internal/as/service"
	"idsim/internal/as/source"
	"idsim/internal/correlation"
	corrmetrics "idsim/internal/correlation/metrics"
	corrstore "idsim/internal/correlation/store"
	idstore "idsim/internal/identity/store"
	idphandler "idsim/internal/idp/handler"
	idpservice "idsim/internal/idp/service"
	"idsim/internal/platform/bootstrap"
	"idsim/internal/platform/config"
	"idsim/internal/platform/health"
	"idsim/internal/platform/postgres"
	rphandler "idsim/internal/rp/handler"
	rpmetrics "idsim/internal/rp/metrics"
	"idsim/internal/rp/policy"
	rpservice "idsim/internal/rp/service"
	"idsim/pkg/platform/strutil"
)

func wireIdP(ctx context.Context, d *deps) (participant, error) {
	cfg := d.cfg
	var p participant

	var pending correlation.Store = corrstore.NewInMemory()
	if d.redis != nil {
		pending = corrstore.NewRedis(d.redis.Client, corrstore.WithKeyPrefix(d.redis.KeyPrefix()))
	}
	engine, err := correlation.New(pending,
		correlation.WithLogger(d.log),
		correlation.WithMetrics(corrmetrics.New(d.reg)),
		correlation.WithAwait(cfg.Correlation.AwaitTimeout, cfg.Correlation.AwaitInterval),
	)
	if err != nil {
		return p, err
	}
	if err := engine.SyncMetrics(ctx); err != nil {
		d.log.Warn("failed to count pending operations", "error", err)
	}

	var (
		subjects idstore.Store
		tx       idpservice.SubjectTx
	)
	switch cfg.Store.Identity {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return p, err
		}
		p.closers = append(p.closers, func() { _ = db.Close() })
		p.checks = append(p.checks, health.Check{Name: "postgres", Probe: db.PingContext})
		subjects = idstore.NewPostgres(db)
		tx = idstore.NewPostgresTxRunner(db, cfg.Correlation.SubjectTxExpiry)
	default:
		mem := idstore.NewInMemory()
		subjects = mem
		tx = idstore.NewShardedTx(mem, cfg.Correlation.SubjectTxExpiry)
	}

	svc, err := idpservice.New(d.client, engine, subjects, tx, d.runner,
		idpservice.Config{
			NodeID:         cfg.NodeID,
			AccessorType:   cfg.IdP.AccessorType,
			KeyBits:        cfg.IdP.KeyBits,
			UpgradeMessage: cfg.IdP.UpgradeMessage,
			Callbacks:      idpservice.NewCallbackURLs(cfg.CallbackBaseURL),
		},
		idpservice.WithLogger(d.log),
		idpservice.WithEmitter(d.emitter),
	)
	if err != nil {
		return p, err
	}

	p.register = idphandler.New(svc, d.log, d.metrics, cfg.AdminToken).Register
	p.steps = []bootstrap.Step{{Name: "idp_callbacks", Run: svc.RegisterCallbacks}}
	return p, nil
}

func wireRP(ctx context.Context, d *deps) (participant, error) {
	cfg := d.cfg
	var p participant

	var store policy.Store = policy.NewInMemory()
	if d.redis != nil {
		store = policy.NewRedis(d.redis.Client, policy.WithKeyPrefix(d.redis.KeyPrefix()))
	}
	controller := policy.NewController(store,
		policy.WithLogger(d.log),
		policy.WithMetrics(rpmetrics.New(d.reg)),
		policy.WithAwait(cfg.Correlation.AwaitTimeout, cfg.Correlation.AwaitInterval),
	)
	if err := controller.SyncMetrics(ctx); err != nil {
		d.log.Warn("failed to count request policies", "error", err)
	}

	svc, err := rpservice.New(d.client, controller, d.runner, cfg.CallbackBaseURL,
		rpservice.WithLogger(d.log),
		rpservice.WithEmitter(d.emitter),
	)
	if err != nil {
		return p, err
	}
	p.register = rphandler.New(svc, d.log, d.metrics, cfg.AdminToken).Register
	return p, nil
}

func wireAS(d *deps) (participant, error) {
	cfg := d.cfg
	var p participant

	files := source.NewFiles(cfg.AS.DataPath, cfg.AS.DefaultDelay)
	services := strutil.Dedupe(cfg.AS.Services)
	if len(services) == 0 {
		listed, err := files.Services()
		if err != nil {
			return p, fmt.Errorf("load services: %w", err)
		}
		services = listed
	}
	if len(services) == 0 {
		d.log.Warn("no services configured", "data_path", cfg.AS.DataPath)
	}

	svc, err := asservice.New(d.client, files, d.runner,
		asservice.Config{
			Services:        services,
			MinIAL:          cfg.AS.MinIAL,
			MinAAL:          cfg.AS.MinAAL,
			CallbackBaseURL: cfg.CallbackBaseURL,
		},
		asservice.WithLogger(d.log),
		asservice.WithEmitter(d.emitter),
	)
	if err != nil {
		return p, err
	}
	p.register = ashandler.New(svc, d.log, d.metrics).Register
	p.steps = svc.RegistrationSteps()
	return p, nil
}
