package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/auth"
	"github.com/mamadbah2/pettycash/internal/config"
	"github.com/mamadbah2/pettycash/internal/metrics"
	"github.com/mamadbah2/pettycash/internal/repository/mongodb"
	"github.com/mamadbah2/pettycash/internal/repository/redisstore"
	"github.com/mamadbah2/pettycash/internal/repository/sheets"
	"github.com/mamadbah2/pettycash/internal/scheduler"
	"github.com/mamadbah2/pettycash/internal/server/handlers"
	"github.com/mamadbah2/pettycash/internal/server/router"
	auditsvc "github.com/mamadbah2/pettycash/internal/service/audit"
	"github.com/mamadbah2/pettycash/internal/service/bookkeeping"
	exportsvc "github.com/mamadbah2/pettycash/internal/service/export"
	"github.com/mamadbah2/pettycash/internal/service/ledger"
	"github.com/mamadbah2/pettycash/internal/service/reporting"
	scansvc "github.com/mamadbah2/pettycash/internal/service/scan"
	"github.com/mamadbah2/pettycash/internal/service/session"
	transfersvc "github.com/mamadbah2/pettycash/internal/service/transfers"
	"github.com/mamadbah2/pettycash/internal/ws"
	"github.com/mamadbah2/pettycash/pkg/clients/blob"
	"github.com/mamadbah2/pettycash/pkg/clients/mailer"
	"github.com/mamadbah2/pettycash/pkg/clients/notify"
	"github.com/mamadbah2/pettycash/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)
	metrics.Init()

	ctx := context.Background()

	mongoRepo, err := mongodb.NewRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongo"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()
	if err := mongoRepo.EnsureIndexes(ctx); err != nil {
		baseLogger.Fatal("failed to ensure mongodb indexes", zap.Error(err))
	}

	redisStore, err := redisstore.NewStore(ctx, cfg.Redis, baseLogger.Named("repo.redis"))
	if err != nil {
		baseLogger.Fatal("failed to init redis store", zap.Error(err))
	}
	defer func() { _ = redisStore.Close() }()

	blobs, err := blob.NewGCSStore(ctx, cfg.Storage, baseLogger.Named("client.gcs"))
	if err != nil {
		baseLogger.Fatal("failed to init blob storage", zap.Error(err))
	}
	defer func() { _ = blobs.Close() }()

	aggregator, err := ledger.NewAggregator(mongoRepo, cfg.Ledger.FloorMonth, baseLogger.Named("svc.ledger"))
	if err != nil {
		baseLogger.Fatal("failed to init ledger", zap.Error(err))
	}
	books := bookkeeping.NewService(mongoRepo, baseLogger.Named("svc.bookkeeping"))
	reconciler := auditsvc.NewReconciler(mongoRepo, aggregator, baseLogger.Named("svc.audit"))
	exporter := exportsvc.NewService(mongoRepo, baseLogger.Named("svc.export"))

	transferOpts := []transfersvc.Option{
		transfersvc.WithMailer(mailer.NewSMTPClient(cfg.Mail, baseLogger.Named("client.mail"))),
	}
	if cfg.Notify.TransferWebhookURL != "" {
		transferOpts = append(transferOpts, transfersvc.WithNotifier(notify.NewWebhookClient(cfg.Notify.TransferWebhookURL)))
	} else {
		baseLogger.Warn("transfer webhook url missing, notifications disabled")
	}
	transfers := transfersvc.NewService(mongoRepo, mongoRepo, transfersvc.NewNumberer(mongoRepo), blobs,
		baseLogger.Named("svc.transfers"), transferOpts...)

	hub := ws.NewHub(baseLogger.Named("ws.hub"))
	go hub.Run()
	defer hub.Stop()

	scans := scansvc.NewService(scansvc.Config{
		Sessions:      redisStore,
		Fallback:      redisStore,
		Locker:        redisStore,
		Publisher:     hub,
		Attacher:      books,
		Blobs:         blobs,
		PublicBaseURL: cfg.Server.PublicBaseURL,
		Logger:        baseLogger.Named("svc.scan"),
	})

	watchdog := session.NewWatchdog(cfg.Session.IdleTimeout, baseLogger.Named("svc.session"))
	authenticator := auth.NewAuthenticator(mongoRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, baseLogger.Named("svc.auth"))

	engine := router.New(router.Deps{
		JWTSecret: authenticator.Secret(),
		Sessions:  watchdog,
		Health:    []router.Pinger{mongoRepo, redisStore},
		Auth:      handlers.NewAuthHandler(authenticator, watchdog, baseLogger.Named("handlers.auth")),
		Stores:    handlers.NewStoreHandler(mongoRepo, baseLogger.Named("handlers.stores")),
		Ledger:    handlers.NewLedgerHandler(books, aggregator, baseLogger.Named("handlers.ledger")),
		Audits:    handlers.NewAuditHandler(reconciler, baseLogger.Named("handlers.audits")),
		Transfers: handlers.NewTransferHandler(transfers, baseLogger.Named("handlers.transfers")),
		Exports:   handlers.NewExportHandler(exporter, watchdog, baseLogger.Named("handlers.exports")),
		Scans:     handlers.NewScanHandler(scans, hub, baseLogger.Named("handlers.scans")),
	}, baseLogger.Named("router"))

	var syncer scheduler.SummarySyncer
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		syncer = reporting.NewService(sheetsRepo, mongoRepo, aggregator, baseLogger.Named("svc.reporting"))
	} else {
		baseLogger.Warn("google sheet id missing, summary sync disabled")
	}

	sched, err := scheduler.NewScheduler(*cfg, syncer, watchdog, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
