package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/vultisig/solsend/internal/graceful"
	"github.com/vultisig/solsend/internal/logging"
	"github.com/vultisig/solsend/internal/metrics"
	"github.com/vultisig/solsend/internal/server"
	"github.com/vultisig/solsend/internal/solana"
	"github.com/vultisig/solsend/internal/transfer"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := newConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger := logging.NewLogger(cfg.LogFormat)
	logging.SetLevel(logger, cfg.LogLevel)

	metricsServer := metrics.StartMetricsServer(
		cfg.Metrics,
		[]string{metrics.ServiceHTTP, metrics.ServiceTransfer},
		logger,
	)
	defer func() {
		if metricsServer != nil {
			if err := metricsServer.Stop(context.Background()); err != nil {
				logger.Errorf("failed to stop metrics server: %v", err)
			}
		}
	}()

	key, err := solana.LoadPrivateKey(cfg.Solana.KeypairPath, cfg.Solana.PrivateKey)
	if err != nil {
		logger.Fatalf("failed to load wallet keypair: %v", err)
	}
	wallet := solana.NewKeypairWallet(key)
	if cfg.Transfer.AutoConnect {
		wallet.Connect()
	}

	network, err := solana.NewNetwork(ctx, cfg.Solana, logger)
	if err != nil {
		logger.Fatalf("failed to initialize Solana network: %v", err)
	}

	opts := []transfer.Option{
		transfer.WithRecorder(metrics.NewTransferMetrics()),
		transfer.WithCluster(cfg.Solana.Cluster),
	}
	if cfg.Transfer.SingleFlight {
		opts = append(opts, transfer.WithSingleFlight())
	}
	orchestrator := transfer.New(wallet, network, logger, opts...)

	logger.WithFields(logrus.Fields{
		"cluster":       cfg.Solana.Cluster,
		"commitment":    cfg.Solana.Commitment,
		"single_flight": cfg.Transfer.SingleFlight,
	}).Info("transfer orchestrator ready")

	orchestrator.RefreshDisplayData(ctx)

	middlewares := append(server.DefaultMiddlewares(), metrics.HTTPMiddleware())

	srv := server.NewServer(
		cfg.Server,
		orchestrator,
		wallet,
		middlewares,
		logger,
	)

	graceful.CancelOnSignal(ctx, cancel, logger)

	err = srv.Start(ctx)
	if err != nil {
		logger.Fatalf("failed to start server: %v", err)
	}
	logger.Info("server stopped")
}
