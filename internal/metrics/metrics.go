package metrics

// Package metrics provides Prometheus metrics collection for the send service.
//
// This package includes:
// - HTTP request metrics (count, latency, errors)
// - Transfer submission and display refresh metrics
// - Metrics HTTP server on configurable port
//
// Usage:
//   import "github.com/vultisig/solsend/internal/metrics"
//
//   metricsServer := metrics.StartMetricsServer(cfg.Metrics, []string{metrics.ServiceHTTP, metrics.ServiceTransfer}, logger)
//   defer metricsServer.Stop(context.Background())
//
//   e.Use(metrics.HTTPMiddleware())
