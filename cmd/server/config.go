package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/vultisig/solsend/internal/logging"
	"github.com/vultisig/solsend/internal/metrics"
	"github.com/vultisig/solsend/internal/server"
	"github.com/vultisig/solsend/internal/solana"
)

type config struct {
	LogFormat logging.LogFormat `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string            `envconfig:"LOG_LEVEL" default:"info"`
	Server    server.Config
	Solana    solana.Config
	Transfer  transferConfig
	Metrics   metrics.Config
}

type transferConfig struct {
	SingleFlight bool `envconfig:"TRANSFER_SINGLE_FLIGHT" default:"false"`
	AutoConnect  bool `envconfig:"TRANSFER_AUTO_CONNECT" default:"true"`
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}
