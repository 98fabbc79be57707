package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/config"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/simulate"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/pkg/logger"
)

// Default configuration constants.
const (
	defaultSubmissions = 100
	defaultAcceptRate  = 0.6
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the ingestion API")
		token       = flag.String("token", "", "Bearer token for the ingestion API")
		submissions = flag.Int("submissions", defaultSubmissions, "Number of submissions to simulate")
		acceptRate  = flag.Float64("accept-rate", defaultAcceptRate, "Fraction of submissions the judge accepts")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed        = flag.Int64("seed", 0, "Verdict RNG seed (0 = random)")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Pipeline tuning comes from the same config surface the server uses.
	svcCfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	cfg := &simulate.Config{
		BaseURL:          *baseURL,
		Token:            *token,
		Submissions:      *submissions,
		AcceptRate:       *acceptRate,
		Timeout:          *timeout,
		Seed:             *seed,
		PendingTTL:       time.Duration(svcCfg.PendingTTLSeconds) * time.Second,
		SweepInterval:    time.Duration(svcCfg.SweepIntervalSeconds) * time.Second,
		BusCapacity:      svcCfg.BusCapacity,
		ForwardBatchSize: svcCfg.ForwardBatchSize,
	}

	if _, err := simulate.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
