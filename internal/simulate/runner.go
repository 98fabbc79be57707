package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/capture/bus"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/capture/forward"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/capture/intercept"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/capture/registry"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/pkg/logger"
)

// Run configuration constants.
const (
	drainPollInterval = 50 * time.Millisecond
	drainTimeout      = 30 * time.Second
	shutdownTimeout   = 5 * time.Second
)

var languages = []string{"python3", "golang", "cpp", "java"}

// Run executes one complete simulation.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("simulate")
	stats := &Stats{StartTime: time.Now()}

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	j := newJudge(cfg.AcceptRate, seed)
	if err := j.start(); err != nil {
		return nil, err
	}
	defer j.stop()

	// Assemble the capture pipeline exactly as the extension would.
	reg := registry.New(
		registry.WithTTL(cfg.PendingTTL),
		registry.WithSweepInterval(cfg.SweepInterval),
	)
	reg.Start()
	defer reg.Stop()

	capacity := cfg.BusCapacity
	if capacity < cfg.Submissions+1 {
		capacity = cfg.Submissions + 1
	}
	b := bus.New(bus.WithCapacity(capacity))
	client := &http.Client{
		Transport: intercept.New(http.DefaultTransport, reg, b),
		Timeout:   cfg.Timeout,
	}

	var fwdOpts []forward.Option
	if cfg.ForwardBatchSize > 0 {
		fwdOpts = append(fwdOpts, forward.WithBatchSize(cfg.ForwardBatchSize))
	}
	fwd := forward.New(b, cfg.BaseURL, cfg.Token, fwdOpts...)
	go fwd.Run(ctx)

	log.Info(ctx, "starting simulation",
		logger.String("api", cfg.BaseURL),
		logger.String("judge", j.url),
		logger.Int("submissions", cfg.Submissions),
		logger.Float64("acceptRate", cfg.AcceptRate),
	)

	for i := 0; i < cfg.Submissions; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, err := submitOnce(client, j.url, i)
		if err != nil {
			log.Warn(ctx, "submission failed", logger.Error(err))
			continue
		}
		stats.Submitted++
		if j.accepted(id) {
			stats.Accepted++
		} else {
			stats.Rejected++
		}

		if err := pollOnce(client, j.url, id); err != nil {
			log.Warn(ctx, "poll failed", logger.String("id", id), logger.Error(err))
		}
	}

	if err := waitForDrain(ctx, b, fwd); err != nil {
		log.Warn(ctx, "pipeline did not drain", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fwd.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "forwarder shutdown failed", logger.Error(err))
	}

	stats.Undelivered = fwd.OfflineLen()
	stats.Delivered = stats.Accepted - stats.Undelivered
	stats.Duration = time.Since(stats.StartTime)

	log.Info(ctx, "simulation finished",
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("rejected", stats.Rejected),
		logger.Int("delivered", stats.Delivered),
		logger.Int("undelivered", stats.Undelivered),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// submitOnce posts a multipart submission the way the judge site's own page
// does, and returns the submission id issued in the response.
func submitOnce(client *http.Client, judgeURL string, n int) (string, error) {
	problem := strconv.Itoa(1 + n%100)
	lang := languages[n%len(languages)]

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("lang", lang)
	_ = w.WriteField("typed_code", fmt.Sprintf("# attempt %d\nprint(%s)\n", n, problem))
	_ = w.WriteField("question_id", problem)
	_ = w.Close()

	req, err := http.NewRequest(http.MethodPost, judgeURL+"/problems/p"+problem+"/submit/", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		SubmissionID json.Number `json:"submission_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.SubmissionID.String(), nil
}

func pollOnce(client *http.Client, judgeURL, id string) error {
	resp, err := client.Get(judgeURL + "/submissions/detail/" + id + "/check/")
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// waitForDrain blocks until the bus is empty and the forwarder has caught up.
func waitForDrain(ctx context.Context, b *bus.InMemoryBus, fwd *forward.Forwarder) error {
	deadline := time.Now().Add(drainTimeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if b.Len() == 0 {
			// One more interval for the in-flight event to settle.
			time.Sleep(drainPollInterval)
			if b.Len() == 0 {
				return nil
			}
		}
		time.Sleep(drainPollInterval)
	}
	return fmt.Errorf("drain timed out after %s", drainTimeout)
}

// checkServiceHealth verifies the ingestion API is reachable.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	client := &http.Client{Timeout: cfg.Timeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check returned status %d", resp.StatusCode)
	}
	return nil
}
