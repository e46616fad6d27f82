package service

import (
	"context"
	"time"

	"github.com/zuma-group/bill-integration-platform/internal/logger"
)

// GmailPollWorker periodically polls the ingestion mailbox.
type GmailPollWorker struct {
	gmail    GmailService
	interval time.Duration
	max      int
	timeout  time.Duration
}

// NewGmailPollWorker creates a GmailPollWorker.
func NewGmailPollWorker(gmail GmailService, interval time.Duration, max int) *GmailPollWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &GmailPollWorker{gmail: gmail, interval: interval, max: max, timeout: 5 * time.Minute}
}

// Start runs the polling loop until ctx is canceled. A poll in flight when
// ctx is canceled runs to completion on its own context.
func (w *GmailPollWorker) Start(ctx context.Context) {
	log := logger.WithComponent("worker.gmail_poll")
	if !w.gmail.Enabled() {
		log.Info().Msg("gmail ingestion disabled, worker not started")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	log.Info().Dur("interval", w.interval).Int("max", w.max).Msg("started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutdown complete")
			return
		case <-ticker.C:
			w.pollOnce()
		}
	}
}

func (w *GmailPollWorker) pollOnce() {
	log := logger.WithComponent("worker.gmail_poll")
	pollCtx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	res, err := w.gmail.Poll(pollCtx, w.max)
	if err != nil {
		log.Error().Err(err).Msg("poll failed")
		return
	}
	if res.Processed > 0 || res.FailedCount > 0 {
		log.Info().
			Int("processed", res.Processed).
			Int("skipped", res.Skipped).
			Int("failed", res.FailedCount).
			Int("invoices", res.Invoices).
			Msg("poll complete")
	}
}
