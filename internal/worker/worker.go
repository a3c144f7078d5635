// Package worker drives the claim loop: it pulls pending triggers from the
// store one at a time and hands each to the processor.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"ibhelm.app/agent/internal/model"
	"ibhelm.app/agent/internal/store"
)

// Processor handles one claimed trigger end to end.
type Processor interface {
	Process(ctx context.Context, trigger *model.Trigger) error
}

type Config struct {
	// PollInterval is the idle sleep after an empty claim.
	PollInterval time.Duration
	// ErrorBackoff is the sleep after a cycle error, longer than the poll
	// interval so a broken dependency is not hammered.
	ErrorBackoff time.Duration
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.ErrorBackoff <= 0 {
		c.ErrorBackoff = 5 * time.Second
	}
}

// Worker is the single-flight polling loop. It processes at most one trigger
// at a time; horizontal scaling happens by running more workers, which stay
// disjoint through the store's locked claim.
type Worker struct {
	triggers  store.TriggerStore
	processor Processor
	cfg       Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(triggers store.TriggerStore, processor Processor, cfg Config) *Worker {
	cfg.applyDefaults()
	return &Worker{
		triggers:  triggers,
		processor: processor,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run polls until the context is cancelled or Stop is called. A trigger that
// is mid-flight when shutdown begins is finished before Run returns.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "worker started",
		"poll_interval", w.cfg.PollInterval.String(),
		"error_backoff", w.cfg.ErrorBackoff.String())

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "worker stopping", "reason", "context cancelled")
			return
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping", "reason", "stop requested")
			return
		default:
		}

		err := w.cycleSafe(ctx)
		switch {
		case err == nil:
			// Claimed and processed; immediately try for the next one.
		case errors.Is(err, store.ErrNoPendingTriggers):
			if !w.idle(ctx, w.cfg.PollInterval) {
				return
			}
		default:
			slog.ErrorContext(ctx, "worker cycle failed", "error", err)
			if !w.idle(ctx, w.cfg.ErrorBackoff) {
				return
			}
		}
	}
}

// Stop requests shutdown and blocks until the loop has drained.
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

// cycleSafe runs one claim-and-process cycle, converting panics into errors
// so one poisoned trigger cannot take the loop down.
func (w *Worker) cycleSafe(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v\n%s", r, debug.Stack())
		}
	}()
	return w.cycle(ctx)
}

func (w *Worker) cycle(ctx context.Context) error {
	trigger, err := w.triggers.ClaimNext(ctx)
	if err != nil {
		return err
	}
	return w.processor.Process(ctx, trigger)
}

// idle sleeps for d, waking early on shutdown. Returns false when the loop
// should exit.
func (w *Worker) idle(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-w.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}
