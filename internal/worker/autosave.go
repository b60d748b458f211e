// Package worker runs background jobs next to the bot front-end.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/log"

	"github.com/robfig/cron/v3"
)

// ErrEmptySchedule is returned when the autosaver is built without a cron spec.
var ErrEmptySchedule = errors.New("autosave schedule is empty")

// Exporter writes the ledger to a file. *services.LedgerService satisfies it.
type Exporter interface {
	Export(ctx context.Context, path string) error
}

// Autosaver periodically exports the ledger to a data file and saves one
// last time when stopped.
type Autosaver struct {
	exporter Exporter
	path     string
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   *log.Logger
}

// NewAutosaver validates schedule (standard cron syntax or a descriptor
// such as "@every 5m") and returns a stopped autosaver.
func NewAutosaver(exporter Exporter, path, schedule string) (*Autosaver, error) {
	if schedule == "" {
		return nil, ErrEmptySchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid autosave schedule %q: %w", schedule, err)
	}
	return &Autosaver{
		exporter: exporter,
		path:     path,
		schedule: schedule,
		timeout:  30 * time.Second,
		cron:     cron.New(),
		logger:   log.WithComponent(log.ComponentWorker),
	}, nil
}

// Start registers the job and starts the scheduler. Jobs run with a context
// derived from ctx.
func (a *Autosaver) Start(ctx context.Context) error {
	if _, err := a.cron.AddFunc(a.schedule, func() {
		jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		if err := a.SaveNow(jobCtx); err != nil {
			a.logger.ErrorContext(jobCtx, "Autosave failed", log.FieldPath, a.path, log.FieldError, err)
		}
	}); err != nil {
		return fmt.Errorf("schedule autosave: %w", err)
	}
	a.cron.Start()
	a.logger.InfoContext(ctx, "Autosave scheduled", "schedule", a.schedule, log.FieldPath, a.path)
	return nil
}

// SaveNow exports immediately.
func (a *Autosaver) SaveNow(ctx context.Context) error {
	start := time.Now()
	if err := a.exporter.Export(ctx, a.path); err != nil {
		return err
	}
	a.logger.DebugContext(ctx, "Autosave completed",
		log.FieldPath, a.path, log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Stop halts the scheduler, waits for a running job and performs the final
// save.
func (a *Autosaver) Stop(ctx context.Context) error {
	select {
	case <-a.cron.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := a.SaveNow(ctx); err != nil {
		return fmt.Errorf("final autosave: %w", err)
	}
	a.logger.InfoContext(ctx, "Final autosave written", log.FieldPath, a.path)
	return nil
}
