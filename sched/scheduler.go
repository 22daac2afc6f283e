// Package sched runs the periodic catalog refresh: a single recurring
// job that sweeps a rotation of search queries through the ingestion
// pipeline. Overlapping executions are skipped, never queued.
package sched

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"bookflipfinder/config"
	"bookflipfinder/ingest"
)

const refreshJobName = "catalog-refresh"

// Ingestor is the slice of the ingestion pipeline the scheduler drives.
type Ingestor interface {
	ScrapeSearch(ctx context.Context, query string, maxResults int) (*ingest.Summary, error)
}

// JobStatus describes one scheduled job.
type JobStatus struct {
	ID   int        `json:"id"`
	Name string     `json:"name"`
	Next *time.Time `json:"next_run,omitempty"`
}

// Status is a snapshot of the scheduler.
type Status struct {
	State string      `json:"state"`
	Jobs  []JobStatus `json:"jobs"`
}

// Scheduler owns the recurring refresh job. Start and Stop are safe to
// call from any goroutine; Stop waits for an in-flight sweep to finish.
type Scheduler struct {
	cfg      *config.Config
	ingestor Ingestor

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID

	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a stopped scheduler.
func New(cfg *config.Config, ingestor Ingestor) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		ingestor: ingestor,
		sleep:    sleepCtx,
	}
}

// Start registers the refresh job and starts the clock. A second Start
// while running is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		slog.Warn("scheduler is already running")
		return
	}

	logger := cronLogger{}
	runner := cron.New(cron.WithLogger(logger))
	job := cron.NewChain(cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(s.runSweep))
	s.entryID = runner.Schedule(cron.Every(s.cfg.ScrapeInterval), job)
	runner.Start()
	s.cron = runner

	slog.Info("scheduler started",
		slog.String("job", refreshJobName),
		slog.Duration("interval", s.cfg.ScrapeInterval),
	)
}

// Stop cancels the recurring job and waits for any in-flight sweep to
// finish before returning.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	runner := s.cron
	s.cron = nil
	s.mu.Unlock()

	if runner == nil {
		return
	}
	<-runner.Stop().Done()
	slog.Info("scheduler stopped")
}

// Status reports the current state and scheduled jobs.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return Status{State: "stopped", Jobs: []JobStatus{}}
	}

	entry := s.cron.Entry(s.entryID)
	status := Status{State: "running", Jobs: []JobStatus{}}
	if entry.ID != 0 {
		job := JobStatus{ID: int(entry.ID), Name: refreshJobName}
		if !entry.Next.IsZero() {
			next := entry.Next
			job.Next = &next
		}
		status.Jobs = append(status.Jobs, job)
	}
	return status
}

// runSweep walks the search rotation once. A failing term is logged and
// skipped; the sweep always visits every term.
func (s *Scheduler) runSweep() {
	ctx := context.Background()
	slog.Info("starting catalog refresh sweep", slog.Int("terms", len(s.cfg.SearchRotation)))

	totalBooks := 0
	for i, query := range s.cfg.SearchRotation {
		summary, err := s.ingestor.ScrapeSearch(ctx, query, s.cfg.ResultsPerQuery)
		if err != nil {
			slog.Error("refresh term failed",
				slog.String("query", query),
				slog.Any("error", err),
			)
		} else {
			totalBooks += summary.BooksFound
			slog.Info("refresh term finished",
				slog.String("query", query),
				slog.Int("books_found", summary.BooksFound),
			)
		}

		if i < len(s.cfg.SearchRotation)-1 {
			if err := s.sleep(ctx, s.cfg.QueryDelay); err != nil {
				return
			}
		}
	}
	slog.Info("catalog refresh sweep finished", slog.Int("total_books", totalBooks))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts slog to the cron logger interface.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, slog.Any("details", keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, slog.Any("error", err), slog.Any("details", keysAndValues))
}
