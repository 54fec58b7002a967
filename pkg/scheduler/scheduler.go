// Package scheduler runs ingestion followed by enrichment on a fixed interval.
// Runs are sequential, a new run never starts before the previous one is finished.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newsagg/pkg/enrich"
	"github.com/umputun/newsagg/pkg/ingest"
)

//go:generate moq -out mocks/ingester.go -pkg mocks -skip-ensure -fmt goimports . Ingester
//go:generate moq -out mocks/enricher.go -pkg mocks -skip-ensure -fmt goimports . Enricher

// Ingester runs one ingestion pass
type Ingester interface {
	Run(ctx context.Context) (ingest.Stats, error)
}

// Enricher runs one enrichment batch
type Enricher interface {
	Run(ctx context.Context) (enrich.Stats, error)
}

// Params defines scheduler parameters
type Params struct {
	Ingester         Ingester
	Enricher         Enricher
	Interval         time.Duration
	MaxEnrichBatches int // enrichment batches per run while full batches are returned
	BatchSize        int // enrichment batch size, used to detect a drained backlog
}

// Status is the outcome of the last completed run
type Status struct {
	Running     bool         `json:"running"`
	Runs        int          `json:"runs"`
	LastStarted time.Time    `json:"last_started,omitempty"`
	LastDone    time.Time    `json:"last_done,omitempty"`
	Ingest      ingest.Stats `json:"ingest"`
	Enrich      enrich.Stats `json:"enrich"`
	Error       string       `json:"error,omitempty"` // failure of the last run, empty on success
}

// Scheduler manages periodic ingestion and enrichment
type Scheduler struct {
	Params
	mu     sync.Mutex
	status Status
	runMu  sync.Mutex // serializes runs
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewScheduler creates a new scheduler instance
func NewScheduler(params Params) *Scheduler {
	if params.Interval <= 0 {
		params.Interval = 30 * time.Minute
	}
	if params.MaxEnrichBatches <= 0 {
		params.MaxEnrichBatches = 1
	}
	if params.BatchSize <= 0 {
		params.BatchSize = enrich.DefaultBatchSize
	}
	return &Scheduler{Params: params}
}

// Start runs immediately and then on every interval tick until Stop or context cancellation
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		_ = s.RunOnce(ctx) // failures are logged and kept in Status
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = s.RunOnce(ctx)
			}
		}
	}()
	lgr.Printf("[INFO] scheduler started with interval %v", s.Interval)
}

// Stop gracefully stops the scheduler, waits for the current run to finish
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// RunOnce runs ingestion and then enrichment batches. Concurrent calls wait for each other.
// Returns the error which stopped the run, enrichment is skipped after failed ingestion.
func (s *Scheduler) RunOnce(ctx context.Context) (err error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	s.status.Running = true
	s.status.LastStarted = time.Now()
	s.mu.Unlock()

	var ingestStats ingest.Stats
	var enrichStats enrich.Stats
	defer func() {
		s.mu.Lock()
		s.status.Running = false
		s.status.Runs++
		s.status.LastDone = time.Now()
		s.status.Ingest = ingestStats
		s.status.Enrich = enrichStats
		s.status.Error = ""
		if err != nil {
			s.status.Error = err.Error()
		}
		s.mu.Unlock()
	}()

	if s.Ingester != nil {
		if ingestStats, err = s.Ingester.Run(ctx); err != nil {
			lgr.Printf("[WARN] ingestion failed: %v", err)
			return fmt.Errorf("ingest: %w", err)
		}
	}
	if s.Enricher == nil {
		return nil
	}

	for i := 0; i < s.MaxEnrichBatches; i++ {
		stats, rerr := s.Enricher.Run(ctx)
		enrichStats = addEnrichStats(enrichStats, stats)
		if rerr != nil {
			lgr.Printf("[WARN] enrichment failed: %v", rerr)
			return fmt.Errorf("enrich: %w", rerr)
		}
		// stop when backlog drained or nothing was written, failed documents would be selected again
		if stats.Selected < s.BatchSize || stats.Failed == stats.Selected {
			return nil
		}
	}
	return nil
}

// Status returns the state of the scheduler
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func addEnrichStats(a, b enrich.Stats) enrich.Stats {
	return enrich.Stats{
		Selected:     a.Selected + b.Selected,
		Summarized:   a.Summarized + b.Summarized,
		Classified:   a.Classified + b.Classified,
		ShortContent: a.ShortContent + b.ShortContent,
		Fallbacks:    a.Fallbacks + b.Fallbacks,
		Failed:       a.Failed + b.Failed,
	}
}
