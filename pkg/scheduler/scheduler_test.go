package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsagg/pkg/enrich"
	"github.com/umputun/newsagg/pkg/ingest"
	"github.com/umputun/newsagg/pkg/scheduler/mocks"
)

func TestScheduler_RunOnce(t *testing.T) {
	var mu sync.Mutex
	var order []string
	ingester := &mocks.IngesterMock{RunFunc: func(ctx context.Context) (ingest.Stats, error) {
		mu.Lock()
		order = append(order, "ingest")
		mu.Unlock()
		return ingest.Stats{Fetched: 5, Accepted: 3, Rejected: 2}, nil
	}}
	enricher := &mocks.EnricherMock{RunFunc: func(ctx context.Context) (enrich.Stats, error) {
		mu.Lock()
		order = append(order, "enrich")
		mu.Unlock()
		return enrich.Stats{Selected: 3, Summarized: 2, Fallbacks: 1, Classified: 3}, nil
	}}

	s := NewScheduler(Params{Ingester: ingester, Enricher: enricher, BatchSize: 10, MaxEnrichBatches: 5})
	require.NoError(t, s.RunOnce(context.Background()))

	assert.Equal(t, []string{"ingest", "enrich"}, order, "partial batch drains backlog, one enrich call")
	st := s.Status()
	assert.False(t, st.Running)
	assert.Equal(t, 1, st.Runs)
	assert.Equal(t, 3, st.Ingest.Accepted)
	assert.Equal(t, 2, st.Enrich.Summarized)
	assert.False(t, st.LastDone.Before(st.LastStarted))
}

func TestScheduler_RunOnceDrainsFullBatches(t *testing.T) {
	batches := []enrich.Stats{
		{Selected: 2, Summarized: 2},
		{Selected: 2, Summarized: 1, Fallbacks: 1},
		{Selected: 1, Summarized: 1},
	}
	enricher := &mocks.EnricherMock{RunFunc: func(ctx context.Context) (enrich.Stats, error) {
		st := batches[0]
		batches = batches[1:]
		return st, nil
	}}
	ingester := &mocks.IngesterMock{RunFunc: func(ctx context.Context) (ingest.Stats, error) { return ingest.Stats{}, nil }}

	s := NewScheduler(Params{Ingester: ingester, Enricher: enricher, BatchSize: 2, MaxEnrichBatches: 10})
	require.NoError(t, s.RunOnce(context.Background()))

	assert.Len(t, enricher.RunCalls(), 3)
	assert.Equal(t, enrich.Stats{Selected: 5, Summarized: 4, Fallbacks: 1}, s.Status().Enrich)
}

func TestScheduler_RunOnceBatchLimit(t *testing.T) {
	enricher := &mocks.EnricherMock{RunFunc: func(ctx context.Context) (enrich.Stats, error) {
		return enrich.Stats{Selected: 10, Summarized: 10}, nil
	}}
	s := NewScheduler(Params{Enricher: enricher, MaxEnrichBatches: 3})
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Len(t, enricher.RunCalls(), 3)
	assert.Equal(t, 30, s.Status().Enrich.Selected)
}

func TestScheduler_RunOnceStopsWhenNothingWritten(t *testing.T) {
	enricher := &mocks.EnricherMock{RunFunc: func(ctx context.Context) (enrich.Stats, error) {
		return enrich.Stats{Selected: 10, Failed: 10}, nil
	}}
	s := NewScheduler(Params{Enricher: enricher, MaxEnrichBatches: 5})
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Len(t, enricher.RunCalls(), 1, "failed batch is not retried in the same run")
}

func TestScheduler_RunOnceErrors(t *testing.T) {
	t.Run("ingest error skips enrichment", func(t *testing.T) {
		ingester := &mocks.IngesterMock{RunFunc: func(ctx context.Context) (ingest.Stats, error) {
			return ingest.Stats{Fetched: 1}, errors.New("interrupted")
		}}
		enricher := &mocks.EnricherMock{RunFunc: func(ctx context.Context) (enrich.Stats, error) {
			return enrich.Stats{}, nil
		}}
		s := NewScheduler(Params{Ingester: ingester, Enricher: enricher})
		err := s.RunOnce(context.Background())
		require.Error(t, err)
		assert.Equal(t, "ingest: interrupted", err.Error())
		assert.Empty(t, enricher.RunCalls())
		assert.Equal(t, 1, s.Status().Runs)
		assert.Equal(t, 1, s.Status().Ingest.Fetched)
		assert.Equal(t, "ingest: interrupted", s.Status().Error)
	})

	t.Run("enrich error stops batches", func(t *testing.T) {
		enricher := &mocks.EnricherMock{RunFunc: func(ctx context.Context) (enrich.Stats, error) {
			return enrich.Stats{}, errors.New("store down")
		}}
		s := NewScheduler(Params{Enricher: enricher, MaxEnrichBatches: 5})
		err := s.RunOnce(context.Background())
		require.EqualError(t, err, "enrich: store down")
		assert.Len(t, enricher.RunCalls(), 1)
		assert.Equal(t, 1, s.Status().Runs)
		assert.Equal(t, "enrich: store down", s.Status().Error)
	})

	t.Run("successful run clears error", func(t *testing.T) {
		fail := true
		enricher := &mocks.EnricherMock{RunFunc: func(ctx context.Context) (enrich.Stats, error) {
			if fail {
				return enrich.Stats{}, errors.New("store down")
			}
			return enrich.Stats{Selected: 1, Summarized: 1}, nil
		}}
		s := NewScheduler(Params{Enricher: enricher})
		require.Error(t, s.RunOnce(context.Background()))
		fail = false
		require.NoError(t, s.RunOnce(context.Background()))
		assert.Empty(t, s.Status().Error)
		assert.Equal(t, 2, s.Status().Runs)
	})
}

func TestScheduler_Defaults(t *testing.T) {
	s := NewScheduler(Params{})
	assert.Equal(t, 30*time.Minute, s.Interval)
	assert.Equal(t, 1, s.MaxEnrichBatches)
	assert.Equal(t, enrich.DefaultBatchSize, s.BatchSize)

	require.NoError(t, s.RunOnce(context.Background())) // nothing configured, still counted
	assert.Equal(t, 1, s.Status().Runs)
}

func TestScheduler_StartStop(t *testing.T) {
	ingester := &mocks.IngesterMock{RunFunc: func(ctx context.Context) (ingest.Stats, error) { return ingest.Stats{}, nil }}
	enricher := &mocks.EnricherMock{RunFunc: func(ctx context.Context) (enrich.Stats, error) { return enrich.Stats{}, nil }}

	s := NewScheduler(Params{Ingester: ingester, Enricher: enricher, Interval: 20 * time.Millisecond})
	s.Start(context.Background())
	require.Eventually(t, func() bool { return s.Status().Runs >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	runs := len(ingester.RunCalls())
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, ingester.RunCalls(), runs, "no runs after stop")
	assert.False(t, s.Status().Running)
}

func TestScheduler_StartCanceledContext(t *testing.T) {
	ingester := &mocks.IngesterMock{RunFunc: func(ctx context.Context) (ingest.Stats, error) {
		return ingest.Stats{}, ctx.Err()
	}}
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(Params{Ingester: ingester, Interval: time.Hour})
	s.Start(ctx)
	cancel()
	s.Stop()
	assert.LessOrEqual(t, len(ingester.RunCalls()), 1)
}
