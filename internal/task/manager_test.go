package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct{ calls atomic.Int32 }

func (c *countingRefresher) Refresh(context.Context) float64 {
	c.calls.Add(1)
	return 5.1
}

type stubReconciler struct {
	repaired int
	err      error
}

func (s stubReconciler) Reconcile(context.Context) (int, error) { return s.repaired, s.err }

type stubPoller struct {
	stored int
	err    error
}

func (s stubPoller) Poll(context.Context) (int, error) { return s.stored, s.err }

func TestManagerRunsRegisteredJobs(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	apy := &countingRefresher{}
	job := NewAPYRefreshJob(apy, 3600)
	require.NoError(t, m.Register(job, true))

	m.Start()
	defer m.Stop()

	assert.Eventually(t, func() bool { return apy.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestJobDefaults(t *testing.T) {
	assert.Equal(t, 300*time.Second, NewAPYRefreshJob(&countingRefresher{}, 0).interval)
	assert.Equal(t, time.Hour, NewPointsReconcileJob(stubReconciler{}, -1).interval)
	assert.Equal(t, 15*time.Second, NewChainMonitorJob(stubPoller{}, 15).interval)

	assert.Equal(t, "apy_refresh", NewAPYRefreshJob(&countingRefresher{}, 0).GetName())
	assert.Equal(t, "points_reconcile", NewPointsReconcileJob(stubReconciler{}, 0).GetName())
	assert.Equal(t, "chain_monitor", NewChainMonitorJob(stubPoller{}, 0).GetName())
}

func TestJobsPropagateErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	assert.NoError(t, NewPointsReconcileJob(stubReconciler{repaired: 2}, 0).Execute(ctx))
	assert.ErrorIs(t, NewPointsReconcileJob(stubReconciler{err: boom}, 0).Execute(ctx), boom)

	assert.NoError(t, NewChainMonitorJob(stubPoller{stored: 3}, 0).Execute(ctx))
	assert.ErrorIs(t, NewChainMonitorJob(stubPoller{err: boom}, 0).Execute(ctx), boom)

	assert.NoError(t, NewAPYRefreshJob(&countingRefresher{}, 0).Execute(ctx))
}
