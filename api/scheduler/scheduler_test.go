package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casedock/casedock-api/chambers"
)

type countingReconciler struct {
	calls int
	err   error
}

func (c *countingReconciler) ReconcileOrphans(context.Context) (chambers.ReconcileReport, error) {
	c.calls++
	return chambers.ReconcileReport{Members: 2}, c.err
}

func TestRunReconcile(t *testing.T) {
	r := &countingReconciler{}
	s := NewScheduler(r, nil, "@hourly")

	assert.True(t, s.RunReconcile(context.Background()))
	assert.True(t, s.RunReconcile(context.Background()))
	assert.Equal(t, 2, r.calls)
}

func TestRunReconcile_FailureReleasesLock(t *testing.T) {
	r := &countingReconciler{err: errors.New("boom")}
	s := NewScheduler(r, nil, "@hourly")

	assert.True(t, s.RunReconcile(context.Background()))
	assert.True(t, s.RunReconcile(context.Background()))
	assert.Equal(t, 2, r.calls)
}

func TestRunReconcile_SkipsWhenLockHeld(t *testing.T) {
	lock := NewLocalLock()
	ok, err := lock.TryAcquire(context.Background(), reconcileJob, "web.2", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	r := &countingReconciler{}
	s := NewScheduler(r, lock, "@hourly")
	assert.False(t, s.RunReconcile(context.Background()))
	assert.Zero(t, r.calls)
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := NewScheduler(&countingReconciler{}, nil, "every tuesday")
	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&countingReconciler{}, nil, "@every 1h")
	require.NoError(t, s.Start())
	s.Stop()
}

func TestRedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	lock := NewRedisLock(client)
	ctx := context.Background()

	ok, err := lock.TryAcquire(ctx, "job", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.TryAcquire(ctx, "job", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx, "job", "b"))
	assert.True(t, mr.Exists("lock:job"))

	require.NoError(t, lock.Release(ctx, "job", "a"))
	assert.False(t, mr.Exists("lock:job"))

	ok, err = lock.TryAcquire(ctx, "job", "b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = lock.TryAcquire(ctx, "job", "c", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
