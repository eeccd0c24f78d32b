package cleanup

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/repository"
)

type fakeDeleter struct {
	fail    map[string]bool
	deleted []string
}

func (f *fakeDeleter) DeleteProject(_ context.Context, name string) error {
	if f.fail[name] {
		return errors.New("vercel: 500")
	}
	f.deleted = append(f.deleted, name)
	return nil
}

func setupQueue(t *testing.T) *repository.CleanupQueue {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return repository.NewCleanupQueue(client)
}

func TestSweep_DrainsAndRequeuesFailures(t *testing.T) {
	ctx := context.Background()
	queue := setupQueue(t)
	for _, name := range []string{"alpha", "beta", "gamma"} {
		require.NoError(t, queue.Push(ctx, name))
	}

	deleter := &fakeDeleter{fail: map[string]bool{"beta": true}}
	s := NewSweeper(queue, deleter)
	s.batch = 2

	report, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Deleted: 2, Requeued: 1}, report)
	assert.ElementsMatch(t, []string{"alpha", "gamma"}, deleter.deleted)

	n, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// The next pass retries beta once it succeeds.
	deleter.fail = nil
	report, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Deleted: 1}, report)
}

func TestSweep_EmptyQueue(t *testing.T) {
	report, err := NewSweeper(setupQueue(t), &fakeDeleter{}).Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report)
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := NewScheduler(NewSweeper(setupQueue(t), &fakeDeleter{}))
	assert.Error(t, s.Start("not a cron spec"))
}
