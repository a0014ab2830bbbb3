package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type pruner struct {
	calls atomic.Int32
	err   error
}

func (p *pruner) PruneSessions(ctx context.Context, now time.Time) (int64, error) {
	p.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("no deadline")
	}
	return 2, p.err
}

func TestPruneJobLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := &pruner{}
	pruneJob{p: p, timeout: time.Second, log: zap.New(core)}.Run()

	assert.EqualValues(t, 1, p.calls.Load())
	require.Equal(t, 1, logs.FilterMessage("pruned sessions").Len())
	assert.EqualValues(t, 2, logs.All()[0].ContextMap()["removed"])

	p.err = errors.New("db down")
	pruneJob{p: p, timeout: time.Second, log: zap.New(core)}.Run()
	assert.Equal(t, 1, logs.FilterMessage("prune sessions").Len())
}

func TestBadSchedule(t *testing.T) {
	s := New(zap.NewNop())
	assert.Error(t, s.PruneSessions("not a schedule", &pruner{}, time.Second))
}

func TestSchedulerRunsJob(t *testing.T) {
	s := New(zap.NewNop())
	p := &pruner{}
	require.NoError(t, s.PruneSessions("@every 1s", p, time.Second))

	s.Start()
	assert.Eventually(t, func() bool { return p.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
