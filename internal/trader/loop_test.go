package trader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/kalshi-tennis/internal/model"
)

func TestLoop_StartStop(t *testing.T) {
	ls, as := matches(matchSpec{3 * time.Hour, 50000})
	f := newFixture(t, ls, as)
	o := f.orchestrator(DefaultConfig())

	require.NoError(t, o.StartLoop(context.Background(), 10*time.Millisecond))
	assert.True(t, o.Running())
	assert.ErrorIs(t, o.StartLoop(context.Background(), time.Second), ErrLoopRunning)

	assert.Eventually(t, func() bool {
		return f.analyzer.calls.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, o.StopLoop(time.Second))
	assert.False(t, o.Running())
	assert.Equal(t, 1, f.memory.Len(), "repeated scans trade once")

	assert.NoError(t, o.StopLoop(time.Second), "stopping an idle loop is a no-op")
	require.NoError(t, o.StartLoop(context.Background(), time.Hour), "loop can restart")
	require.NoError(t, o.StopLoop(time.Second))
}

func TestLoop_ContextCancel(t *testing.T) {
	f := newFixture(t, []model.Listing{}, []model.Analysis{})
	o := f.orchestrator(DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, o.StartLoop(ctx, time.Hour))
	cancel()

	assert.Eventually(t, func() bool { return !o.Running() }, time.Second, 5*time.Millisecond)
}
