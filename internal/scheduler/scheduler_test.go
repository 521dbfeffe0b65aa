package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"polyglot/internal/scheduler"
)

type cleanupStub struct {
	runs atomic.Int32
}

func (c *cleanupStub) Cleanup(ctx context.Context) error {
	c.runs.Add(1)
	return nil
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	stub := &cleanupStub{}
	s := scheduler.New(stub, 20*time.Millisecond)
	s.Start()

	require.Eventually(t, func() bool { return stub.runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	after := stub.runs.Load()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, after, stub.runs.Load())
}
