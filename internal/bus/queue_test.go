package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func TestQueuePublishAndDrain(t *testing.T) {
	q := NewQueue(8)

	for i := 0; i < 5; i++ {
		require.NoError(t, q.TryPublish(schema.OrdReport{UniqueID: uint64(i)}))
	}
	q.Close()

	var got []uint64
	q.Run(context.Background(), func(report schema.OrdReport) {
		got = append(got, report.UniqueID)
	})
	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, got)
}

func TestQueueFull(t *testing.T) {
	q := NewQueue(1)

	require.NoError(t, q.TryPublish(schema.OrdReport{UniqueID: 1}))
	err := q.TryPublish(schema.OrdReport{UniqueID: 2})
	require.ErrorIs(t, err, ErrQueueFull)
}

func TestQueueClosed(t *testing.T) {
	q := NewQueue(4)
	q.Close()
	q.Close()

	err := q.TryPublish(schema.OrdReport{UniqueID: 1})
	require.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueueRunStopsOnContext(t *testing.T) {
	q := NewQueue(4)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		q.Run(ctx, func(schema.OrdReport) {})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop on context cancel")
	}
}

func TestQueueConcurrentPublishClose(t *testing.T) {
	q := NewQueue(16)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = q.TryPublish(schema.OrdReport{UniqueID: uint64(i*100 + j)})
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		q.Run(context.Background(), func(schema.OrdReport) {})
		close(done)
	}()

	wg.Wait()
	q.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not drain after close")
	}
}
