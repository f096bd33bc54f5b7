package queue

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealgrade/server/internal/analysis"
	"dealgrade/server/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func job(city string) Job {
	return NewJob(analysis.Input{Property: models.PropertyAttributes{City: city}})
}

func TestNewAnalysisQueue(t *testing.T) {
	q := NewAnalysisQueue(10, testLogger())
	assert.NotNil(t, q)
	assert.Equal(t, 10, q.maxSize)
	assert.False(t, q.IsClosed())
}

func TestNewJob(t *testing.T) {
	a, b := job("Houston"), job("Houston")
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.SubmittedAt.IsZero())
	assert.Equal(t, "Houston", a.Input.Property.City)
}

func TestAnalysisQueue_Push(t *testing.T) {
	q := NewAnalysisQueue(2, testLogger())

	// Test successful push
	jobs := []Job{job("test1")}
	err := q.Push(jobs)
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	// Fill the remaining slot
	require.NoError(t, q.Push([]Job{job("test2")}))

	// Test queue full
	err = q.Push(jobs)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 2, q.Len())

	// Test closed queue
	require.NoError(t, q.Close())
	err = q.Push(jobs)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestAnalysisQueue_Subscribe(t *testing.T) {
	q := NewAnalysisQueue(10, testLogger())
	defer q.Close()

	var processed []Job
	var mu sync.Mutex
	done := make(chan struct{})

	q.Subscribe(func(jobs []Job) error {
		mu.Lock()
		processed = append(processed, jobs...)
		mu.Unlock()
		close(done)
		return nil
	})
	q.Start()

	err := q.Push([]Job{job("test1"), job("test2")})
	assert.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("batch was not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, processed, 2)
	assert.Equal(t, "test1", processed[0].Input.Property.City)
	assert.Equal(t, "test2", processed[1].Input.Property.City)
}

func TestAnalysisQueue_Close(t *testing.T) {
	q := NewAnalysisQueue(10, testLogger())

	// Test first close
	err := q.Close()
	assert.NoError(t, err)
	assert.True(t, q.IsClosed())

	// Test second close (should be no-op)
	err = q.Close()
	assert.NoError(t, err)
}

func TestAnalysisQueue_ProcessBatch(t *testing.T) {
	q := NewAnalysisQueue(10, testLogger())
	defer q.Close()

	var wg sync.WaitGroup
	processedBatches := 0
	var mu sync.Mutex

	// Add multiple handlers, one failing
	for i := 0; i < 3; i++ {
		wg.Add(1)
		fail := i == 1
		q.Subscribe(func(jobs []Job) error {
			defer wg.Done()
			mu.Lock()
			processedBatches++
			mu.Unlock()
			if fail {
				return errors.New("handler failed")
			}
			return nil
		})
	}
	q.Start()

	err := q.Push([]Job{job("test")})
	assert.NoError(t, err)

	// A failing handler does not stop the others
	wg.Wait()

	mu.Lock()
	assert.Equal(t, 3, processedBatches)
	mu.Unlock()
}

func TestAnalysisQueue_ConcurrentPushAndClose(t *testing.T) {
	q := NewAnalysisQueue(100, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := q.Push([]Job{job("x")})
			if err != nil {
				assert.ErrorIs(t, err, ErrQueueClosed)
			}
		}()
	}
	q.Close()
	wg.Wait()
	assert.True(t, q.IsClosed())
}

func TestAnalysisQueue_CloseDeliversBufferedBatches(t *testing.T) {
	tests := []struct {
		name  string
		start bool
	}{
		{name: "started queue", start: true},
		{name: "never started", start: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewAnalysisQueue(10, testLogger())

			var mu sync.Mutex
			delivered := 0
			q.Subscribe(func(jobs []Job) error {
				time.Sleep(20 * time.Millisecond)
				mu.Lock()
				delivered += len(jobs)
				mu.Unlock()
				return nil
			})
			if tt.start {
				q.Start()
			}

			for i := 0; i < 4; i++ {
				require.NoError(t, q.Push([]Job{job("a"), job("b"), job("c")}))
			}
			require.NoError(t, q.Close())

			mu.Lock()
			assert.Equal(t, 12, delivered)
			mu.Unlock()
			assert.Equal(t, 0, q.Len())
			assert.ErrorIs(t, q.Push([]Job{job("late")}), ErrQueueClosed)
		})
	}
}
