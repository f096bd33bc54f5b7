package processor

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dealgrade/server/config"
	"dealgrade/server/internal/analysis"
	"dealgrade/server/internal/fixtures"
	"dealgrade/server/internal/models"
	"dealgrade/server/internal/queue"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveAnalyses(ctx context.Context, results []*models.AnalysisResult) error {
	args := m.Called(ctx, results)
	return args.Error(0)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testAnalyzer(t testing.TB) *analysis.Analyzer {
	t.Helper()
	analyzer, err := analysis.NewAnalyzer(analysis.DefaultAssumptions().AsOf(2020))
	require.NoError(t, err)
	return analyzer
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.BatchProcessing.ProcessorCount = 2
	cfg.BatchProcessing.WorkerCount = 4
	cfg.BatchProcessing.MaxRetries = 3
	cfg.BatchProcessing.RetryDelay = 0
	cfg.BatchProcessing.MaxBatchSize = 100
	cfg.BatchProcessing.MaxBatchWaitTime = 60
	return cfg
}

func testJobs(n int) []queue.Job {
	inputs := fixtures.NewGenerator(11, 2020).Inputs(n)
	jobs := make([]queue.Job, 0, n)
	for _, in := range inputs {
		jobs = append(jobs, queue.NewJob(in))
	}
	return jobs
}

func resultsOfLen(n int) interface{} {
	return mock.MatchedBy(func(results []*models.AnalysisResult) bool {
		return len(results) == n
	})
}

func TestNewBatchProcessor(t *testing.T) {
	// Setup
	store := &MockStore{}
	analyzer := testAnalyzer(t)
	q := queue.NewAnalysisQueue(10, testLogger())
	cfg := testConfig()
	logger := testLogger()

	// Test
	processor := NewBatchProcessor(store, analyzer, q, cfg, logger)

	// Assert
	assert.NotNil(t, processor)
	assert.Equal(t, store, processor.store)
	assert.Equal(t, q, processor.queue)
	assert.Equal(t, cfg, processor.config)
	assert.Equal(t, logger, processor.logger)
}

func TestBatchProcessor_ProcessBatch(t *testing.T) {
	store := &MockStore{}
	processor := NewBatchProcessor(store, testAnalyzer(t), queue.NewAnalysisQueue(10, testLogger()), testConfig(), testLogger())
	batch := testJobs(2)

	// Test successful processing
	store.On("SaveAnalyses", mock.Anything, resultsOfLen(2)).Return(nil).Once()
	err := processor.processBatch(batch)
	assert.NoError(t, err)
	store.AssertNumberOfCalls(t, "SaveAnalyses", 1)

	// Test retry on failure
	store.On("SaveAnalyses", mock.Anything, resultsOfLen(2)).Return(errors.New("db error")).Times(4)
	err = processor.processBatch(batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to process batch after 4 attempts")
	assert.ErrorContains(t, err, "db error")
	store.AssertNumberOfCalls(t, "SaveAnalyses", 5)
}

func TestBatchProcessor_ProcessBatchRecoversOnRetry(t *testing.T) {
	store := &MockStore{}
	processor := NewBatchProcessor(store, testAnalyzer(t), queue.NewAnalysisQueue(10, testLogger()), testConfig(), testLogger())

	store.On("SaveAnalyses", mock.Anything, mock.Anything).Return(errors.New("database is locked")).Once()
	store.On("SaveAnalyses", mock.Anything, mock.Anything).Return(nil).Once()

	assert.NoError(t, processor.processBatch(testJobs(3)))
	store.AssertNumberOfCalls(t, "SaveAnalyses", 2)
}

func TestBatchProcessor_AnalyzeBatch(t *testing.T) {
	processor := NewBatchProcessor(&MockStore{}, testAnalyzer(t), queue.NewAnalysisQueue(10, testLogger()), testConfig(), testLogger())

	batch := testJobs(5)
	batch[2].Input.Property.LivingArea = 0

	results := processor.analyzeBatch(batch)

	require.Len(t, results, 4)
	want := []string{batch[0].ID, batch[1].ID, batch[3].ID, batch[4].ID}
	for i, r := range results {
		assert.Equal(t, want[i], r.ID, "results keep job order")
		assert.NotEmpty(t, r.Grade.Letter)
	}
}

func TestBatchProcessor_InvalidBatchIsNotPersisted(t *testing.T) {
	store := &MockStore{}
	processor := NewBatchProcessor(store, testAnalyzer(t), queue.NewAnalysisQueue(10, testLogger()), testConfig(), testLogger())

	batch := testJobs(1)
	batch[0].Input.Property.YearBuilt = 0

	assert.NoError(t, processor.processBatch(batch))
	store.AssertNotCalled(t, "SaveAnalyses", mock.Anything, mock.Anything)
}

func TestBatchProcessor_FlushesFullBatch(t *testing.T) {
	store := &MockStore{}
	cfg := testConfig()
	cfg.BatchProcessing.MaxBatchSize = 3
	q := queue.NewAnalysisQueue(10, testLogger())
	processor := NewBatchProcessor(store, testAnalyzer(t), q, cfg, testLogger())

	saved := make(chan int, 1)
	store.On("SaveAnalyses", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved <- len(args.Get(1).([]*models.AnalysisResult))
	}).Return(nil)

	processor.Start()
	q.Start()
	defer func() {
		q.Close()
		processor.Stop()
	}()

	require.NoError(t, q.Push(testJobs(3)))

	select {
	case n := <-saved:
		assert.Equal(t, 3, n)
	case <-time.After(5 * time.Second):
		t.Fatal("full batch was not flushed")
	}
}

func TestBatchProcessor_FlushesPartialBatchAfterWait(t *testing.T) {
	store := &MockStore{}
	cfg := testConfig()
	cfg.BatchProcessing.MaxBatchWaitTime = 1
	q := queue.NewAnalysisQueue(10, testLogger())
	processor := NewBatchProcessor(store, testAnalyzer(t), q, cfg, testLogger())

	saved := make(chan int, 1)
	store.On("SaveAnalyses", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved <- len(args.Get(1).([]*models.AnalysisResult))
	}).Return(nil)

	processor.Start()
	q.Start()
	defer func() {
		q.Close()
		processor.Stop()
	}()

	require.NoError(t, q.Push(testJobs(2)))

	select {
	case n := <-saved:
		assert.Equal(t, 2, n)
	case <-time.After(5 * time.Second):
		t.Fatal("partial batch was not flushed")
	}
}

func TestBatchProcessor_StopFlushesPending(t *testing.T) {
	store := &MockStore{}
	processor := NewBatchProcessor(store, testAnalyzer(t), queue.NewAnalysisQueue(10, testLogger()), testConfig(), testLogger())
	store.On("SaveAnalyses", mock.Anything, resultsOfLen(2)).Return(nil).Once()

	processor.Start()
	require.NoError(t, processor.enqueue(testJobs(2)))
	processor.Stop()

	store.AssertExpectations(t)
	assert.ErrorIs(t, processor.enqueue(testJobs(1)), ErrStopped)
}

// slowStore counts saved results after a fixed delay per batch.
type slowStore struct {
	mu    sync.Mutex
	delay time.Duration
	saved map[string]bool
}

func (s *slowStore) SaveAnalyses(_ context.Context, results []*models.AnalysisResult) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range results {
		s.saved[r.ID] = true
	}
	return nil
}

func TestBatchProcessor_ShutdownSavesEveryAcceptedJob(t *testing.T) {
	store := &slowStore{delay: 50 * time.Millisecond, saved: make(map[string]bool)}
	cfg := testConfig()
	cfg.BatchProcessing.MaxBatchSize = 2
	cfg.BatchProcessing.ProcessorCount = 1
	q := queue.NewAnalysisQueue(10, testLogger())
	processor := NewBatchProcessor(store, testAnalyzer(t), q, cfg, testLogger())

	processor.Start()
	q.Start()

	var accepted []string
	for i := 0; i < 4; i++ {
		jobs := testJobs(3)
		require.NoError(t, q.Push(jobs))
		for _, job := range jobs {
			accepted = append(accepted, job.ID)
		}
	}

	require.NoError(t, q.Close())
	processor.Stop()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.saved, len(accepted))
	for _, id := range accepted {
		assert.True(t, store.saved[id], "job %s was not saved", id)
	}
}
