package queue

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dealgrade/server/internal/analysis"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Job is one queued analysis. The stored analysis reuses the job ID.
type Job struct {
	ID          string
	Input       analysis.Input
	SubmittedAt time.Time
}

// NewJob assigns a fresh ID to in.
func NewJob(in analysis.Input) Job {
	return Job{ID: uuid.NewString(), Input: in, SubmittedAt: time.Now()}
}

// AnalysisQueue represents an in-memory queue of analysis job batches
type AnalysisQueue struct {
	items    chan []Job
	drained  chan struct{}
	maxSize  int
	started  bool
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func([]Job) error
}

// NewAnalysisQueue creates a new analysis queue holding up to bufferSize batches
func NewAnalysisQueue(bufferSize int, logger *logrus.Logger) *AnalysisQueue {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &AnalysisQueue{
		items:    make(chan []Job, bufferSize),
		drained:  make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func([]Job) error, 0),
	}
}

// Push adds a batch of jobs to the queue
func (q *AnalysisQueue) Push(jobs []Job) error {
	// Held for the send so Close cannot close items underneath it
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	// Non-blocking send to prevent deadlocks
	select {
	case q.items <- jobs:
		q.logger.WithField("batch_size", len(jobs)).Debug("Pushed batch to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each batch
func (q *AnalysisQueue) Subscribe(handler func([]Job) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing items in the queue
func (q *AnalysisQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	go q.process()
}

// process hands batches to the handlers until items is closed and empty
func (q *AnalysisQueue) process() {
	defer close(q.drained)
	for batch := range q.items {
		q.processBatch(batch)
	}
}

// processBatch sends the batch to all subscribed handlers
func (q *AnalysisQueue) processBatch(batch []Job) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(batch); err != nil {
			q.logger.WithError(err).WithField("batch_size", len(batch)).Error("Handler failed to process batch")
		}
	}
}

// Close stops intake, then blocks until every buffered batch has been
// handed to the handlers. A queue that was never started is drained on the
// calling goroutine.
func (q *AnalysisQueue) Close() error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
	started := q.started
	q.started = true
	q.mu.Unlock()

	if !started {
		q.process()
	}
	<-q.drained
	return nil
}

// Len returns the current number of batches in the queue
func (q *AnalysisQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *AnalysisQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
