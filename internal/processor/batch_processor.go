package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dealgrade/server/config"
	"dealgrade/server/internal/analysis"
	"dealgrade/server/internal/models"
	"dealgrade/server/internal/queue"
)

var ErrStopped = errors.New("batch processor stopped")

// Store persists analyzed batches. It must write all results or none.
type Store interface {
	SaveAnalyses(ctx context.Context, results []*models.AnalysisResult) error
}

type Analyzer interface {
	Analyze(in analysis.Input) (*models.AnalysisResult, error)
}

// BatchProcessor accumulates queued jobs into batches, analyzes each batch in
// parallel and persists it in one transaction with retry.
type BatchProcessor struct {
	store     Store
	analyzer  Analyzer
	logger    *logrus.Logger
	config    *config.Config
	queue     *queue.AnalysisQueue
	jobs      chan queue.Job
	batches   chan []queue.Job
	waitGroup sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(store Store, analyzer Analyzer, q *queue.AnalysisQueue, cfg *config.Config, logger *logrus.Logger) *BatchProcessor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		store:    store,
		analyzer: analyzer,
		queue:    q,
		config:   cfg,
		logger:   logger,
		jobs:     make(chan queue.Job),
		batches:  make(chan []queue.Job),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to the queue and starts the collector and the processors
func (p *BatchProcessor) Start() {
	p.queue.Subscribe(p.enqueue)

	p.waitGroup.Add(1)
	go p.collect()

	count := p.config.BatchProcessing.ProcessorCount
	if count < 1 {
		count = 1
	}
	for i := 0; i < count; i++ {
		p.waitGroup.Add(1)
		go p.processLoop()
	}
}

// Stop flushes the pending batch and waits for in-flight batches to finish.
// Close the queue first: jobs the queue hands over after Stop are rejected
// with ErrStopped.
func (p *BatchProcessor) Stop() {
	p.cancel()
	p.waitGroup.Wait()
}

// enqueue hands queued jobs to the collector
func (p *BatchProcessor) enqueue(jobs []queue.Job) error {
	for _, job := range jobs {
		select {
		case p.jobs <- job:
		case <-p.ctx.Done():
			return ErrStopped
		}
	}
	return nil
}

// collect groups jobs into batches of at most MaxBatchSize, flushing a
// partial batch after MaxBatchWaitTime.
func (p *BatchProcessor) collect() {
	defer p.waitGroup.Done()
	defer close(p.batches)

	maxSize := p.config.BatchProcessing.MaxBatchSize
	if maxSize < 1 {
		maxSize = 1
	}
	wait := time.Duration(p.config.BatchProcessing.MaxBatchWaitTime) * time.Second
	if wait <= 0 {
		wait = time.Second
	}
	ticker := time.NewTicker(wait)
	defer ticker.Stop()

	pending := make([]queue.Job, 0, maxSize)
	flush := func() {
		if len(pending) == 0 {
			return
		}
		p.batches <- pending
		pending = make([]queue.Job, 0, maxSize)
	}

	for {
		select {
		case <-p.ctx.Done():
			flush()
			return
		case job := <-p.jobs:
			pending = append(pending, job)
			if len(pending) >= maxSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// processLoop handles the continuous processing of batches
func (p *BatchProcessor) processLoop() {
	defer p.waitGroup.Done()

	for batch := range p.batches {
		if err := p.processBatch(batch); err != nil {
			p.logger.WithError(err).WithField("batch_size", len(batch)).Error("Dropping batch")
		}
	}
}

// analyzeBatch runs every job through the engine. Jobs that fail validation
// are logged and left out.
func (p *BatchProcessor) analyzeBatch(batch []queue.Job) []*models.AnalysisResult {
	results := make([]*models.AnalysisResult, len(batch))
	pool := newWorkerPool(p.config.BatchProcessing.WorkerCount)

	for i, job := range batch {
		i, job := i, job
		pool.Submit(func() {
			result, err := p.analyzer.Analyze(job.Input)
			if err != nil {
				p.logger.WithError(err).WithField("job_id", job.ID).Warn("Analysis rejected")
				return
			}
			result.ID = job.ID
			if len(result.Warnings) > 0 {
				p.logger.WithFields(logrus.Fields{
					"analysis_id": job.ID,
					"warnings":    result.Warnings,
				}).Info("Analysis completed with warnings")
			}
			results[i] = result
		})
	}
	pool.Wait()

	analyzed := make([]*models.AnalysisResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			analyzed = append(analyzed, r)
		}
	}
	return analyzed
}

// processBatch analyzes a batch and persists it with retry logic
func (p *BatchProcessor) processBatch(batch []queue.Job) error {
	results := p.analyzeBatch(batch)
	if len(results) == 0 {
		return nil
	}

	attempts := p.config.BatchProcessing.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			p.logger.Infof("Retrying batch persistence, attempt %d of %d", attempt, attempts)
			time.Sleep(time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second)
		}

		// Persistence outlives Stop so the final flush is not lost
		err = p.store.SaveAnalyses(context.Background(), results)
		if err == nil {
			p.logger.WithFields(logrus.Fields{
				"batch_size": len(batch),
				"saved":      len(results),
			}).Info("Successfully processed batch")
			return nil
		}

		p.logger.WithError(err).Error("Batch persistence failed")
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", attempts, err)
}
