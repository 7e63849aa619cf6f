// Package worker moves alert events off the sweep path and publishes them
// in batches.
package worker

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"shopfloor/internal/logger"
	"shopfloor/internal/metrics"
	"shopfloor/internal/models"
)

// Publisher delivers a batch of alert events.
type Publisher interface {
	PublishBatch(ctx context.Context, events []*models.AlertEvent) error
}

// Pool drains the alert queue with a fixed number of batching workers.
type Pool struct {
	publisher Publisher
	queue     <-chan *models.AlertEvent
	cfg       Config

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	published atomic.Uint64
	failed    atomic.Uint64
}

// Config holds worker pool configuration
type Config struct {
	Publisher      Publisher
	Events         <-chan *models.AlertEvent
	Workers        int
	BatchSize      int
	BatchTimeout   time.Duration
	PublishTimeout time.Duration
}

// NewPool creates a new worker pool
func NewPool(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 500 * time.Millisecond
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 10 * time.Second
	}
	metrics.WorkerQueueCapacity.Set(float64(cap(cfg.Events)))

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		publisher: cfg.Publisher,
		queue:     cfg.Events,
		cfg:       cfg,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	log := logger.WithComponent("worker_pool")
	log.Info().
		Int("workers", p.cfg.Workers).
		Int("batch_size", p.cfg.BatchSize).
		Msg("starting alert publishers")

	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
}

// Stop cancels the workers and waits for them to flush their batches.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
	log := logger.WithComponent("worker_pool")
	log.Info().
		Uint64("published", p.published.Load()).
		Uint64("failed", p.failed.Load()).
		Msg("alert publishers stopped")
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	log := logger.WithComponent("worker").With().Int("worker_id", id).Logger()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("worker panic recovered")
			metrics.PanicsRecovered.WithLabelValues("worker").Inc()
		}
	}()

	batch := make([]*models.AlertEvent, 0, p.cfg.BatchSize)
	timer := time.NewTimer(p.cfg.BatchTimeout)
	defer timer.Stop()

	for {
		select {
		case <-p.ctx.Done():
			p.flush(batch)
			return

		case event := <-p.queue:
			metrics.WorkerQueueSize.Set(float64(len(p.queue)))
			batch = append(batch, event)
			if len(batch) < p.cfg.BatchSize {
				continue
			}
			p.flush(batch)
			batch = batch[:0]
			timer.Reset(p.cfg.BatchTimeout)

		case <-timer.C:
			p.flush(batch)
			batch = batch[:0]
			timer.Reset(p.cfg.BatchTimeout)
		}
	}
}

// flush publishes a batch. When the batch is rejected it is split per
// related entity, so one entity's events stay together and in order while
// a bad group cannot sink the others. A fresh context lets a stopping pool
// get its last batch out.
func (p *Pool) flush(batch []*models.AlertEvent) {
	if len(batch) == 0 {
		return
	}
	log := logger.WithComponent("worker")

	err := p.send(batch)
	if err == nil {
		p.delivered(len(batch))
		return
	}

	groups := groupByEntity(batch)
	log.Warn().Err(err).
		Int("batch_size", len(batch)).
		Int("entities", len(groups)).
		Msg("alert batch rejected, retrying per entity")

	for _, group := range groups {
		if err := p.send(group); err != nil {
			log.Error().Err(err).
				Str("related_id", group[0].PartitionKey).
				Int("events", len(group)).
				Msg("failed to publish alert events")
			p.failed.Add(uint64(len(group)))
			metrics.WorkerFailedTotal.Add(float64(len(group)))
			continue
		}
		p.delivered(len(group))
	}
}

func (p *Pool) send(events []*models.AlertEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.PublishTimeout)
	defer cancel()

	start := time.Now()
	err := p.publisher.PublishBatch(ctx, events)
	metrics.WorkerBatchPublishDuration.Observe(time.Since(start).Seconds())
	return err
}

func (p *Pool) delivered(n int) {
	p.published.Add(uint64(n))
	metrics.WorkerProcessedTotal.Add(float64(n))
}

// groupByEntity splits events by partition key, keeping first-seen order.
func groupByEntity(events []*models.AlertEvent) [][]*models.AlertEvent {
	index := make(map[string]int)
	var groups [][]*models.AlertEvent
	for _, e := range events {
		i, ok := index[e.PartitionKey]
		if !ok {
			i = len(groups)
			index[e.PartitionKey] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], e)
	}
	return groups
}

// Stats returns delivery counters.
func (p *Pool) Stats() Stats {
	return Stats{Published: p.published.Load(), Failed: p.failed.Load()}
}

// Stats holds delivery counters of the pool.
type Stats struct {
	Published uint64 `json:"published"`
	Failed    uint64 `json:"failed"`
}
