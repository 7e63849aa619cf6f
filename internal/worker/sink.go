package worker

import (
	"context"

	"shopfloor/internal/logger"
	"shopfloor/internal/metrics"
	"shopfloor/internal/models"
)

// Sink turns swept alerts into events on the pool's queue. It never blocks:
// when the queue is full the event is dropped and counted.
type Sink struct {
	events chan<- *models.AlertEvent
	node   string
}

// NewSink creates a sink feeding the given queue.
func NewSink(events chan<- *models.AlertEvent, node string) *Sink {
	return &Sink{events: events, node: node}
}

// NotifyAlerts enqueues one event per alert.
func (s *Sink) NotifyAlerts(ctx context.Context, sweepID string, alerts []models.SmartAlert) {
	dropped := 0
	for i := range alerts {
		alert := alerts[i]
		event := models.NewAlertEvent(&alert, s.node).WithSweep(sweepID)

		select {
		case s.events <- event:
		default:
			dropped++
			metrics.WorkerDroppedTotal.Inc()
		}
	}
	metrics.WorkerQueueSize.Set(float64(len(s.events)))

	if dropped > 0 {
		log := logger.WithComponent("worker")
		log.Warn().
			Str("sweep_id", sweepID).
			Int("dropped", dropped).
			Msg("alert queue full, events dropped")
	}
}
