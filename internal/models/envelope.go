package models

import (
	"time"
)

// AlertEvent wraps a newly created alert with publishing metadata
type AlertEvent struct {
	Alert *SmartAlert `json:"alert"`

	PublishedAt  time.Time `json:"published_at"`
	Node         string    `json:"node"`
	SweepID      string    `json:"sweep_id,omitempty"`
	PartitionKey string    `json:"partition_key"`
}

// NewAlertEvent creates an event for the given alert
func NewAlertEvent(alert *SmartAlert, node string) *AlertEvent {
	return &AlertEvent{
		Alert:        alert,
		PublishedAt:  time.Now().UTC(),
		Node:         node,
		PartitionKey: alert.RelatedID, // keep events of one entity ordered
	}
}

// WithSweep tags the event with the sweep that created the alert
func (e *AlertEvent) WithSweep(sweepID string) *AlertEvent {
	e.SweepID = sweepID
	return e
}
