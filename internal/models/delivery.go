package models

import (
	"context"
	"errors"
	"time"
)

// Delivery statuses.
const (
	StatusDone     = "done"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

// Delivery is the history record of one delivery run.
type Delivery struct {
	RunID       string    `json:"run_id"`
	Source      string    `json:"source"`
	DocID       string    `json:"doc_id,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Characters  int       `json:"characters"`
	Truncated   bool      `json:"truncated"`
	Total       int       `json:"total"`
	Delivered   int       `json:"delivered"`
	HintSent    bool      `json:"hint_sent"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// DeliveryStatus classifies the error returned by a delivery run.
func DeliveryStatus(err error) string {
	switch {
	case err == nil:
		return StatusDone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	default:
		return StatusFailed
	}
}
