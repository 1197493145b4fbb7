package models

import (
	"time"

	"github.com/hyperjump/kugiri/internal/dispatch"
	"github.com/hyperjump/kugiri/internal/segment"
)

// SegmentResponse is the response for a segment request.
type SegmentResponse struct {
	Segments   []segment.Segment `json:"segments"`
	Count      int               `json:"count"`
	Characters int               `json:"characters"`
	Algorithm  string            `json:"algorithm"`
	// Truncated reports that the document exceeded max_total_length and was cut.
	Truncated bool  `json:"truncated,omitempty"`
	QueryTime int64 `json:"query_time_ms"`
}

// Event types of a delivery stream.
const (
	EventAction = "action"
	EventDone   = "done"
	EventError  = "error"
)

// DeliveryEvent is one line of a delivery stream: an action, then a final done or error event.
type DeliveryEvent struct {
	Type   string           `json:"type"`
	Action *dispatch.Action `json:"action,omitempty"`
	Report *dispatch.Report `json:"report,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// DirectoryRequest is the body of an inbox directory add or remove request.
type DirectoryRequest struct {
	Path string `json:"path"`
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
