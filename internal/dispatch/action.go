// Package dispatch delivers segments to a Sender one at a time, in order, pausing
// between them the way a person typing a long answer would.
package dispatch

import (
	"time"

	"github.com/hyperjump/kugiri/internal/segment"
)

// DefaultStartHint is sent before the first segment when a start hint is enabled without a message.
const DefaultStartHint = "让我详细说明一下..."

// Kind tells a Sender what an action carries.
type Kind string

const (
	// KindHint is the short notice sent before the segments.
	KindHint Kind = "hint"
	// KindSegment carries one segment of the document.
	KindSegment Kind = "segment"
)

// Action is one message handed to a Sender.
type Action struct {
	RunID string `json:"run_id,omitempty"`
	Kind  Kind   `json:"kind"`
	Index int    `json:"index,omitempty"`
	Total int    `json:"total,omitempty"`
	// Content is the text to transmit, including the progress marker when enabled.
	Content string `json:"content"`
	// Raw is the segment content without any marker.
	Raw     string `json:"raw,omitempty"`
	IsFirst bool   `json:"is_first,omitempty"`
	// QuoteRequest asks the sender to reply to the message that triggered the run.
	QuoteRequest bool `json:"quote_request,omitempty"`
	// Typing asks the sender to show a typing indicator before the message.
	Typing bool `json:"typing,omitempty"`
}

// Options controls pacing and decoration of a delivery run.
type Options struct {
	SendDelay        time.Duration
	ShowProgress     bool
	ShowStartHint    bool
	StartHintMessage string
	StartHintDelay   time.Duration
}

// Actions returns the actions a run over segments issues, in order, without pacing.
// The start hint quotes the request when shown; otherwise the first segment does.
func Actions(segments []segment.Segment, opts Options) []Action {
	out := make([]Action, 0, len(segments)+1)
	if len(segments) == 0 {
		return out
	}
	if opts.ShowStartHint {
		msg := opts.StartHintMessage
		if msg == "" {
			msg = DefaultStartHint
		}
		out = append(out, Action{Kind: KindHint, Content: msg, QuoteRequest: true})
	}
	total := len(segments)
	for i, seg := range segments {
		content := seg.Content
		if opts.ShowProgress && total > 1 {
			content = segment.ProgressPrefix(i+1, total) + content
		}
		out = append(out, Action{
			Kind:         KindSegment,
			Index:        i + 1,
			Total:        total,
			Content:      content,
			Raw:          seg.Content,
			IsFirst:      i == 0,
			QuoteRequest: i == 0 && !opts.ShowStartHint,
			Typing:       i > 0,
		})
	}
	return out
}
