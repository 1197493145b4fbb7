// Package models defines the request and response shapes shared by the server, CLI and senders.
package models

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kugiri/internal/dispatch"
	"github.com/hyperjump/kugiri/internal/segment"
)

// SegmentRequest is the body of a segment or deliver request.
type SegmentRequest struct {
	Content      string                 `json:"content"`
	Segmentation *SegmentationOverrides `json:"segmentation,omitempty"`
	Delivery     *DeliveryOverrides     `json:"delivery,omitempty"`
}

// SegmentationOverrides replaces individual segmentation settings for one request.
// Nil fields keep the configured value.
type SegmentationOverrides struct {
	Algorithm              *string  `json:"algorithm,omitempty"`
	SegmentLength          *int     `json:"segment_length,omitempty"`
	MinSegments            *int     `json:"min_segments,omitempty"`
	MaxSegments            *int     `json:"max_segments,omitempty"`
	KeepParagraphIntegrity *bool    `json:"keep_paragraph_integrity,omitempty"`
	MinParagraphLength     *int     `json:"min_paragraph_length,omitempty"`
	SentenceSeparators     []string `json:"sentence_separators,omitempty"`
	MergePolicy            *string  `json:"merge_policy,omitempty"`
	LengthUnit             *string  `json:"length_unit,omitempty"`
}

// DeliveryOverrides replaces individual delivery settings for one request. Delays are in seconds.
type DeliveryOverrides struct {
	SendDelay        *float64 `json:"send_delay,omitempty"`
	ShowProgress     *bool    `json:"show_progress,omitempty"`
	ShowStartHint    *bool    `json:"show_start_hint,omitempty"`
	StartHintMessage *string  `json:"start_hint_message,omitempty"`
	StartHintDelay   *float64 `json:"start_hint_delay,omitempty"`
}

// Validate checks that the request carries a document.
func (r *SegmentRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("content cannot be empty")
	}
	return nil
}

// Apply returns cfg with the overrides applied. A nil receiver returns cfg unchanged.
func (o *SegmentationOverrides) Apply(cfg segment.Config) segment.Config {
	if o == nil {
		return cfg
	}
	if o.Algorithm != nil {
		cfg.Algorithm = segment.Algorithm(*o.Algorithm)
	}
	if o.SegmentLength != nil {
		cfg.SegmentLength = *o.SegmentLength
	}
	if o.MinSegments != nil {
		cfg.MinSegments = *o.MinSegments
	}
	if o.MaxSegments != nil {
		cfg.MaxSegments = *o.MaxSegments
	}
	if o.KeepParagraphIntegrity != nil {
		cfg.KeepParagraphIntegrity = *o.KeepParagraphIntegrity
	}
	if o.MinParagraphLength != nil {
		cfg.MinParagraphLength = *o.MinParagraphLength
	}
	if len(o.SentenceSeparators) > 0 {
		cfg.SentenceSeparators = append([]string(nil), o.SentenceSeparators...)
	}
	if o.MergePolicy != nil {
		cfg.MergePolicy = segment.MergePolicy(*o.MergePolicy)
	}
	if o.LengthUnit != nil {
		cfg.LengthUnit = segment.LengthUnit(*o.LengthUnit)
	}
	return cfg
}

// Apply returns opts with the overrides applied. Negative delays are rejected.
func (o *DeliveryOverrides) Apply(opts dispatch.Options) (dispatch.Options, error) {
	if o == nil {
		return opts, nil
	}
	if o.SendDelay != nil {
		if *o.SendDelay < 0 {
			return opts, fmt.Errorf("send_delay must not be negative")
		}
		opts.SendDelay = seconds(*o.SendDelay)
	}
	if o.StartHintDelay != nil {
		if *o.StartHintDelay < 0 {
			return opts, fmt.Errorf("start_hint_delay must not be negative")
		}
		opts.StartHintDelay = seconds(*o.StartHintDelay)
	}
	if o.ShowProgress != nil {
		opts.ShowProgress = *o.ShowProgress
	}
	if o.ShowStartHint != nil {
		opts.ShowStartHint = *o.ShowStartHint
	}
	if o.StartHintMessage != nil {
		opts.StartHintMessage = *o.StartHintMessage
	}
	return opts, nil
}
