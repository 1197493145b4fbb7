package config

import (
	"github.com/hyperjump/kugiri/internal/dispatch"
	"github.com/hyperjump/kugiri/internal/extract"
	"github.com/hyperjump/kugiri/internal/segment"
)

// defaultHistoryPath is relative to the home directory.
const defaultHistoryPath = ".kugiri/history.db"

// Default returns a config with every setting at its default value.
// Load unmarshals the file over it, so keys absent from the file keep these values.
func Default() *Config {
	cfg := &Config{
		Segmentation: SegmentationConfig{
			MinParagraphLength: 50,
		},
		Delivery: DeliveryConfig{
			SendDelay:      1.5,
			StartHintDelay: 0.5,
			MinTotalLength: 200,
			MaxTotalLength: 3000,
		},
		History: HistoryConfig{
			DatabasePath: expandPath(defaultHistoryPath, "."),
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for zero values that have no meaning of their own.
// Delays, min_paragraph_length and the total-length bounds are not touched: 0 is a valid
// setting for each of them.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}

	seg := &cfg.Segmentation
	if seg.Algorithm == "" {
		seg.Algorithm = "smart"
	}
	if seg.SegmentLength == 0 {
		seg.SegmentLength = 400
	}
	if seg.MinSegments == 0 {
		seg.MinSegments = 1
	}
	if seg.MaxSegments == 0 {
		seg.MaxSegments = 4
	}
	if seg.KeepParagraphIntegrity == nil {
		seg.KeepParagraphIntegrity = boolPtr(true)
	}
	if len(seg.SentenceSeparators) == 0 {
		seg.SentenceSeparators = append([]string(nil), segment.DefaultSentenceSeparators...)
	}
	if seg.MergePolicy == "" {
		seg.MergePolicy = "shortest"
	}
	if seg.LengthUnit == "" {
		seg.LengthUnit = "rune"
	}

	del := &cfg.Delivery
	if del.ShowProgress == nil {
		del.ShowProgress = boolPtr(true)
	}
	if del.ShowStartHint == nil {
		del.ShowStartHint = boolPtr(true)
	}
	if del.StartHintMessage == "" {
		del.StartHintMessage = dispatch.DefaultStartHint
	}

	if len(cfg.Inbox.Extensions) == 0 {
		cfg.Inbox.Extensions = append([]string(nil), extract.Extensions...)
	}
	if cfg.Inbox.Recursive == nil {
		cfg.Inbox.Recursive = boolPtr(true)
	}
	if cfg.Webhook.Timeout == 0 {
		cfg.Webhook.Timeout = 10
	}
}

func boolPtr(b bool) *bool { return &b }
