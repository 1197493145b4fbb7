// Package config provides configuration loading and structs for kugiri.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/kugiri/internal/dispatch"
	"github.com/hyperjump/kugiri/internal/segment"
)

// Config holds all configuration for the application.
type Config struct {
	Debug        bool               `yaml:"debug" json:"debug"`
	Server       ServerConfig       `yaml:"server" json:"server"`
	Segmentation SegmentationConfig `yaml:"segmentation" json:"segmentation"`
	Delivery     DeliveryConfig     `yaml:"delivery" json:"delivery"`
	Inbox        InboxConfig        `yaml:"inbox" json:"inbox"`
	Webhook      WebhookConfig      `yaml:"webhook" json:"webhook"`
	History      HistoryConfig      `yaml:"history" json:"history"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" json:"host" validate:"required"`
	Port int    `yaml:"port" json:"port" validate:"min=1,max=65535"`
}

// SegmentationConfig mirrors segment.Config in file form.
type SegmentationConfig struct {
	Algorithm              string   `yaml:"algorithm" json:"algorithm" validate:"oneof=smart sentence length"`
	SegmentLength          int      `yaml:"segment_length" json:"segment_length" validate:"gt=0"`
	MinSegments            int      `yaml:"min_segments" json:"min_segments" validate:"gte=1"`
	MaxSegments            int      `yaml:"max_segments" json:"max_segments" validate:"gtefield=MinSegments"`
	KeepParagraphIntegrity *bool    `yaml:"keep_paragraph_integrity" json:"keep_paragraph_integrity"`
	MinParagraphLength     int      `yaml:"min_paragraph_length" json:"min_paragraph_length" validate:"gte=0"`
	SentenceSeparators     []string `yaml:"sentence_separators" json:"sentence_separators" validate:"min=1,dive,required"`
	MergePolicy            string   `yaml:"merge_policy" json:"merge_policy" validate:"oneof=shortest tail"`
	LengthUnit             string   `yaml:"length_unit" json:"length_unit" validate:"oneof=rune grapheme"`
}

// DeliveryConfig holds pacing and decoration of delivered segments. Delays are in seconds.
type DeliveryConfig struct {
	SendDelay        float64 `yaml:"send_delay" json:"send_delay" validate:"gte=0,lte=600"`
	ShowProgress     *bool   `yaml:"show_progress" json:"show_progress"`
	ShowStartHint    *bool   `yaml:"show_start_hint" json:"show_start_hint"`
	StartHintMessage string  `yaml:"start_hint_message" json:"start_hint_message"`
	StartHintDelay   float64 `yaml:"start_hint_delay" json:"start_hint_delay" validate:"gte=0,lte=600"`
	// MinTotalLength and MaxTotalLength bound the document length in characters; 0 disables.
	MinTotalLength int `yaml:"min_total_length" json:"min_total_length" validate:"gte=0"`
	MaxTotalLength int `yaml:"max_total_length" json:"max_total_length" validate:"gte=0"`
}

// InboxConfig holds the directories watched for documents to deliver.
type InboxConfig struct {
	Directories []string `yaml:"directories" json:"directories"`
	Extensions  []string `yaml:"extensions" json:"extensions"`
	Recursive   *bool    `yaml:"recursive" json:"recursive"`
}

// WebhookConfig holds the HTTP endpoint that receives delivery actions.
type WebhookConfig struct {
	URL     string            `yaml:"url" json:"url" validate:"omitempty,url"`
	Timeout float64           `yaml:"timeout" json:"timeout" validate:"gte=0"`
	Headers map[string]string `yaml:"headers" json:"-"`
}

// HistoryConfig holds the delivery history database. An empty path disables history.
type HistoryConfig struct {
	DatabasePath string `yaml:"database_path" json:"database_path"`
}

// Enabled reports whether deliveries are recorded.
func (h *HistoryConfig) Enabled() bool {
	return h.DatabasePath != ""
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (i *InboxConfig) RecursiveOrDefault() bool {
	if i.Recursive != nil {
		return *i.Recursive
	}
	return true
}

// SegmentConfig converts the file settings into a segment.Config.
func (s *SegmentationConfig) SegmentConfig() segment.Config {
	return segment.Config{
		Algorithm:              segment.Algorithm(s.Algorithm),
		SegmentLength:          s.SegmentLength,
		MinSegments:            s.MinSegments,
		MaxSegments:            s.MaxSegments,
		KeepParagraphIntegrity: boolOr(s.KeepParagraphIntegrity, true),
		MinParagraphLength:     s.MinParagraphLength,
		SentenceSeparators:     append([]string(nil), s.SentenceSeparators...),
		MergePolicy:            segment.MergePolicy(s.MergePolicy),
		LengthUnit:             segment.LengthUnit(s.LengthUnit),
	}
}

// DispatchOptions converts the file settings into dispatch.Options.
func (d *DeliveryConfig) DispatchOptions() dispatch.Options {
	return dispatch.Options{
		SendDelay:        Seconds(d.SendDelay),
		ShowProgress:     boolOr(d.ShowProgress, true),
		ShowStartHint:    boolOr(d.ShowStartHint, true),
		StartHintMessage: d.StartHintMessage,
		StartHintDelay:   Seconds(d.StartHintDelay),
	}
}

// Seconds converts a fractional number of seconds into a time.Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and the segmentation settings as a whole.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Segmentation.SegmentConfig().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	d := c.Delivery
	if d.MaxTotalLength > 0 && d.MinTotalLength > d.MaxTotalLength {
		return fmt.Errorf("invalid config: delivery.min_total_length %d exceeds max_total_length %d", d.MinTotalLength, d.MaxTotalLength)
	}
	return nil
}

// Load reads and parses the config file at path over the defaults, expands paths and
// validates the result. Keys missing from the file keep their default values, so an
// explicit 0 (e.g. send_delay: 0) is honoured.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(cfg)

	configDir := filepath.Dir(path)
	if cfg.History.DatabasePath != "" {
		cfg.History.DatabasePath = expandPath(cfg.History.DatabasePath, configDir)
	}
	for i := range cfg.Inbox.Directories {
		cfg.Inbox.Directories[i] = expandPath(cfg.Inbox.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path. Used for persisting inbox directory add/remove.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
