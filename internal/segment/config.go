package segment

import (
	"fmt"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/graphemes"
)

// Algorithm selects the primary splitting strategy.
type Algorithm string

const (
	// AlgorithmSmart packs whole paragraphs and falls back to sentences and fixed length.
	AlgorithmSmart Algorithm = "smart"
	// AlgorithmSentence packs sentences and ignores paragraph boundaries.
	AlgorithmSentence Algorithm = "sentence"
	// AlgorithmLength cuts fixed-size pieces snapped to word boundaries.
	AlgorithmLength Algorithm = "length"
)

// MergePolicy decides which segments are merged when there are more than MaxSegments.
type MergePolicy string

const (
	// MergeShortest repeatedly merges the adjacent pair with the smallest combined length.
	MergeShortest MergePolicy = "shortest"
	// MergeTail folds every segment past MaxSegments-1 into the last one.
	MergeTail MergePolicy = "tail"
)

// LengthUnit is the unit all lengths in Config are counted in.
type LengthUnit string

const (
	// UnitRune counts Unicode code points.
	UnitRune LengthUnit = "rune"
	// UnitGrapheme counts user-perceived characters (UAX #29 grapheme clusters).
	UnitGrapheme LengthUnit = "grapheme"
)

// DefaultSentenceSeparators are the sentence terminators used when none are configured.
var DefaultSentenceSeparators = []string{"。", "！", "？", ".", "!", "?"}

// Config holds segmentation settings. Empty Algorithm, MergePolicy and LengthUnit
// mean smart, shortest and rune respectively.
type Config struct {
	Algorithm              Algorithm
	SegmentLength          int
	MinSegments            int
	MaxSegments            int
	KeepParagraphIntegrity bool
	MinParagraphLength     int
	SentenceSeparators     []string
	MergePolicy            MergePolicy
	LengthUnit             LengthUnit
}

// DefaultConfig returns the settings used for chat delivery of a generated explanation.
func DefaultConfig() Config {
	return Config{
		Algorithm:              AlgorithmSmart,
		SegmentLength:          400,
		MinSegments:            1,
		MaxSegments:            4,
		KeepParagraphIntegrity: true,
		MinParagraphLength:     50,
		SentenceSeparators:     append([]string(nil), DefaultSentenceSeparators...),
		MergePolicy:            MergeShortest,
		LengthUnit:             UnitRune,
	}
}

func (c Config) normalized() Config {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmSmart
	}
	if c.MergePolicy == "" {
		c.MergePolicy = MergeShortest
	}
	if c.LengthUnit == "" {
		c.LengthUnit = UnitRune
	}
	return c
}

// Validate checks the config and returns a *ConfigError for the first invalid field.
func (c Config) Validate() error {
	c = c.normalized()
	switch c.Algorithm {
	case AlgorithmSmart, AlgorithmSentence, AlgorithmLength:
	default:
		return &ConfigError{Field: "algorithm", Reason: fmt.Sprintf("unknown value %q", c.Algorithm)}
	}
	switch c.MergePolicy {
	case MergeShortest, MergeTail:
	default:
		return &ConfigError{Field: "merge_policy", Reason: fmt.Sprintf("unknown value %q", c.MergePolicy)}
	}
	switch c.LengthUnit {
	case UnitRune, UnitGrapheme:
	default:
		return &ConfigError{Field: "length_unit", Reason: fmt.Sprintf("unknown value %q", c.LengthUnit)}
	}
	if c.SegmentLength <= 0 {
		return &ConfigError{Field: "segment_length", Reason: "must be positive"}
	}
	if c.MinSegments < 1 {
		return &ConfigError{Field: "min_segments", Reason: "must be at least 1"}
	}
	if c.MaxSegments < 1 {
		return &ConfigError{Field: "max_segments", Reason: "must be at least 1"}
	}
	if c.MinSegments > c.MaxSegments {
		return &ConfigError{Field: "min_segments", Reason: fmt.Sprintf("%d exceeds max_segments %d", c.MinSegments, c.MaxSegments)}
	}
	if c.MinParagraphLength < 0 {
		return &ConfigError{Field: "min_paragraph_length", Reason: "must not be negative"}
	}
	if len(c.SentenceSeparators) == 0 {
		return &ConfigError{Field: "sentence_separators", Reason: "must not be empty"}
	}
	for _, sep := range c.SentenceSeparators {
		if sep == "" {
			return &ConfigError{Field: "sentence_separators", Reason: "must not contain empty strings"}
		}
	}
	return nil
}

// Measure returns the length of s in the config's unit.
func (c Config) Measure(s string) int {
	if c.normalized().LengthUnit == UnitGrapheme {
		return len(graphemes.SegmentAll([]byte(s)))
	}
	return utf8.RuneCountInString(s)
}
