// Package cli provides CLI utilities for kugiri.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kugiri/internal/models"
	"github.com/hyperjump/kugiri/internal/segment"
)

// OutputFormat is the format for segment list output.
type OutputFormat string

const (
	// OutputText is human-readable text with a header per segment (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints segment contents only, separated by a blank line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the format named by s, or an error for unknown names.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// WriteSegments writes a segment response to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSegments(w io.Writer, response *models.SegmentResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		for i, seg := range response.Segments {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, seg.Content)
		}
		return nil
	default:
		writeSegmentsText(w, response)
		return nil
	}
}

func writeSegmentsText(w io.Writer, response *models.SegmentResponse) {
	fmt.Fprintf(w, "\n%d segments from %d characters (%s) in %dms\n",
		response.Count, response.Characters, response.Algorithm, response.QueryTime)
	if response.Truncated {
		fmt.Fprintln(w, "Document was truncated to max_total_length")
	}
	fmt.Fprintln(w)
	for _, seg := range response.Segments {
		writeOneSegment(w, seg)
	}
}

func writeOneSegment(w io.Writer, seg segment.Segment) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "[%d/%d] %d chars (target %d)\n", seg.Index, seg.Total, len([]rune(seg.Content)), seg.TargetLength)
	fmt.Fprintf(w, "\n%s\n", seg.Content)
	fmt.Fprintln(w)
}

