package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/kugiri/internal/models"
	"github.com/hyperjump/kugiri/internal/segment"
)

func sampleResponse() *models.SegmentResponse {
	return &models.SegmentResponse{
		Segments: []segment.Segment{
			{Index: 1, Total: 2, Content: "First part.", Separator: "\n\n", TargetLength: 20, Start: 0, End: 11},
			{Index: 2, Total: 2, Content: "Second part.", TargetLength: 20, Start: 13, End: 25},
		},
		Count:      2,
		Characters: 25,
		Algorithm:  "smart",
		QueryTime:  3,
	}
}

func TestWriteSegments_JSON(t *testing.T) {
	response := sampleResponse()
	var buf bytes.Buffer
	if err := WriteSegments(&buf, response, OutputJSON); err != nil {
		t.Fatalf("WriteSegments(json): %v", err)
	}
	var decoded models.SegmentResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Count != 2 || len(decoded.Segments) != 2 {
		t.Fatalf("decoded count=%d segments=%d, want 2", decoded.Count, len(decoded.Segments))
	}
	if decoded.Segments[0].Separator != "\n\n" || decoded.Segments[1].Content != "Second part." {
		t.Errorf("decoded segments: %+v", decoded.Segments)
	}
}

func TestWriteSegments_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSegments(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatalf("WriteSegments(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"2 segments from 25 characters", "(smart)", "3ms", "[1/2] 11 chars (target 20)", "First part.", "[2/2]", "Second part."} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
	if strings.Contains(out, "truncated") {
		t.Errorf("untruncated response mentions truncation:\n%s", out)
	}
}

func TestWriteSegments_textTruncated(t *testing.T) {
	response := sampleResponse()
	response.Truncated = true
	var buf bytes.Buffer
	_ = WriteSegments(&buf, response, OutputText)
	if !strings.Contains(buf.String(), "truncated") {
		t.Errorf("expected truncation notice:\n%s", buf.String())
	}
}

func TestWriteSegments_compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSegments(&buf, sampleResponse(), OutputCompact); err != nil {
		t.Fatalf("WriteSegments(compact): %v", err)
	}
	if got, want := buf.String(), "First part.\n\nSecond part.\n"; got != want {
		t.Errorf("compact output = %q, want %q", got, want)
	}
}

func TestWriteSegments_unknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSegments(&buf, sampleResponse(), OutputFormat("unknown")); err != nil {
		t.Fatalf("WriteSegments(unknown): %v", err)
	}
	if !strings.Contains(buf.String(), "segments from") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"compact", OutputCompact, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
