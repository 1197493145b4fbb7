// Package segment splits a long-form text body into an ordered list of chat-sized
// segments while keeping paragraphs and sentences intact where it can.
package segment

import (
	"fmt"
	"regexp"
	"strings"
)

// Segment is one deliverable piece of a document.
// Start and End are byte offsets into the trimmed document; Separator is the whitespace
// that followed the segment there and is empty for the last segment.
type Segment struct {
	Index        int    `json:"index"`
	Total        int    `json:"total"`
	Content      string `json:"content"`
	Separator    string `json:"separator,omitempty"`
	TargetLength int    `json:"target_length"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
}

// Join rebuilds the trimmed document from its segments.
func Join(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Content)
		b.WriteString(s.Separator)
	}
	return b.String()
}

// Contents returns the content of each segment in order.
func Contents(segments []Segment) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Content
	}
	return out
}

var progressMarker = regexp.MustCompile(`^\(\d+/\d+\) `)

// ProgressPrefix returns the "(i/n) " marker shown in front of a delivered segment.
func ProgressPrefix(index, total int) string {
	return fmt.Sprintf("(%d/%d) ", index, total)
}

// StripProgress removes a leading progress marker added by ProgressPrefix.
func StripProgress(s string) string {
	return progressMarker.ReplaceAllString(s, "")
}
