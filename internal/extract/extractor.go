// Package extract provides text extraction from document formats that carry long-form prose.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extensions lists the file extensions with a dedicated extractor.
var Extensions = []string{".txt", ".md", ".rst", ".pdf", ".docx"}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
// Paragraph boundaries of structured formats are rendered as blank lines so the segmenter
// sees them. Returns an error if the file cannot be read or decoded.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	default:
		// .txt, .md, .rst and unknown extensions are treated as plain text
		return extractPlain(content)
	}
}
