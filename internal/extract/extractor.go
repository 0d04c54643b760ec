// Package extract turns chat transcripts and inbox files into note candidates.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for file extensions the extractor cannot read.
var ErrUnsupported = errors.New("unsupported file format")

// SupportedExtensions lists the extensions Extract understands.
var SupportedExtensions = []string{".txt", ".md", ".pdf", ".docx", ".xlsx"}

// Extractor extracts plain text from note files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
// Paragraphs (and spreadsheet rows) are separated by blank lines.
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
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	case ".txt", ".md":
		return extractPlain(content)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// ExtractNotes reads the file at path and splits it into note candidates.
func (e *Extractor) ExtractNotes(path string) ([]string, error) {
	text, err := e.Extract(path)
	if err != nil {
		return nil, err
	}
	return SplitNotes(text), nil
}

// IsSupported reports whether path has an extension Extract understands.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}
