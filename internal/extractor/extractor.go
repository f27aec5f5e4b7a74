package extractor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/paperquery/internal/document"
)

// Extractor converts raw document bytes into a structured Document.
type Extractor interface {
	Extract(data []byte, filename string) (*document.Document, error)
}

// SupportedExtensions lists file extensions this service can ingest.
var SupportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFExtractor{}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// unitID returns the deterministic ID for the n-th unit of a document.
// Extraction is deterministic, so IDs are stable across re-runs.
func unitID(n int) string {
	return fmt.Sprintf("u%04d", n)
}

// titleFromFilename strips the extension to produce a fallback title.
func titleFromFilename(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
