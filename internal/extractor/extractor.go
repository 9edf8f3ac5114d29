package extractor

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Extractor converts raw document bytes into plain text. Segments (pages,
// paragraphs, sections) are read in order and joined with newlines; the
// final result is whitespace-trimmed.
type Extractor interface {
	Extract(r io.Reader, filename string) (string, error)
}

// ReadError reports document bytes that could not be parsed as the format
// their extension claims (corrupt, wrong format, encrypted).
type ReadError struct {
	Format string
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s document: %v", e.Format, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".csv":
		return &CSVExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
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

// joinSegments concatenates non-empty trimmed segments with newlines and
// trims the combined result.
func joinSegments(segments []string) string {
	var parts []string
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
