package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/yamloutline/internal/doctree"
	"github.com/go-enry/go-enry/v2"
)

// ErrUnsupported is returned when no parser handles a file.
var ErrUnsupported = errors.New("unsupported file type")

// Parser extracts the YAML-like text of a document as outline segments.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Source, error)
}

// Options tunes parser construction.
type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".yaml":     true,
	".yml":      true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".yaml", ".yml", ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// Detect is ForFile with a content sniff: files with an unknown extension are
// accepted as plain text when their name or content looks like YAML.
func Detect(filename string, content []byte, opts Options) (Parser, error) {
	p, err := ForFile(filename, opts)
	if err == nil {
		return p, nil
	}
	if IsYAML(filename, content) {
		return &TextParser{}, nil
	}
	return nil, err
}

// IsYAML asks enry whether the file is YAML or one of its dialects.
func IsYAML(filename string, content []byte) bool {
	switch enry.GetLanguage(filepath.Base(filename), content) {
	case "YAML", "MiniYAML", "OASv2-yaml", "OASv3-yaml":
		return true
	}
	return false
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func trimExt(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
