// Package loader turns local files (plain text, markdown, PDF earnings and
// analyst reports) into documents ready for ingestion.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"briefd/internal/rag"
)

// Supported returns whether the file extension can be loaded.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".pdf":
		return true
	}
	return false
}

// Load reads a file and returns it as a document. Metadata records the file
// name as the source along with the file type.
func Load(path string) (rag.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var content string
	var err error
	switch ext {
	case ".txt", ".md":
		content, err = loadText(path)
	case ".pdf":
		content, err = loadPDF(path)
	default:
		return rag.Document{}, fmt.Errorf("loader: unsupported file type %q", ext)
	}
	if err != nil {
		return rag.Document{}, err
	}

	return rag.Document{
		Content: content,
		Metadata: map[string]string{
			"source": filepath.Base(path),
			"type":   strings.TrimPrefix(ext, "."),
		},
	}, nil
}

// LoadDir loads every supported file in dir (non-recursive). Unsupported
// files are skipped; a file that fails to load fails the call.
func LoadDir(dir string) ([]rag.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loader: read directory %s: %w", dir, err)
	}

	var docs []rag.Document
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		doc, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func loadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("loader: read %s: %w", path, err)
	}
	return string(data), nil
}

func loadPDF(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("loader: read %s: %w", path, err)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("loader: open PDF %s: %w", path, err)
	}

	var buf bytes.Buffer
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("loader: extract page %d of %s: %w", i, path, err)
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}
