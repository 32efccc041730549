package entity

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docufield/extractor/internal/common"
)

// Document is an identity-bearing reference to one photographed or scanned
// file, either on disk or already in memory. Metadata is populated at
// construction; MarkProcessed is the only mutation after extraction.
type Document struct {
	ID          uuid.UUID  `json:"id"`
	FilePath    string     `json:"file_path,omitempty"`
	ContentType string     `json:"content_type"`
	SizeBytes   int64      `json:"size_bytes"`
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Processed   bool       `json:"processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	raw []byte
}

// NewDocumentFromFile builds a Document referencing a file on disk. The file
// must exist; content type is inferred from the extension.
func NewDocumentFromFile(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.WrapError(common.ErrDocumentNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, common.WrapError(common.ErrInvalidDocument, path+" is a directory")
	}
	return &Document{
		ID:          uuid.New(),
		FilePath:    path,
		ContentType: contentTypeForPath(path),
		SizeBytes:   info.Size(),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// NewDocumentFromBytes builds a Document over an in-memory buffer.
func NewDocumentFromBytes(data []byte, contentType string) (*Document, error) {
	if len(data) == 0 {
		return nil, common.WrapError(common.ErrInvalidDocument, "empty document bytes")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Document{
		ID:          uuid.New(),
		ContentType: strings.ToLower(strings.TrimSpace(contentType)),
		SizeBytes:   int64(len(data)),
		CreatedAt:   time.Now().UTC(),
		raw:         data,
	}, nil
}

// GetBytes is the single read accessor: it returns the in-memory buffer or
// reads the referenced file, caching the bytes for repeated calls.
func (d *Document) GetBytes() ([]byte, error) {
	if len(d.raw) > 0 {
		return d.raw, nil
	}
	if d.FilePath == "" {
		return nil, common.WrapError(common.ErrInvalidDocument, "document has neither path nor bytes")
	}
	data, err := os.ReadFile(d.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.WrapError(common.ErrDocumentNotFound, d.FilePath)
		}
		return nil, fmt.Errorf("read %s: %w", d.FilePath, err)
	}
	d.raw = data
	return data, nil
}

// Resolvable reports whether the document can produce bytes at all.
func (d *Document) Resolvable() bool {
	return len(d.raw) > 0 || d.FilePath != ""
}

// MarkProcessed records that extraction completed for this document.
func (d *Document) MarkProcessed() {
	now := time.Now().UTC()
	d.Processed = true
	d.ProcessedAt = &now
}

// SetDimensions records probed pixel dimensions.
func (d *Document) SetDimensions(width, height int) {
	d.Width = width
	d.Height = height
}

func contentTypeForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
