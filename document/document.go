package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/bitrise-io/go-pdfcompress/internal"
)

// MimeTypePDF is the only MIME type a selection may carry.
const MimeTypePDF = "application/pdf"

// ErrInvalidFileType is returned when a selection is not a PDF.
var ErrInvalidFileType = errors.New("only PDF files are allowed")

// SelectedFile is a PDF picked for compression. The content is held in memory
// and is only reachable through Open, so snapshots can share it safely.
type SelectedFile struct {
	Name     string
	Size     int64
	MimeType string

	content []byte
}

// NewSelectedFile validates the MIME type and wraps the content.
func NewSelectedFile(name, mimeType string, content []byte) (SelectedFile, error) {
	if mimeType != MimeTypePDF {
		return SelectedFile{}, fmt.Errorf("%s (%s): %w", name, mimeType, ErrInvalidFileType)
	}

	return SelectedFile{
		Name:     name,
		Size:     int64(len(content)),
		MimeType: mimeType,
		content:  content,
	}, nil
}

// Open returns a fresh reader over the file content.
func (f SelectedFile) Open() io.ReadSeeker {
	return bytes.NewReader(f.content)
}

// IsZero reports whether f is the empty selection.
func (f SelectedFile) IsZero() bool {
	return f.Name == "" && f.content == nil
}

// Loader turns local paths into selections.
type Loader struct {
	os internal.OsProxy
}

// NewLoader ...
func NewLoader(osProxy internal.OsProxy) Loader {
	if osProxy == nil {
		osProxy = internal.RealOS{}
	}
	return Loader{os: osProxy}
}

// Load reads the file at path and returns it as a selection.
// The MIME type is sniffed from the content first and falls back to the extension.
func (l Loader) Load(path string) (SelectedFile, error) {
	info, err := l.os.Stat(path)
	if err != nil {
		return SelectedFile{}, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return SelectedFile{}, fmt.Errorf("%s is a directory", path)
	}

	content, err := l.os.ReadFile(path)
	if err != nil {
		return SelectedFile{}, fmt.Errorf("read file: %w", err)
	}

	return NewSelectedFile(filepath.Base(path), DetectMimeType(path, content), content)
}

// DetectMimeType sniffs content and falls back to the file extension when the
// content is not recognised.
func DetectMimeType(path string, content []byte) string {
	sniffed := http.DetectContentType(content)
	if strings.HasPrefix(sniffed, MimeTypePDF) {
		return MimeTypePDF
	}

	byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if byExt == "" {
		return sniffed
	}
	if i := strings.Index(byExt, ";"); i >= 0 {
		byExt = byExt[:i]
	}
	return byExt
}
