package network

import (
	"context"

	"github.com/bitrise-io/go-pdfcompress/document"
)

// Compressor ...
type Compressor interface {
	Compress(context.Context, document.SelectedFile, Quality, ProgressObserver) (CompressionResult, error)
}

// Downloader ...
type Downloader interface {
	DownloadURL(filename string) string
	Download(ctx context.Context, filename, destination string) error
}
