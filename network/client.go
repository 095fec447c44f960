package network

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bitrise-io/go-pdfcompress/document"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/melbahja/got"
)

const (
	compressPath = "/api/compress"
	downloadPath = "/api/download/"
	healthPath   = "/health"

	fileFieldName    = "file"
	qualityParamName = "quality"
)

// Client talks to the PDF compression service. Every call is a single attempt.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
	logger     log.Logger
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, logger log.Logger) *Client {
	return NewClientWithHTTPClient(retryhttp.NewClient(logger), baseURL, logger)
}

// NewClientWithHTTPClient uses the given transport. Its retry settings are
// overwritten: the service is never retried.
func NewClientWithHTTPClient(httpClient *retryablehttp.Client, baseURL string, logger log.Logger) *Client {
	httpClient.RetryMax = 0
	httpClient.CheckRetry = createNoRetryFunction(logger)
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		logger:     logger,
	}
}

// BaseURL ...
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Compress uploads file and waits for the service to compress it. Upload
// progress is reported to observer, which may be nil.
// Failures are always *Error.
func (c *Client) Compress(ctx context.Context, file document.SelectedFile, quality Quality, observer ProgressObserver) (CompressionResult, error) {
	if !quality.Valid() {
		return CompressionResult{}, requestFailed(fmt.Errorf("invalid quality: %q", quality))
	}

	body, contentType, err := multipartBody(file)
	if err != nil {
		return CompressionResult{}, requestFailed(err)
	}

	c.logger.Debugf("Uploading %s (%d bytes, quality: %s)", file.Name, file.Size, quality)
	return c.compress(ctx, body, contentType, quality, observer)
}

// DownloadURL returns where the compressed file can be fetched from.
// filename is not validated; the service rejects unknown names.
func (c *Client) DownloadURL(filename string) string {
	return c.baseURL + downloadPath + filename
}

// Download fetches a compressed file to destination.
func (c *Client) Download(ctx context.Context, filename, destination string) error {
	url := c.DownloadURL(filename)
	c.logger.Debugf("Downloading %s to %s", url, destination)

	downloader := got.New()
	downloader.Client = c.httpClient.StandardClient()

	if err := downloader.Do(got.NewDownload(ctx, url, destination)); err != nil {
		return fmt.Errorf("download %s: %w", filename, err)
	}
	return nil
}

// Health checks that the service is up.
func (c *Client) Health(ctx context.Context) error {
	return c.health(ctx)
}

func createNoRetryFunction(logger log.Logger) func(context.Context, *http.Response, error) (bool, error) {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		logger.Debugf("CheckRetry: retry=false ; err=%+v", err)
		return false, nil
	}
}
