package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httputil"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/bitrise-io/go-pdfcompress/document"
	"github.com/hashicorp/go-retryablehttp"
)

const maxErrorBodySize = 1024 * 1024

func (c *Client) compress(ctx context.Context, body []byte, contentType string, quality Quality, observer ProgressObserver) (CompressionResult, error) {
	apiURL := fmt.Sprintf("%s%s?%s", c.baseURL, compressPath, url.Values{qualityParamName: {string(quality)}}.Encode())

	bodyFunc := retryablehttp.ReaderFunc(func() (io.Reader, error) {
		return newProgressReader(body, observer), nil
	})
	req, err := retryablehttp.NewRequest(http.MethodPost, apiURL, bodyFunc)
	if err != nil {
		return CompressionResult{}, requestFailed(err)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	dump, err := httputil.DumpRequest(req.Request, false)
	if err != nil {
		c.logger.Warnf("error while dumping request: %s", err)
	}
	c.logger.Debugf("Compress request dump: %s", string(dump))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			c.closeBody(resp.Body)
		}
		return CompressionResult{}, unreachable(err)
	}
	defer c.closeBody(resp.Body)

	dump, err = httputil.DumpResponse(resp, false)
	if err != nil {
		c.logger.Warnf("error while dumping response: %s", err)
	}
	c.logger.Debugf("Compress response dump: %s", string(dump))

	if !isSuccess(resp.StatusCode) {
		return CompressionResult{}, unwrapError(resp)
	}

	var result CompressionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return CompressionResult{}, serverRejected(resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
	}

	return result, nil
}

func (c *Client) health(ctx context.Context) error {
	req, err := retryablehttp.NewRequest(http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return requestFailed(err)
	}
	req = req.WithContext(ctx)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			c.closeBody(resp.Body)
		}
		return unreachable(err)
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return unwrapError(resp)
	}

	var response healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return serverRejected(resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
	}
	if response.Status != "healthy" {
		return serverRejected(resp.StatusCode, fmt.Sprintf("service is %s", response.Status), nil)
	}
	return nil
}

func (c *Client) closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		c.logger.Warnf("failed to close response body: %s", err)
	}
}

func multipartBody(file document.SelectedFile) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fileFieldName, escapeQuotes(file.Name)))
	header.Set("Content-Type", file.MimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := io.Copy(part, file.Open()); err != nil {
		return nil, "", fmt.Errorf("write form part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func isSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// unwrapError turns a non-2xx response into a ServerRejected error. The
// service's "detail" string is used as the message when there is one.
func unwrapError(resp *http.Response) error {
	errorResp, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return serverRejected(resp.StatusCode, "", err)
	}

	cause := fmt.Errorf("HTTP %d: %s", resp.StatusCode, errorResp)

	var parsed errorResponse
	if err := json.Unmarshal(errorResp, &parsed); err != nil {
		return serverRejected(resp.StatusCode, "", cause)
	}
	detail, _ := parsed.Detail.(string)

	return serverRejected(resp.StatusCode, detail, cause)
}
