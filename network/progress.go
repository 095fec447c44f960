package network

import (
	"bytes"
	"math"
)

// ProgressObserver receives upload progress ticks as whole percentages.
type ProgressObserver interface {
	UploadProgress(percent int)
}

// ProgressFunc adapts a plain function to ProgressObserver.
type ProgressFunc func(percent int)

// UploadProgress ...
func (f ProgressFunc) UploadProgress(percent int) {
	f(percent)
}

// Percent rounds sent/total to a whole percentage. Ticks are not clamped here.
func Percent(sent, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(sent) * 100 / float64(total)))
}

// progressReader reports how much of the request body the transport consumed.
// Len is what retryablehttp uses to set Content-Length. Only Read is exposed so
// the transport cannot bypass the count through WriteTo.
type progressReader struct {
	body     *bytes.Reader
	total    int64
	sent     int64
	observer ProgressObserver
}

func newProgressReader(body []byte, observer ProgressObserver) *progressReader {
	return &progressReader{
		body:     bytes.NewReader(body),
		total:    int64(len(body)),
		observer: observer,
	}
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.body.Read(p)
	if n > 0 {
		r.sent += int64(n)
		if r.observer != nil {
			r.observer.UploadProgress(Percent(r.sent, r.total))
		}
	}
	return n, err
}

func (r *progressReader) Len() int {
	return r.body.Len()
}
