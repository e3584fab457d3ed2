package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout bounds a single outbound request.
	DefaultTimeout = 30 * time.Second

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/102.0.5005.61 Safari/537.36"

	maxBodySize = 8 << 20
)

// FetchError is returned by every adapter for network failures, non-2xx
// responses, timeouts and payloads that could not be parsed.
type FetchError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Source, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func fetchError(source string, status int, err error) *FetchError {
	return &FetchError{Source: source, StatusCode: status, Err: err}
}

func parseError(source, format string, args ...interface{}) *FetchError {
	return fetchError(source, 0, errors.Errorf(format, args...))
}

// NewHTTPClient returns the client shared by adapters. A non-positive timeout
// falls back to DefaultTimeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// requester performs one request on behalf of a named source.
type requester struct {
	name   string
	client *http.Client
}

func newRequester(name string, client *http.Client) requester {
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}
	return requester{name: name, client: client}
}

func (r requester) logger() *log.Entry {
	return log.WithField("source", r.name)
}

func (r requester) do(ctx context.Context, method, url string, body io.Reader, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fetchError(r.name, 0, errors.Wrap(err, "could not create request"))
	}

	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	r.logger().Debugf("%s %s", method, url)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fetchError(r.name, 0, errors.Wrap(err, "request failed"))
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fetchError(r.name, resp.StatusCode, errors.Wrap(err, "could not read response"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fetchError(r.name, resp.StatusCode, errors.Errorf("unexpected response: %.200s", content))
	}

	r.logger().Debugf("received %s", humanize.Bytes(uint64(len(content))))
	return content, nil
}

func (r requester) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	return r.do(ctx, http.MethodGet, url, nil, headers)
}

func (r requester) dump(v interface{}) {
	if log.IsLevelEnabled(log.TraceLevel) {
		r.logger().Trace(spew.Sdump(v))
	}
}
