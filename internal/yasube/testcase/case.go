// Package testcase executes single benchmarked calls (list, detail, download) with timeout, delay and retry
// policy, turning every outcome into a batch of raw metrics.
package testcase

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/yasube/yasube/internal/common/logging"
	"github.com/yasube/yasube/internal/yasube/instrumentation"
	"github.com/yasube/yasube/internal/yasube/metric"
	"github.com/yasube/yasube/internal/yasube/platform"
)

// Transport sends requests on behalf of a platform. *platform.Platform implements it.
type Transport interface {
	Send(ctx context.Context, r platform.Request) (*platform.Response, error)
}

// Renderer expands placeholders in query templates.
type Renderer interface {
	Render(template string) string
}

// Target is the platform a case runs against.
type Target struct {
	Key       string
	RootURI   string
	Transport Transport
}

// TargetOf adapts a platform.
func TargetOf(p *platform.Platform) Target {
	return Target{Key: p.Key, RootURI: p.RootURI, Transport: p}
}

// Result of one run: the raw metrics of the final attempt and, when it succeeded, its response.
type Result struct {
	Metrics  []metric.Metric
	Response *platform.Response
	// Items of a successful list call.
	Items []Item
}

// Case is one configured test case bound to a target.
type Case struct {
	Descriptor
	Config Config

	target   Target
	renderer Renderer
	metrics  *instrumentation.Metrics
	logger   *logging.Logger
	now      func() time.Time
}

type Option func(*Case)

func WithRenderer(r Renderer) Option {
	return func(c *Case) { c.renderer = r }
}

func WithInstrumentation(m *instrumentation.Metrics) Option {
	return func(c *Case) { c.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(c *Case) { c.now = now }
}

func New(d Descriptor, config Config, target Target, opts ...Option) *Case {
	c := &Case{
		Descriptor: d,
		Config:     config,
		target:     target,
		now:        time.Now,
		logger: logging.WithFields(map[string]any{
			"case":     d.Key,
			"platform": target.Key,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	errEmptyResults = errors.New("no results found")
	errNotList      = errors.New("not a list case")
	errNotDetail    = errors.New("not a detail or download case")
)

// statusError is a completed call with a non-2xx status.
type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%d error for url %s", e.code, e.url)
}

// RunList issues call index of total. It always returns a batch ending with TOTAL_READ_RESULTS.
func (c *Case) RunList(ctx context.Context, index, total int) Result {
	if c.Kind != List {
		return c.failed(ctx, errNotList)
	}
	c.logger.Infof("Request %d out of %d", index, total)
	u, err := c.listURL()
	if err != nil {
		return c.failed(ctx, err)
	}
	result := c.run(ctx, platform.Request{URL: u, Timeout: c.Config.RequestsTimeout}, true)
	if result.Response == nil {
		result.Metrics = append(result.Metrics, metric.TotalReadResults(0))
		return result
	}
	if result.Response.StatusCode == 200 {
		c.logger.Infof("Found %d items", len(result.Items))
	}
	result.Metrics = append(result.Metrics, metric.TotalReadResults(len(result.Items)))
	if c.Extra != nil && len(result.Items) > 0 {
		result.Metrics = append(result.Metrics, c.Extra(result.Items)...)
	}
	return result
}

// RunDetail fetches (or, for download cases, streams) the entity with primary key pk.
func (c *Case) RunDetail(ctx context.Context, pk string) Result {
	if c.Kind != Detail && c.Kind != Download {
		return c.failed(ctx, errNotDetail)
	}
	u, err := c.detailURL(pk)
	if err != nil {
		return c.failed(ctx, err)
	}
	return c.run(ctx, platform.Request{URL: u, Timeout: c.Config.RequestsTimeout, Stream: c.Kind == Download}, false)
}

// run executes the request under the retry policy. Only the batch of the final attempt is kept.
func (c *Case) run(ctx context.Context, req platform.Request, list bool) Result {
	policy := c.Config.RetryPolicy()
	var last Result
	err := policy.Do(ctx, func(attempt uint) error {
		result, err := c.attempt(ctx, req, list)
		if err == errEmptyResults && policy.Next(attempt, true) == Exhausted {
			// out of retries: an empty list is still a successful call
			err = nil
		}
		last = result
		state := policy.Next(attempt, err != nil)
		logger := c.logger.WithFields(map[string]any{"attempt": attempt, "state": state.String()})
		switch state {
		case Retrying:
			c.metrics.RecordAttempt(c.target.Key, c.Key, instrumentation.OutcomeRetry)
			if err == errEmptyResults {
				logger.Infof("Found 0 items, retrying (%d/%d)...", attempt, policy.Attempts()-1)
			} else {
				logger.WithError(err).Error("Request failed, retrying")
			}
		case Exhausted:
			c.metrics.RecordAttempt(c.target.Key, c.Key, instrumentation.OutcomeFailure)
		case Succeeded:
			c.metrics.RecordAttempt(c.target.Key, c.Key, instrumentation.OutcomeSuccess)
		}
		// throttles the issue rate; a cancellation here surfaces on the next attempt
		_ = c.sleep(ctx, c.Config.RequestsDelay)
		return err
	})
	if err != nil {
		c.logger.WithError(err).Error("Request failed")
		last.Response = nil
		last.Items = nil
		// a cancelled retry wait can follow a completed attempt whose tail must not be reported twice
		last.Metrics = append(attemptPrefix(last.Metrics),
			metric.ResponseTime(-1),
			metric.Size(-1),
			metric.Exception(true),
		)
	}
	return last
}

// attempt makes one call. The returned batch is partial (no RESPONSE_TIME/SIZE/EXCEPTION) when err is set.
func (c *Case) attempt(ctx context.Context, req platform.Request, list bool) (Result, error) {
	c.logger.WithField("url", req.URL).Infof("Requesting url %s with a timeout of %s", req.URL, req.Timeout)
	result := Result{Metrics: []metric.Metric{metric.StartTime(c.now().UTC())}}

	resp, err := c.target.Transport.Send(ctx, req)
	if err != nil {
		return result, err
	}
	result.Metrics = append(result.Metrics, metric.HTTPStatusCode(resp.StatusCode))
	if !resp.OK() {
		if resp.Stream != nil {
			_ = resp.Stream.Close()
		}
		return result, &statusError{code: resp.StatusCode, url: req.URL}
	}

	var size int64
	if resp.Stream != nil {
		filename := DownloadFilename(resp)
		c.logger.Infof("Start downloading %s", filename)
		size, err = c.drain(resp.Stream)
		_ = resp.Stream.Close()
		if err != nil {
			return result, errors.Wrapf(err, "downloading %s", filename)
		}
		c.logger.Infof("Finished downloading %s of %d bytes", filename, size)
		resp.Stream = nil
	} else {
		size = int64(len(resp.Body))
	}

	if list && resp.StatusCode == 200 {
		items, _, err := Items(resp.Body)
		if err != nil {
			return result, err
		}
		result.Items = items
	}

	c.metrics.RecordResponse(c.target.Key, c.Key, resp.Elapsed, size)
	responseTime := float64(resp.Elapsed) / float64(time.Millisecond)
	c.logger.Debugf("Response time: %v ms", responseTime)
	result.Metrics = append(result.Metrics,
		metric.ResponseTime(responseTime),
		metric.Exception(false),
		metric.EndTime(c.now().UTC()),
		metric.Size(size),
	)
	result.Response = resp

	if list && c.Config.EnsureResults && len(result.Items) == 0 && resp.StatusCode == 200 {
		return result, errEmptyResults
	}
	return result, nil
}

// attemptPrefix keeps the samples recorded before a response was evaluated.
func attemptPrefix(metrics []metric.Metric) []metric.Metric {
	prefix := make([]metric.Metric, 0, 2)
	for _, m := range metrics {
		if m.Name == metric.StartTimeName || m.Name == metric.HTTPStatusCodeName {
			prefix = append(prefix, m)
		}
	}
	return prefix
}

func (c *Case) drain(stream io.Reader) (int64, error) {
	if c.Config.MaxDownloadBytes > 0 {
		stream = io.LimitReader(stream, c.Config.MaxDownloadBytes)
	}
	return io.CopyBuffer(io.Discard, stream, make([]byte, 32*1024))
}

// failed builds the exhausted batch for a call that could not even be issued.
func (c *Case) failed(ctx context.Context, err error) Result {
	c.logger.WithStacktrace(err).Error("Request failed")
	_ = c.sleep(ctx, c.Config.RequestsDelay)
	m := []metric.Metric{
		metric.StartTime(c.now().UTC()),
		metric.ResponseTime(-1),
		metric.Size(-1),
		metric.Exception(true),
	}
	if c.Kind == List {
		m = append(m, metric.TotalReadResults(0))
	}
	return Result{Metrics: m}
}

func (c *Case) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Case) listURL() (string, error) {
	u, err := JoinURL(c.target.RootURI, c.ResourcePath)
	if err != nil {
		return "", err
	}
	if c.Config.Query == "" {
		return u, nil
	}
	query := c.Config.Query
	if c.renderer != nil {
		query = c.renderer.Render(query)
	}
	return u + "?" + requote(query), nil
}

func (c *Case) detailURL(pk string) (string, error) {
	u, err := JoinURL(c.target.RootURI, fmt.Sprintf("%s(%s)", c.ResourcePath, pk))
	if err != nil {
		return "", err
	}
	if c.Kind == Download {
		u += "/$value"
	}
	return u, nil
}

// JoinURL resolves path against root the way a browser resolves a relative link: a root without a trailing
// slash has its last segment replaced.
func JoinURL(root, path string) (string, error) {
	base, err := url.Parse(root)
	if err != nil {
		return "", errors.Wrapf(err, "parsing root uri %q", root)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", errors.Wrapf(err, "parsing resource path %q", path)
	}
	return base.ResolveReference(ref).String(), nil
}

// DownloadFilename is the file name from the Content-Disposition header, falling back to the last segment of
// the URL path.
func DownloadFilename(resp *platform.Response) string {
	cd := resp.Header.Get("Content-Disposition")
	const marker = "filename="
	if i := strings.Index(cd, marker); i >= 0 {
		name := cd[i+len(marker):]
		if j := strings.Index(name, ";"); j >= 0 {
			name = name[:j]
		}
		return strings.Trim(strings.TrimSpace(name), `"`)
	}
	u, err := url.Parse(resp.URL)
	if err != nil {
		return resp.URL
	}
	segments := strings.Split(u.Path, "/")
	return segments[len(segments)-1]
}

// requote percent-encodes characters that may not appear in a URL, leaving reserved characters and existing
// escapes alone.
func requote(s string) string {
	const safe = "!#$%&'()*+,/:;=?@[]~-._"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || strings.IndexByte(safe, ch) >= 0 {
			b.WriteByte(ch)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", ch)
	}
	return b.String()
}
