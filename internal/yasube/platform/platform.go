// Package platform holds the remote endpoints scenarios run against and the HTTP session used to talk to them.
package platform

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/yasube/yasube/internal/common/logging"
)

const maxRedirects = 10

// Spec is the static description of a platform.
type Spec struct {
	Key     string
	Label   string
	RootURI string
	Auth    Auth
	// Upper bound on concurrent calls when neither the scenario nor an override sets one.
	NumWorkers int
	// When false, TLS certificates are not verified.
	VerifyTLS bool
	// When true, credentials are sent to redirect targets on other hosts (curl --location-trusted).
	TrustRedirects bool
}

// Platform is a Spec plus a lazily established session shared by every concurrent caller.
type Platform struct {
	Spec

	// OnTokenRefresh, when set before the first call, is told about every token the session obtains.
	OnTokenRefresh func(*oauth2.Token)

	logger *logging.Logger

	once       sync.Once
	client     *http.Client
	sessionErr error

	tokenMu sync.Mutex
	token   *oauth2.Token
}

// New returns a platform; the session is only established on the first call.
func New(spec Spec) *Platform {
	if spec.NumWorkers < 1 {
		spec.NumWorkers = 1
	}
	return &Platform{
		Spec:   spec,
		logger: logging.WithField("platform", spec.Key),
	}
}

// Request is a single call issued through the session.
type Request struct {
	Method  string
	URL     string
	Timeout time.Duration
	// Stream leaves the body unread; the caller must close Response.Stream.
	Stream bool
}

// Response of a call. Exactly one of Body and Stream is set.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Stream     io.ReadCloser
	// Elapsed is the time between sending the request and receiving the response headers.
	Elapsed time.Duration
	// URL is the final URL after redirects.
	URL string
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Session returns the shared HTTP client, establishing it on first use. Establishment errors are sticky.
func (p *Platform) Session() (*http.Client, error) {
	p.once.Do(func() {
		p.client, p.sessionErr = p.newSession()
		if p.sessionErr != nil {
			p.logger.WithError(p.sessionErr).Error("Unable to establish session")
		}
	})
	return p.client, p.sessionErr
}

// lastToken returns the latest OAuth token obtained by the session, if any.
func (p *Platform) lastToken() *oauth2.Token {
	p.tokenMu.Lock()
	defer p.tokenMu.Unlock()
	return p.token
}

func (p *Platform) saveToken(token *oauth2.Token) {
	p.tokenMu.Lock()
	p.token = token
	p.tokenMu.Unlock()
	if p.OnTokenRefresh != nil {
		p.OnTokenRefresh(token)
	}
}

func (p *Platform) newSession() (*http.Client, error) {
	root, err := url.Parse(p.RootURI)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing root uri of platform %s", p.Key)
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	if !p.VerifyTLS {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	var auth authorizer
	switch p.Auth.Type {
	case AuthBasic:
		auth = basicAuthorizer{username: p.Auth.Credentials.Username, password: p.Auth.Credentials.Password}
	case AuthOAuth:
		// Token requests go through the same transport so that verify_ssl applies to them too.
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Transport: base})
		source, err := newTokenSource(ctx, p.Auth.Credentials, p.saveToken)
		if err != nil {
			return nil, err
		}
		auth = tokenAuthorizer{source: source}
	case "":
	default:
		return nil, errors.Errorf("unsupported auth type %q", p.Auth.Type)
	}

	return &http.Client{
		Transport: &authTransport{
			base:    base,
			auth:    auth,
			host:    root.Host,
			trusted: p.TrustRedirects,
		},
		CheckRedirect: p.checkRedirect,
	}, nil
}

func (p *Platform) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.Errorf("stopped after %d redirects", maxRedirects)
	}
	if p.TrustRedirects {
		p.logger.Infof("Redirecting to %s from %s", req.URL, via[len(via)-1].URL)
	}
	return nil
}

// authTransport adds credentials to requests for the platform host, and to every host when redirects are
// trusted.
type authTransport struct {
	base    http.RoundTripper
	auth    authorizer
	host    string
	trusted bool
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.auth == nil || (!t.trusted && req.URL.Host != t.host) {
		return t.base.RoundTrip(req)
	}
	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	if err := t.auth.authorize(clone); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(clone)
}

// Send issues the request. Any HTTP status is returned as a Response; only transport problems (session,
// connection, timeout) are errors. The timeout bounds the wait for response headers and, for buffered calls,
// reading the body.
func (p *Platform) Send(ctx context.Context, r Request) (*Response, error) {
	client, err := p.Session()
	if err != nil {
		return nil, err
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	ctx, cancel := context.WithCancel(ctx)
	var timer *time.Timer
	if r.Timeout > 0 {
		timer = time.AfterFunc(r.Timeout, cancel)
	}
	stopTimer := func() bool {
		return timer == nil || timer.Stop()
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, nil)
	if err != nil {
		stopTimer()
		cancel()
		return nil, errors.WithStack(err)
	}

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		stopTimer()
		cancel()
		return nil, errors.WithStack(err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Elapsed:    elapsed,
		URL:        resp.Request.URL.String(),
	}
	if r.Stream {
		if !stopTimer() {
			_ = resp.Body.Close()
			cancel()
			return nil, errors.Errorf("timed out after %s waiting for %s", r.Timeout, r.URL)
		}
		out.Stream = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		return out, nil
	}

	defer cancel()
	defer resp.Body.Close()
	out.Body, err = io.ReadAll(resp.Body)
	stopTimer()
	if err != nil {
		return nil, errors.Wrapf(err, "reading response body of %s", r.URL)
	}
	return out, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}
