package platform

import (
	"context"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type AuthType string

const (
	AuthBasic AuthType = "basic"
	AuthOAuth AuthType = "oauth"
)

type GrantType string

const (
	GrantCode              GrantType = "code"
	GrantPassword          GrantType = "password"
	GrantClientCredentials GrantType = "client_credentials"
)

// Credentials holds the union of basic and OAuth credential fields.
type Credentials struct {
	Username           string
	Password           string
	ClientID           string
	ClientSecret       string
	TokenURL           string
	GrantType          GrantType
	Scope              string
	TokenRequiresScope bool
}

type Auth struct {
	Type        AuthType
	Credentials Credentials
}

// authorizer sets credentials on an outgoing request.
type authorizer interface {
	authorize(req *http.Request) error
}

type basicAuthorizer struct {
	username string
	password string
}

func (b basicAuthorizer) authorize(req *http.Request) error {
	req.SetBasicAuth(b.username, b.password)
	return nil
}

type tokenAuthorizer struct {
	source oauth2.TokenSource
}

func (t tokenAuthorizer) authorize(req *http.Request) error {
	token, err := t.source.Token()
	if err != nil {
		return errors.WithMessage(err, "refreshing oauth token")
	}
	token.SetAuthHeader(req)
	return nil
}

// newTokenSource fetches the first token and returns a source that refreshes it when it expires.
// ctx carries the HTTP client used for token requests.
func newTokenSource(ctx context.Context, c Credentials, onRefresh func(*oauth2.Token)) (oauth2.TokenSource, error) {
	var (
		first  *oauth2.Token
		source oauth2.TokenSource
		err    error
	)
	switch c.GrantType {
	case GrantPassword:
		config := &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: c.TokenURL},
		}
		if c.TokenRequiresScope && c.Scope != "" {
			config.Scopes = []string{c.Scope}
		}
		first, err = config.PasswordCredentialsToken(ctx, c.Username, c.Password)
		if err != nil {
			return nil, errors.WithMessagef(err, "fetching token from %s", c.TokenURL)
		}
		source = config.TokenSource(ctx, first)
	case GrantCode, GrantClientCredentials:
		config := &clientcredentials.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			TokenURL:     c.TokenURL,
		}
		first, err = config.Token(ctx)
		if err != nil {
			return nil, errors.WithMessagef(err, "fetching token from %s", c.TokenURL)
		}
		source = oauth2.ReuseTokenSource(first, config.TokenSource(ctx))
	default:
		return nil, errors.Errorf("unsupported grant type %q", c.GrantType)
	}
	if onRefresh != nil {
		onRefresh(first)
	}
	return &notifyingTokenSource{source: source, last: first, onRefresh: onRefresh}, nil
}

// notifyingTokenSource reports every token obtained after the first to onRefresh. The wrapped sources are already safe for
// concurrent use; the mutex only orders the notifications.
type notifyingTokenSource struct {
	source    oauth2.TokenSource
	onRefresh func(*oauth2.Token)

	mu   sync.Mutex
	last *oauth2.Token
}

func (n *notifyingTokenSource) Token() (*oauth2.Token, error) {
	token, err := n.source.Token()
	if err != nil {
		return nil, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last == nil || token.AccessToken != n.last.AccessToken {
		n.last = token
		if n.onRefresh != nil {
			n.onRefresh(token)
		}
	}
	return token, nil
}
