package client

import (
	"context"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// CredentialProvider supplies the bearer token attached to outbound requests.
// Clear must be idempotent; it is invoked when the server answers 401.
type CredentialProvider interface {
	Token(ctx context.Context) (string, bool)
	Clear(ctx context.Context) error
}

// CredentialStore is a provider that can also persist a freshly issued token.
type CredentialStore interface {
	CredentialProvider
	Set(ctx context.Context, token string) error
}

// MemoryCredentials keeps the token in process memory.
type MemoryCredentials struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryCredentials returns a store seeded with token, which may be empty.
func NewMemoryCredentials(token string) *MemoryCredentials {
	return &MemoryCredentials{token: strings.TrimSpace(token)}
}

// Token implements CredentialProvider.
func (m *MemoryCredentials) Token(context.Context) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

// Clear implements CredentialProvider.
func (m *MemoryCredentials) Clear(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

// Set implements CredentialStore.
func (m *MemoryCredentials) Set(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = strings.TrimSpace(token)
	m.mu.Unlock()
	return nil
}

// OAuth2Credentials adapts an oauth2.TokenSource. The source is wrapped in a reuse cache;
// Clear drops the cached token so the next call fetches a new one.
type OAuth2Credentials struct {
	mu     sync.Mutex
	base   oauth2.TokenSource
	cached oauth2.TokenSource
}

// NewOAuth2Credentials wraps src.
func NewOAuth2Credentials(src oauth2.TokenSource) *OAuth2Credentials {
	return &OAuth2Credentials{base: src, cached: oauth2.ReuseTokenSource(nil, src)}
}

// Token implements CredentialProvider.
func (o *OAuth2Credentials) Token(context.Context) (string, bool) {
	o.mu.Lock()
	src := o.cached
	o.mu.Unlock()
	if src == nil {
		return "", false
	}
	tok, err := src.Token()
	if err != nil {
		log.WithError(err).Warn("oauth2 credentials: token fetch failed")
		return "", false
	}
	if tok == nil || tok.AccessToken == "" {
		return "", false
	}
	return tok.AccessToken, true
}

// Clear implements CredentialProvider.
func (o *OAuth2Credentials) Clear(context.Context) error {
	o.mu.Lock()
	if o.base != nil {
		o.cached = oauth2.ReuseTokenSource(nil, o.base)
	}
	o.mu.Unlock()
	return nil
}
