// Package cmd implements the command line operations of reqpipe: serving the fixture
// backend and calling it through the request pipeline.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/zcc135820/reqpipe/internal/config"
	"github.com/zcc135820/reqpipe/internal/store"
	"github.com/zcc135820/reqpipe/sdk/api"
	"github.com/zcc135820/reqpipe/sdk/client"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// session bundles a configured pipeline with the store backing its credential.
type session struct {
	client *client.Client
	api    *api.API
	store  store.Store
}

func (s *session) Close() {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.WithError(err).Warn("failed to close credential store")
	}
}

// newSession opens the configured credential store and builds the pipeline. When OAuth2 is
// configured the client-credentials token source replaces the stored token for outbound
// requests; login still writes to the store.
func newSession(ctx context.Context, cfg *config.Config) (*session, error) {
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	var provider client.CredentialProvider = st
	if cfg.OAuth2.Enabled() {
		cc := &clientcredentials.Config{
			ClientID:     cfg.OAuth2.ClientID,
			ClientSecret: cfg.OAuth2.ClientSecret,
			TokenURL:     cfg.OAuth2.TokenURL,
			Scopes:       cfg.OAuth2.Scopes,
		}
		provider = client.NewOAuth2Credentials(&clientCredentialsSource{ctx: context.Background(), cfg: cc})
		log.Debugf("using oauth2 client credentials from %s", cfg.OAuth2.TokenURL)
	}

	opts := []client.Option{
		client.WithCredentials(provider),
		client.WithSaver(&client.FileSaver{Dir: cfg.DownloadDir, Reveal: cfg.OpenDownloads}),
	}
	if cfg.RequestLog || cfg.Debug {
		opts = append(opts, client.WithHooks(client.NewLogHook()))
	}
	c := client.NewFromConfig(&cfg.SDKConfig, opts...)
	return &session{client: c, api: api.New(c, st), store: st}, nil
}

// clientCredentialsSource fetches a new token on every call. OAuth2Credentials does the caching,
// so a 401 can force a fresh grant.
type clientCredentialsSource struct {
	ctx context.Context
	cfg *clientcredentials.Config
}

func (s *clientCredentialsSource) Token() (*oauth2.Token, error) {
	return s.cfg.Token(s.ctx)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// describe renders a pipeline error for the terminal.
func describe(err error) string {
	if e, ok := client.AsError(err); ok {
		return fmt.Sprintf("%s (code %d)", strings.TrimSpace(e.Message), e.Code)
	}
	return err.Error()
}
