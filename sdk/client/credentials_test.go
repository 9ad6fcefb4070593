package client

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"golang.org/x/oauth2"
)

type countingSource struct {
	calls atomic.Int32
	fail  bool
}

func (s *countingSource) Token() (*oauth2.Token, error) {
	n := s.calls.Add(1)
	if s.fail {
		return nil, errors.New("token endpoint down")
	}
	return &oauth2.Token{AccessToken: "access-" + string(rune('0'+n))}, nil
}

func TestMemoryCredentials(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCredentials(" seed ")
	if tok, ok := m.Token(ctx); !ok || tok != "seed" {
		t.Fatalf("Token() = %q, %v", tok, ok)
	}
	if err := m.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := m.Clear(ctx); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	if _, ok := m.Token(ctx); ok {
		t.Fatal("token still present after Clear")
	}
	_ = m.Set(ctx, "fresh")
	if tok, _ := m.Token(ctx); tok != "fresh" {
		t.Fatalf("Token() = %q after Set", tok)
	}
}

func TestOAuth2CredentialsCachesUntilCleared(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	o := NewOAuth2Credentials(src)

	first, ok := o.Token(ctx)
	if !ok || first != "access-1" {
		t.Fatalf("Token() = %q, %v", first, ok)
	}
	if again, _ := o.Token(ctx); again != first {
		t.Fatalf("token not reused: %q", again)
	}
	if err := o.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if next, _ := o.Token(ctx); next != "access-2" {
		t.Fatalf("Token() after Clear = %q", next)
	}
}

func TestOAuth2CredentialsFailure(t *testing.T) {
	o := NewOAuth2Credentials(&countingSource{fail: true})
	if _, ok := o.Token(context.Background()); ok {
		t.Fatal("expected no token when the source fails")
	}
}
