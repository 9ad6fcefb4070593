package util

import (
	"net/http"
	"testing"

	"github.com/zcc135820/reqpipe/internal/config"
)

func TestMaskSensitiveQuery(t *testing.T) {
	got := MaskSensitiveQuery("page=1&access_token=abcdefghijkl&pageSize=10")
	want := "page=1&access_token=abcd...ijkl&pageSize=10"
	if got != want {
		t.Fatalf("MaskSensitiveQuery = %q, want %q", got, want)
	}
	if got = MaskSensitiveQuery("page=1"); got != "page=1" {
		t.Fatalf("MaskSensitiveQuery changed a harmless query: %q", got)
	}
}

func TestMaskURL(t *testing.T) {
	got := MaskURL("http://localhost:3000/table?token=secretvalue1")
	want := "http://localhost:3000/table?token=secr...lue1"
	if got != want {
		t.Fatalf("MaskURL = %q, want %q", got, want)
	}
	if got = MaskURL("http://localhost:3000/table"); got != "http://localhost:3000/table" {
		t.Fatalf("MaskURL without query = %q", got)
	}
}

func TestMaskAuthorizationHeader(t *testing.T) {
	if got := MaskAuthorizationHeader("Bearer 0123456789"); got != "Bearer 0123...6789" {
		t.Fatalf("MaskAuthorizationHeader = %q", got)
	}
}

func TestSetProxyHTTPScheme(t *testing.T) {
	client := SetProxy(&config.SDKConfig{ProxyURL: "http://127.0.0.1:8080"}, &http.Client{})
	transport, ok := client.Transport.(*http.Transport)
	if !ok || transport.Proxy == nil {
		t.Fatalf("expected HTTP proxy transport, got %#v", client.Transport)
	}
}

func TestSetProxyIgnoresUnknownScheme(t *testing.T) {
	client := SetProxy(&config.SDKConfig{ProxyURL: "ftp://127.0.0.1"}, &http.Client{})
	if client.Transport != nil {
		t.Fatalf("expected transport untouched for unsupported scheme, got %#v", client.Transport)
	}
}
