package util

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/zcc135820/reqpipe/internal/config"
	"golang.org/x/net/proxy"
)

// NewProxyTransport builds a transport routing requests through proxyURL.
// Supported schemes are socks5, http and https. An empty URL yields (nil, nil).
func NewProxyTransport(proxyURL string) (*http.Transport, error) {
	raw := strings.TrimSpace(proxyURL)
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("util: parse proxy url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("util: proxy url %q has no host", raw)
	}

	base, ok := http.DefaultTransport.(*http.Transport)
	var transport *http.Transport
	if ok {
		transport = base.Clone()
	} else {
		transport = &http.Transport{}
	}

	switch strings.ToLower(u.Scheme) {
	case "socks5", "socks5h":
		var auth *proxy.Auth
		if u.User != nil {
			password, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: password}
		}
		dialer, errSOCKS5 := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if errSOCKS5 != nil {
			return nil, fmt.Errorf("util: create socks5 dialer: %w", errSOCKS5)
		}
		transport.Proxy = nil
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if ctxDialer, okCtx := dialer.(proxy.ContextDialer); okCtx {
				return ctxDialer.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	default:
		return nil, fmt.Errorf("util: unsupported proxy scheme %q", u.Scheme)
	}
	return transport, nil
}

// SetProxy installs the configured proxy on httpClient. An unusable proxy URL is logged and the
// client is left unchanged.
func SetProxy(cfg *config.SDKConfig, httpClient *http.Client) *http.Client {
	if cfg == nil || httpClient == nil {
		return httpClient
	}
	transport, err := NewProxyTransport(cfg.ProxyURL)
	if err != nil {
		log.WithError(err).Error("proxy disabled")
		return httpClient
	}
	if transport != nil {
		httpClient.Transport = transport
		log.Debugf("routing requests through proxy %s", MaskProxyURL(cfg.ProxyURL))
	}
	return httpClient
}

// MaskProxyURL hides the password of a proxy URL for logging.
func MaskProxyURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.User == nil {
		return raw
	}
	if _, has := u.User.Password(); has {
		u.User = url.UserPassword(u.User.Username(), "******")
	}
	return u.String()
}
