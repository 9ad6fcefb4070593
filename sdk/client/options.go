package client

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RequestOptions carries per-call settings. ShowLoading and ShowError only gate hook
// notifications; they never change what the call returns.
type RequestOptions struct {
	// Query is merged into the request URL.
	Query url.Values
	// Header overrides headers set by the outbound stages.
	Header http.Header
	// ShowLoading enables OnRequestStart/OnRequestEnd notifications.
	ShowLoading bool
	// ShowError enables OnError notifications.
	ShowError bool
	// Timeout bounds this call; zero uses the client timeout.
	Timeout time.Duration

	formFields map[string]string
}

// RequestOption mutates RequestOptions.
type RequestOption func(*RequestOptions)

func newRequestOptions(opts []RequestOption) *RequestOptions {
	ro := &RequestOptions{
		Query:       url.Values{},
		Header:      http.Header{},
		ShowLoading: true,
		ShowError:   true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ro)
		}
	}
	return ro
}

// WithQuery merges the given values into the query string.
func WithQuery(values url.Values) RequestOption {
	return func(ro *RequestOptions) {
		for k, vs := range values {
			for _, v := range vs {
				ro.Query.Add(k, v)
			}
		}
	}
}

// WithParam adds a single query parameter.
func WithParam(key, value string) RequestOption {
	return func(ro *RequestOptions) { ro.Query.Add(key, value) }
}

// WithHeader sets a request header, replacing any value the stages would set.
func WithHeader(key, value string) RequestOption {
	return func(ro *RequestOptions) {
		if strings.TrimSpace(key) == "" {
			return
		}
		ro.Header.Set(key, value)
	}
}

// WithoutLoading suppresses the request start and end notifications.
func WithoutLoading() RequestOption {
	return func(ro *RequestOptions) { ro.ShowLoading = false }
}

// WithoutErrorDisplay suppresses the OnError notification. The error is still returned.
func WithoutErrorDisplay() RequestOption {
	return func(ro *RequestOptions) { ro.ShowError = false }
}

// WithRequestTimeout bounds a single call.
func WithRequestTimeout(d time.Duration) RequestOption {
	return func(ro *RequestOptions) { ro.Timeout = d }
}

// WithFormField adds an extra multipart field to an upload.
func WithFormField(name, value string) RequestOption {
	return func(ro *RequestOptions) {
		if ro.formFields == nil {
			ro.formFields = make(map[string]string)
		}
		ro.formFields[name] = value
	}
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the prefix resolved against relative request paths.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(base); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the client-wide request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithOKCodes replaces the set of envelope codes treated as success.
func WithOKCodes(codes ...int) Option {
	return func(c *Client) {
		if len(codes) == 0 {
			return
		}
		set := make(map[int]struct{}, len(codes))
		for _, code := range codes {
			set[code] = struct{}{}
		}
		c.okCodes = set
	}
}

// WithCredentials injects the bearer credential provider.
func WithCredentials(provider CredentialProvider) Option {
	return func(c *Client) { c.credentials = provider }
}

// WithHooks registers hooks notified around every call.
func WithHooks(hooks ...Hook) Option {
	return func(c *Client) {
		for _, h := range hooks {
			if h != nil {
				c.hooks = append(c.hooks, h)
			}
		}
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRequestStages appends outbound stages after the default ones.
func WithRequestStages(stages ...RequestStage) Option {
	return func(c *Client) { c.extraRequest = append(c.extraRequest, stages...) }
}

// WithResponseStages appends inbound stages after the default ones.
func WithResponseStages(stages ...ResponseStage) Option {
	return func(c *Client) { c.extraResponse = append(c.extraResponse, stages...) }
}

// WithSaver sets the collaborator that persists downloaded files.
func WithSaver(s Saver) Option {
	return func(c *Client) { c.saver = s }
}
