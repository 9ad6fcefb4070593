// Package client implements the envelope request pipeline: a typed HTTP client that attaches
// bearer credentials, unwraps the {code, message, data, success} envelope and reports every
// failure as a single normalized *Error.
//
// The pipeline is a fixed composition of request and response stages built at construction
// time. Calls are independent; the only shared state is the credential provider and the
// underlying http.Client. Each call is attempted exactly once.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zcc135820/reqpipe/internal/util"
	sdkconfig "github.com/zcc135820/reqpipe/sdk/config"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "/api"
	// DefaultTimeout bounds each call when no timeout is configured.
	DefaultTimeout = 10 * time.Second
)

// DefaultOKCodes are the envelope codes accepted as success unless configured otherwise.
var DefaultOKCodes = []int{200, 0}

// Client is the request pipeline. It is safe for concurrent use.
type Client struct {
	baseURL     string
	timeout     time.Duration
	okCodes     map[int]struct{}
	credentials CredentialProvider
	httpClient  *http.Client
	hooks       hookSet
	saver       Saver

	extraRequest  []RequestStage
	extraResponse []ResponseStage

	requestStages  []RequestStage
	responseStages []ResponseStage
}

// New builds a pipeline. Stage order is fixed here: default headers, request id and bearer
// auth outbound; content decoding, status mapping and envelope unwrapping inbound. Extra
// stages registered through options run after the defaults.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
	}
	WithOKCodes(DefaultOKCodes...)(c)
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.requestStages = append([]RequestStage{
		DefaultHeaders(),
		RequestID(),
		BearerAuth(c.credentials),
	}, c.extraRequest...)
	c.responseStages = append([]ResponseStage{
		DecodeContent(),
		CheckStatus(c.credentials),
		UnwrapEnvelope(c.okCodes),
	}, c.extraResponse...)
	return c
}

// NewFromConfig builds a pipeline from the SDK configuration. Options passed explicitly
// override configured values.
func NewFromConfig(cfg *sdkconfig.SDKConfig, opts ...Option) *Client {
	if cfg == nil {
		return New(opts...)
	}
	httpClient := &http.Client{}
	if strings.TrimSpace(cfg.ProxyURL) != "" {
		httpClient = util.SetProxy(cfg, httpClient)
	}
	base := []Option{
		WithBaseURL(cfg.BaseURL),
		WithHTTPClient(httpClient),
	}
	if cfg.TimeoutMS > 0 {
		base = append(base, WithTimeout(time.Duration(cfg.TimeoutMS)*time.Millisecond))
	}
	if len(cfg.OKCodes) > 0 {
		base = append(base, WithOKCodes(cfg.OKCodes...))
	}
	return New(append(base, opts...)...)
}

// BaseURL reports the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Do performs one call and returns the raw envelope. Any failure is returned as *Error.
// body may be nil, []byte or json.RawMessage (sent as is), an io.Reader (streamed), or any
// value encodable as JSON.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*RawEnvelope, error) {
	ro := newRequestOptions(opts)
	ex, err := c.execute(ctx, &call{method: method, path: path, body: body, opts: ro})
	if err != nil {
		return nil, err
	}
	return ex.Envelope, nil
}

type call struct {
	method      string
	path        string
	body        any
	contentType string
	binary      bool
	opts        *RequestOptions
	// decode converts the unwrapped envelope into the caller's type. Its failure is reported
	// like any other pipeline failure.
	decode func(raw *RawEnvelope) error
}

func (c *Client) execute(ctx context.Context, cl *call) (*Exchange, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ro := cl.opts
	timeout := c.timeout
	if ro.Timeout > 0 {
		timeout = ro.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	info := &CallInfo{Method: cl.method, URL: cl.path, Started: time.Now()}

	req, errBuild := c.buildRequest(ctx, cl, info)
	if errBuild != nil {
		e := normalize(errBuild)
		c.hooks.fail(ctx, ro, info, e)
		return nil, e
	}
	info.URL = req.URL.String()
	info.RequestID = req.Header.Get(HeaderRequestID)

	c.hooks.start(ctx, ro, info)

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		e := newTransportError(errDo)
		c.hooks.end(ctx, ro, info)
		c.hooks.fail(ctx, ro, info, e)
		return nil, e
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Errorf("close response body error: %v", errClose)
		}
	}()
	info.Status = resp.StatusCode

	data, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		e := newTransportError(errRead)
		c.hooks.end(ctx, ro, info)
		c.hooks.fail(ctx, ro, info, e)
		return nil, e
	}

	ex := &Exchange{Request: req, Options: ro, Response: resp, Body: data, Binary: cl.binary}
	for _, stage := range c.responseStages {
		if stage == nil {
			continue
		}
		if errStage := stage(ctx, ex); errStage != nil {
			e := normalize(errStage)
			c.hooks.end(ctx, ro, info)
			c.hooks.fail(ctx, ro, info, e)
			return nil, e
		}
	}
	if cl.decode != nil && !cl.binary {
		if errDecode := cl.decode(ex.Envelope); errDecode != nil {
			e := normalize(errDecode)
			c.hooks.end(ctx, ro, info)
			c.hooks.fail(ctx, ro, info, e)
			return nil, e
		}
	}
	c.hooks.end(ctx, ro, info)
	return ex, nil
}

func (c *Client) buildRequest(ctx context.Context, cl *call, info *CallInfo) (*http.Request, error) {
	target, err := c.resolveURL(cl.path, cl.opts.Query)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	switch b := cl.body.(type) {
	case nil:
	case io.Reader:
		reader = b
	case []byte:
		info.Body = b
		reader = bytes.NewReader(b)
	case json.RawMessage:
		info.Body = b
		reader = bytes.NewReader(b)
	default:
		encoded, errMarshal := json.Marshal(b)
		if errMarshal != nil {
			return nil, fmt.Errorf("client: encode request body: %w", errMarshal)
		}
		info.Body = encoded
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	for key, values := range cl.opts.Header {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	for _, stage := range c.requestStages {
		if stage == nil {
			continue
		}
		if errStage := stage(ctx, req, cl.opts); errStage != nil {
			return nil, errStage
		}
	}
	return req, nil
}

// resolveURL joins path onto the base URL unless path is already absolute, then merges query.
func (c *Client) resolveURL(path string, query url.Values) (string, error) {
	raw := strings.TrimSpace(path)
	if !strings.Contains(raw, "://") {
		base := strings.TrimRight(c.baseURL, "/")
		if raw != "" {
			raw = base + "/" + strings.TrimLeft(raw, "/")
		} else {
			raw = base
		}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("client: parse request url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("client: request url %q has no scheme or host; configure an absolute base url", raw)
	}
	if len(query) > 0 {
		merged := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				merged.Add(k, v)
			}
		}
		u.RawQuery = merged.Encode()
	}
	return u.String(), nil
}
