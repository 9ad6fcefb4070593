package client

import (
	"context"
	"net/http"
)

// Get issues a GET and decodes the envelope data as T.
func Get[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (*Envelope[T], error) {
	return doTyped[T](ctx, c, &call{method: http.MethodGet, path: path, opts: newRequestOptions(opts)})
}

// Post issues a POST with body encoded as JSON.
func Post[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (*Envelope[T], error) {
	return doTyped[T](ctx, c, &call{method: http.MethodPost, path: path, body: body, opts: newRequestOptions(opts)})
}

// Put issues a PUT with body encoded as JSON.
func Put[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (*Envelope[T], error) {
	return doTyped[T](ctx, c, &call{method: http.MethodPut, path: path, body: body, opts: newRequestOptions(opts)})
}

// Patch issues a PATCH with body encoded as JSON.
func Patch[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (*Envelope[T], error) {
	return doTyped[T](ctx, c, &call{method: http.MethodPatch, path: path, body: body, opts: newRequestOptions(opts)})
}

// Delete issues a DELETE.
func Delete[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (*Envelope[T], error) {
	return doTyped[T](ctx, c, &call{method: http.MethodDelete, path: path, opts: newRequestOptions(opts)})
}

// doTyped runs cl with the envelope data decoded as T inside the pipeline, so a type mismatch
// reaches the error hooks.
func doTyped[T any](ctx context.Context, c *Client, cl *call) (*Envelope[T], error) {
	var out *Envelope[T]
	cl.decode = func(raw *RawEnvelope) error {
		env, errDecode := Decode[T](raw)
		if errDecode != nil {
			return &Error{
				Code:    http.StatusInternalServerError,
				Message: msgBadEnvelope,
				Details: errDecode.Error(),
				Origin:  OriginBusiness,
				cause:   errDecode,
			}
		}
		out = env
		return nil
	}
	if _, err := c.execute(ctx, cl); err != nil {
		return nil, err
	}
	return out, nil
}
