package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// HeaderRequestID carries the per-call identifier.
const HeaderRequestID = "X-Request-Id"

// RequestStage transforms an outbound request before it is sent.
// Returning an error aborts the call with a config-origin Error.
type RequestStage func(ctx context.Context, req *http.Request, opts *RequestOptions) error

// Exchange is the state inbound stages operate on.
type Exchange struct {
	Request  *http.Request
	Options  *RequestOptions
	Response *http.Response
	// Body is the fully read response body, decoded by DecodeContent.
	Body []byte
	// Envelope is populated by UnwrapEnvelope.
	Envelope *RawEnvelope
	// Binary marks downloads, which skip envelope unwrapping.
	Binary bool
}

// ResponseStage inspects or transforms a received response. Returning an error rejects the call.
type ResponseStage func(ctx context.Context, ex *Exchange) error

// DefaultHeaders sets the JSON content negotiation headers unless already present.
func DefaultHeaders() RequestStage {
	return func(_ context.Context, req *http.Request, _ *RequestOptions) error {
		if req.Body != nil && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if req.Header.Get("Accept") == "" {
			req.Header.Set("Accept", "application/json, */*")
		}
		if req.Header.Get("Accept-Encoding") == "" {
			req.Header.Set("Accept-Encoding", "gzip, deflate, br, zstd")
		}
		return nil
	}
}

// RequestID tags the request with a fresh identifier unless the caller provided one.
func RequestID() RequestStage {
	return func(_ context.Context, req *http.Request, _ *RequestOptions) error {
		if req.Header.Get(HeaderRequestID) == "" {
			req.Header.Set(HeaderRequestID, uuid.NewString())
		}
		return nil
	}
}

// BearerAuth attaches "Authorization: Bearer <token>" when the provider holds a token.
func BearerAuth(provider CredentialProvider) RequestStage {
	return func(ctx context.Context, req *http.Request, _ *RequestOptions) error {
		if provider == nil || req.Header.Get("Authorization") != "" {
			return nil
		}
		if token, ok := provider.Token(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
		}
		return nil
	}
}

// DecodeContent undoes any Content-Encoding applied by the server. An undecodable body on a
// non-2xx response is left as is so the status mapping still applies.
func DecodeContent() ResponseStage {
	return func(_ context.Context, ex *Exchange) error {
		encoding := ex.Response.Header.Get("Content-Encoding")
		if encoding == "" || len(ex.Body) == 0 {
			return nil
		}
		decoded, err := decompressBody(encoding, ex.Body)
		if err != nil {
			status := ex.Response.StatusCode
			if status < 200 || status >= 300 {
				// CheckStatus still has to map the status and clear credentials on 401.
				log.WithError(err).Debugf("undecodable %s body on status %d", encoding, status)
				return nil
			}
			return &Error{
				Code:    ex.Response.StatusCode,
				Message: "failed to decode response body",
				Details: err.Error(),
				Origin:  OriginHTTP,
				cause:   err,
			}
		}
		ex.Body = decoded
		ex.Response.Header.Del("Content-Encoding")
		ex.Response.Header.Del("Content-Length")
		return nil
	}
}

// CheckStatus maps non-2xx responses to normalized errors. A 401 clears the stored credential.
func CheckStatus(provider CredentialProvider) ResponseStage {
	return func(ctx context.Context, ex *Exchange) error {
		status := ex.Response.StatusCode
		if status >= 200 && status < 300 {
			return nil
		}
		if status == http.StatusUnauthorized && provider != nil {
			if errClear := provider.Clear(ctx); errClear != nil {
				log.WithError(errClear).Warn("failed to clear stored credential after 401")
			}
		}
		serverMessage := ""
		var details any
		if len(ex.Body) > 0 {
			if gjson.ValidBytes(ex.Body) {
				serverMessage = strings.TrimSpace(gjson.GetBytes(ex.Body, "message").String())
				details = json.RawMessage(append([]byte(nil), ex.Body...))
			} else {
				details = string(ex.Body)
			}
		}
		return newHTTPError(status, serverMessage, details)
	}
}

// UnwrapEnvelope parses the body as an Envelope and rejects business failures: a code outside
// okCodes, or an explicit "success": false.
func UnwrapEnvelope(okCodes map[int]struct{}) ResponseStage {
	return func(_ context.Context, ex *Exchange) error {
		if ex.Binary {
			return nil
		}
		if !gjson.ValidBytes(ex.Body) || !gjson.ParseBytes(ex.Body).IsObject() {
			return &Error{
				Code:    http.StatusInternalServerError,
				Message: msgBadEnvelope,
				Details: string(ex.Body),
				Origin:  OriginBusiness,
			}
		}
		var env RawEnvelope
		if err := json.Unmarshal(ex.Body, &env); err != nil {
			return &Error{
				Code:    http.StatusInternalServerError,
				Message: msgBadEnvelope,
				Details: err.Error(),
				Origin:  OriginBusiness,
				cause:   err,
			}
		}
		_, ok := okCodes[env.Code]
		if success := gjson.GetBytes(ex.Body, "success"); success.Exists() && !success.Bool() {
			ok = false
		}
		if !ok {
			return newBusinessError(env.Code, env.Message, &env)
		}
		ex.Envelope = &env
		return nil
	}
}
