package client

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/zcc135820/reqpipe/internal/util"
)

// redactedFields lists top-level JSON body fields masked before logging.
var redactedFields = []string{"password", "token", "refresh_token", "access_token", "secret"}

// LogHook reports pipeline events through logrus. Request bodies are logged at debug level
// with credential fields masked.
type LogHook struct {
	Logger *log.Logger
}

// NewLogHook returns a hook writing to the standard logrus logger.
func NewLogHook() *LogHook {
	return &LogHook{Logger: log.StandardLogger()}
}

func (h *LogHook) entry(info *CallInfo) *log.Entry {
	logger := h.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return logger.WithField("request_id", shortRequestID(info.RequestID))
}

// OnRequestStart implements Hook.
func (h *LogHook) OnRequestStart(_ context.Context, info *CallInfo) {
	entry := h.entry(info)
	if len(info.Body) > 0 && entry.Logger.IsLevelEnabled(log.DebugLevel) {
		entry.Debugf("request started: %s %s body=%s", info.Method, util.MaskURL(info.URL), RedactBody(info.Body))
		return
	}
	entry.Debugf("request started: %s %s", info.Method, util.MaskURL(info.URL))
}

// OnRequestEnd implements Hook.
func (h *LogHook) OnRequestEnd(_ context.Context, info *CallInfo) {
	latency := time.Since(info.Started).Truncate(time.Millisecond)
	h.entry(info).Debugf("request completed: %s %s status=%d latency=%v", info.Method, util.MaskURL(info.URL), info.Status, latency)
}

// OnError implements Hook.
func (h *LogHook) OnError(_ context.Context, info *CallInfo, err *Error) {
	h.entry(info).Errorf("%s %s failed: %v", info.Method, util.MaskURL(info.URL), err)
}

// RedactBody masks credential fields in a JSON body. Non-JSON input is returned unchanged.
func RedactBody(body []byte) []byte {
	if !gjson.ValidBytes(body) {
		return body
	}
	out := append([]byte(nil), body...)
	for _, field := range redactedFields {
		if !gjson.GetBytes(out, field).Exists() {
			continue
		}
		updated, err := sjson.SetBytes(out, field, "******")
		if err != nil {
			continue
		}
		out = updated
	}
	return out
}

func shortRequestID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
