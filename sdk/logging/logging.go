// Package logging re-exports the log setup used by reqpipe for SDK consumers that want the
// same output format.
package logging

import internallogging "github.com/zcc135820/reqpipe/internal/logging"

// LogFormatter renders logrus entries with timestamp, request ID and caller.
type LogFormatter = internallogging.LogFormatter

// SetupBaseLogger installs LogFormatter on the standard logrus logger.
func SetupBaseLogger() { internallogging.SetupBaseLogger() }

// WithRequestID returns ctx carrying requestID for log correlation.
var WithRequestID = internallogging.WithRequestID

// GetRequestID returns the request ID carried by ctx.
var GetRequestID = internallogging.GetRequestID
