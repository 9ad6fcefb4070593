package client

import (
	"bytes"
	"context"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

func TestRedactBody(t *testing.T) {
	in := []byte(`{"username":"admin","password":"hunter2","nested":{"token":"keep"}}`)
	out := RedactBody(in)
	if got := gjson.GetBytes(out, "password").String(); got != "******" {
		t.Fatalf("password = %q", got)
	}
	if got := gjson.GetBytes(out, "username").String(); got != "admin" {
		t.Fatalf("username = %q", got)
	}
	if got := gjson.GetBytes(out, "nested.token").String(); got != "keep" {
		t.Fatalf("nested token = %q", got)
	}
	if !strings.Contains(string(in), "hunter2") {
		t.Fatal("input was mutated")
	}
	if got := RedactBody([]byte("not json")); string(got) != "not json" {
		t.Fatalf("non-json = %q", got)
	}
}

func TestLogHookMasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New()
	logger.SetOutput(&buf)
	logger.SetLevel(log.DebugLevel)
	hook := &LogHook{Logger: logger}

	info := &CallInfo{
		RequestID: "0123456789abcdef",
		Method:    "POST",
		URL:       "http://host/api/auth/login?token=abcdefghijkl",
		Body:      []byte(`{"password":"hunter2"}`),
	}
	hook.OnRequestStart(context.Background(), info)
	hook.OnError(context.Background(), info, newHTTPError(403, "", nil))

	out := buf.String()
	if strings.Contains(out, "hunter2") || strings.Contains(out, "abcdefghijkl") {
		t.Fatalf("secret leaked into log: %s", out)
	}
	if !strings.Contains(out, "01234567") || !strings.Contains(out, msgForbidden) {
		t.Fatalf("unexpected log output: %s", out)
	}
}
