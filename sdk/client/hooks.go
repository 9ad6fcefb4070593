package client

import (
	"context"
	"time"
)

// CallInfo describes the call a hook is notified about.
type CallInfo struct {
	// RequestID is the value sent in the X-Request-Id header.
	RequestID string
	Method    string
	URL       string
	// Body is the encoded JSON request body, if any. Multipart bodies are not exposed.
	Body []byte
	// Status is the HTTP status, zero when no response was received.
	Status int
	// Started records when the call was issued.
	Started time.Time
}

// Hook receives notifications emitted by the pipeline. Implementations must not block.
type Hook interface {
	OnRequestStart(ctx context.Context, info *CallInfo)
	OnRequestEnd(ctx context.Context, info *CallInfo)
	OnError(ctx context.Context, info *CallInfo, err *Error)
}

// HookFunc aggregates optional hook implementations.
type HookFunc struct {
	Start func(context.Context, *CallInfo)
	End   func(context.Context, *CallInfo)
	Error func(context.Context, *CallInfo, *Error)
}

// OnRequestStart implements Hook.
func (h HookFunc) OnRequestStart(ctx context.Context, info *CallInfo) {
	if h.Start != nil {
		h.Start(ctx, info)
	}
}

// OnRequestEnd implements Hook.
func (h HookFunc) OnRequestEnd(ctx context.Context, info *CallInfo) {
	if h.End != nil {
		h.End(ctx, info)
	}
}

// OnError implements Hook.
func (h HookFunc) OnError(ctx context.Context, info *CallInfo, err *Error) {
	if h.Error != nil {
		h.Error(ctx, info, err)
	}
}

type hookSet []Hook

func (hs hookSet) start(ctx context.Context, ro *RequestOptions, info *CallInfo) {
	if !ro.ShowLoading {
		return
	}
	for _, h := range hs {
		h.OnRequestStart(ctx, info)
	}
}

func (hs hookSet) end(ctx context.Context, ro *RequestOptions, info *CallInfo) {
	if !ro.ShowLoading {
		return
	}
	for _, h := range hs {
		h.OnRequestEnd(ctx, info)
	}
}

func (hs hookSet) fail(ctx context.Context, ro *RequestOptions, info *CallInfo, err *Error) {
	if !ro.ShowError || err == nil {
		return
	}
	for _, h := range hs {
		h.OnError(ctx, info, err)
	}
}
