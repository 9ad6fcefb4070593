package client

import (
	"encoding/json"
	"fmt"
)

// Envelope is the uniform wrapper every backend response conforms to.
type Envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
	Success bool   `json:"success"`
}

// RawEnvelope keeps the data member undecoded until the caller picks a type.
type RawEnvelope = Envelope[json.RawMessage]

// Decode re-types a raw envelope. A missing or null data member leaves Data at its zero value.
func Decode[T any](raw *RawEnvelope) (*Envelope[T], error) {
	if raw == nil {
		return nil, fmt.Errorf("client: envelope is nil")
	}
	out := &Envelope[T]{
		Code:    raw.Code,
		Message: raw.Message,
		Success: raw.Success,
	}
	if len(raw.Data) == 0 || string(raw.Data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(raw.Data, &out.Data); err != nil {
		return nil, fmt.Errorf("client: decode envelope data: %w", err)
	}
	return out, nil
}
