package model

import "encoding/json"

// Envelope is the transport wrapper around every Admin API response body.
type Envelope[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	Success *bool  `json:"success,omitempty"`
}

// RawEnvelope keeps data undecoded until the caller picks a target type.
type RawEnvelope = Envelope[json.RawMessage]

// ErrorBody is what the Admin API returns alongside a 4xx/5xx status.
// Validation failures follow the problem-details shape: errors{field: [msg]}.
type ErrorBody struct {
	Message string              `json:"message,omitempty"`
	Title   string              `json:"title,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Success *bool               `json:"success,omitempty"`
}

// Text returns the most specific human message in the body.
func (b ErrorBody) Text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Title
}

func Bool(v bool) *bool { return &v }
