package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Request is a platform-agnostic inbound request. The HTTP and Lambda
// adapters both translate their native input into this shape.
type Request struct {
	// ID is a unique identifier for the request, used for tracing.
	ID string `json:"id"`

	// Source identifies where the request came from (http, lambda, sqs).
	Source string `json:"source"`

	// Type identifies the kind of work requested (e.g. "download").
	Type string `json:"type"`

	// Payload contains the request data as raw JSON.
	Payload json.RawMessage `json:"payload"`

	// Metadata carries additional context such as transport headers.
	Metadata map[string]string `json:"metadata,omitempty"`

	// Timestamp is when the request was created.
	Timestamp time.Time `json:"timestamp"`
}

// Response is a platform-agnostic worker result.
type Response struct {
	// ID correlates with the request ID.
	ID string `json:"id"`

	// Success indicates whether processing succeeded.
	Success bool `json:"success"`

	// Data holds the result payload when Success is true.
	Data json.RawMessage `json:"data,omitempty"`

	// Error holds failure information when Success is false.
	Error *ErrorInfo `json:"error,omitempty"`

	// Metadata carries additional response context.
	Metadata map[string]string `json:"metadata,omitempty"`

	// ProcessedAt is when the response was produced.
	ProcessedAt time.Time `json:"processed_at"`

	// Duration of processing, set by the logging middleware.
	Duration time.Duration `json:"duration,omitempty"`
}

// ErrorInfo is structured failure information. The code never leaves the
// service; external surfaces collapse it into a message string.
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// NewRequest creates a request with a generated ID and timestamp.
func NewRequest(requestType string, payload interface{}) (Request, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return Request{}, err
	}
	return Request{
		ID:        uuid.New().String(),
		Type:      requestType,
		Payload:   payloadBytes,
		Metadata:  make(map[string]string),
		Timestamp: time.Now().UTC(),
	}, nil
}

// Unmarshal decodes the request payload into v.
func (r *Request) Unmarshal(v interface{}) error {
	return json.Unmarshal(r.Payload, v)
}

// NewErrorResponse creates a failure response.
func NewErrorResponse(id, code, message, details string) Response {
	return Response{
		ID:      id,
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
		ProcessedAt: time.Now().UTC(),
	}
}

// NewSuccessResponse creates a success response carrying data.
func NewSuccessResponse(id string, data interface{}) (Response, error) {
	resp := Response{
		ID:          id,
		Success:     true,
		ProcessedAt: time.Now().UTC(),
	}
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return Response{}, err
		}
		resp.Data = encoded
	}
	return resp, nil
}

// ErrorMessage flattens the response error into one human-readable string.
// This is what external callers see.
func (r *Response) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	if r.Error.Details != "" {
		return r.Error.Message + ": " + r.Error.Details
	}
	return r.Error.Message
}
