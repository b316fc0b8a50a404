// Package lambda runs the download worker on AWS Lambda. Events arrive
// either as a direct handler.Request invocation or as an SQS batch whose
// message bodies are download payloads.
package lambda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/trimedia/tri-zvuk/internal/config"
	"github.com/trimedia/tri-zvuk/internal/handler"
)

// Adapter bridges Lambda events to the handler.
type Adapter struct {
	handler *handler.Handler
	config  config.LambdaConfig
}

// NewAdapter creates a Lambda adapter.
func NewAdapter(h *handler.Handler, cfg config.LambdaConfig) *Adapter {
	return &Adapter{handler: h, config: cfg}
}

// Start hands control to the Lambda runtime. It does not return.
func (a *Adapter) Start() error {
	lambda.Start(a.handleEvent)
	return nil
}

func (a *Adapter) handleEvent(ctx context.Context, event json.RawMessage) (interface{}, error) {
	var sqsEvent events.SQSEvent
	if err := json.Unmarshal(event, &sqsEvent); err == nil && len(sqsEvent.Records) > 0 {
		return a.handleSQSEvent(ctx, sqsEvent)
	}

	var req handler.Request
	if err := json.Unmarshal(event, &req); err == nil && len(req.Payload) > 0 {
		return a.handler.Handle(ctx, req)
	}

	return nil, fmt.Errorf("unsupported event type")
}

func (a *Adapter) handleSQSEvent(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	response := events.SQSEventResponse{
		BatchItemFailures: []events.SQSBatchItemFailure{},
	}

	for _, record := range event.Records {
		req := sqsMessageToRequest(record)

		resp, err := a.handler.Handle(ctx, req)
		if err != nil || !resp.Success {
			if a.config.EnablePartialBatchFailure {
				response.BatchItemFailures = append(response.BatchItemFailures,
					events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
				continue
			}
			return response, err
		}
	}

	return response, nil
}

func sqsMessageToRequest(record events.SQSMessage) handler.Request {
	metadata := make(map[string]string)
	for key, attr := range record.MessageAttributes {
		if attr.StringValue != nil {
			metadata[key] = *attr.StringValue
		}
	}
	metadata["sqs_message_id"] = record.MessageId

	var payload json.RawMessage
	if json.Valid([]byte(record.Body)) {
		payload = json.RawMessage(record.Body)
	} else {
		payload, _ = json.Marshal(record.Body)
	}

	return handler.Request{
		ID:        record.MessageId,
		Source:    "sqs",
		Type:      "download",
		Payload:   payload,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
}
