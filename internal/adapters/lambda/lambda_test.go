package lambda

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trimedia/tri-zvuk/internal/config"
	"github.com/trimedia/tri-zvuk/internal/handler"
	"github.com/trimedia/tri-zvuk/internal/observability"
)

type scriptedWorker struct {
	process func(ctx context.Context, req handler.Request) (handler.Response, error)
}

func (w *scriptedWorker) Name() string { return "scripted" }

func (w *scriptedWorker) Process(ctx context.Context, req handler.Request) (handler.Response, error) {
	return w.process(ctx, req)
}

func (w *scriptedWorker) Health(ctx context.Context) error { return nil }

func newTestAdapter(worker handler.Worker, partialBatch bool) *Adapter {
	cfg := config.HandlerConfig{Timeout: time.Second, MaxRequestSize: 1 << 20}
	h := handler.NewFactory(worker, observability.NewNopProvider(), cfg).Create()
	return NewAdapter(h, config.LambdaConfig{EnablePartialBatchFailure: partialBatch})
}

func sqsRecord(id, body string) events.SQSMessage {
	return events.SQSMessage{MessageId: id, Body: body}
}

const downloadBody = `{"id":"123","hash":"abc","auth_cookie":"session=x"}`

func TestHandleEvent_DirectInvocation(t *testing.T) {
	worker := &scriptedWorker{
		process: func(ctx context.Context, req handler.Request) (handler.Response, error) {
			return handler.Response{ID: req.ID, Success: true}, nil
		},
	}
	adapter := newTestAdapter(worker, true)

	event, err := json.Marshal(handler.Request{
		ID:      "req-1",
		Type:    "download",
		Payload: json.RawMessage(downloadBody),
	})
	require.NoError(t, err)

	result, err := adapter.handleEvent(context.Background(), event)
	require.NoError(t, err)

	resp, ok := result.(handler.Response)
	require.True(t, ok)
	assert.True(t, resp.Success)
}

func TestHandleEvent_Unsupported(t *testing.T) {
	adapter := newTestAdapter(&scriptedWorker{
		process: func(ctx context.Context, req handler.Request) (handler.Response, error) {
			return handler.Response{Success: true}, nil
		},
	}, true)

	_, err := adapter.handleEvent(context.Background(), json.RawMessage(`{"unrelated": true}`))
	assert.Error(t, err)
}

func TestHandleSQSEvent(t *testing.T) {
	t.Run("all records succeed", func(t *testing.T) {
		worker := &scriptedWorker{
			process: func(ctx context.Context, req handler.Request) (handler.Response, error) {
				return handler.Response{ID: req.ID, Success: true}, nil
			},
		}
		adapter := newTestAdapter(worker, true)

		resp, err := adapter.handleSQSEvent(context.Background(), events.SQSEvent{
			Records: []events.SQSMessage{
				sqsRecord("msg-1", downloadBody),
				sqsRecord("msg-2", downloadBody),
			},
		})
		require.NoError(t, err)
		assert.Empty(t, resp.BatchItemFailures)
	})

	t.Run("failed records are reported for retry", func(t *testing.T) {
		worker := &scriptedWorker{
			process: func(ctx context.Context, req handler.Request) (handler.Response, error) {
				var payload map[string]string
				_ = json.Unmarshal(req.Payload, &payload)
				if payload["id"] == "bad" {
					return handler.NewErrorResponse(req.ID, "FETCH_FAILED", "download failed", ""), nil
				}
				return handler.Response{ID: req.ID, Success: true}, nil
			},
		}
		adapter := newTestAdapter(worker, true)

		resp, err := adapter.handleSQSEvent(context.Background(), events.SQSEvent{
			Records: []events.SQSMessage{
				sqsRecord("msg-1", downloadBody),
				sqsRecord("msg-2", `{"id":"bad","hash":"abc","auth_cookie":"session=x"}`),
			},
		})
		require.NoError(t, err)
		require.Len(t, resp.BatchItemFailures, 1)
		assert.Equal(t, "msg-2", resp.BatchItemFailures[0].ItemIdentifier)
	})
}

func TestSQSMessageToRequest(t *testing.T) {
	attr := "trace-abc"
	record := events.SQSMessage{
		MessageId: "msg-1",
		Body:      downloadBody,
		MessageAttributes: map[string]events.SQSMessageAttribute{
			"trace_id": {StringValue: &attr},
		},
	}

	req := sqsMessageToRequest(record)

	assert.Equal(t, "msg-1", req.ID)
	assert.Equal(t, "sqs", req.Source)
	assert.Equal(t, "download", req.Type)
	assert.JSONEq(t, downloadBody, string(req.Payload))
	assert.Equal(t, "trace-abc", req.Metadata["trace_id"])
	assert.Equal(t, "msg-1", req.Metadata["sqs_message_id"])
}
