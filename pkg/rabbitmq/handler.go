package rabbitmq

import (
	"context"
	"encoding/json"

	"watchpost/internals/modules/status"

	"github.com/rabbitmq/amqp091-go"
)

type ResultSink interface {
	Submit(res status.CheckResult)
}

// EventHandler decodes check-result deliveries and feeds them to the
// ingestion pipeline. Unknown event types are acked and dropped so a
// shared exchange never wedges the queue.
type EventHandler struct {
	sink ResultSink
}

func NewEventHandler(sink ResultSink) *EventHandler {
	return &EventHandler{
		sink: sink,
	}
}

func (h *EventHandler) Handle(ctx context.Context, msg amqp091.Delivery) error {
	var event EventPayload
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return err
	}

	if event.Type != "check.result" {
		return nil // ignore unknown events
	}

	var payload CheckResultPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}

	h.sink.Submit(status.CheckResult{
		MonitorID:        payload.MonitorID,
		Region:           status.Region(payload.Region),
		Timestamp:        payload.Timestamp,
		LatencyMs:        payload.LatencyMs,
		StatusCode:       payload.StatusCode,
		Error:            payload.Error,
		AssertionsPassed: payload.AssertionsPassed,
	})
	return nil
}
