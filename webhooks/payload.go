package webhooks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-delivery-relay/core"
)

// Envelope is the provider callback body. Data is kept raw because the
// payload signature covers its exact bytes.
type Envelope struct {
	APIKey       string          `json:"apiKey"`
	Timestamp    flexString      `json:"timestamp"`
	Signature    string          `json:"signature"`
	EventID      flexString      `json:"eventId"`
	EventType    string          `json:"eventType"`
	EventVersion string          `json:"eventVersion"`
	Data         json.RawMessage `json:"data"`
}

type envelopeData struct {
	Order *struct {
		OrderID flexString `json:"orderId"`
		Status  string     `json:"status"`
	} `json:"order"`
	Driver json.RawMessage `json:"driver"`
}

// driverValueKey holds a driver that arrived as a scalar or array.
const driverValueKey = "value"

// DecodeEnvelope parses body into the provider envelope and the event it
// carries. The lifecycle code is read from data.order.status.
func DecodeEnvelope(body []byte) (Envelope, core.WebhookEvent, error) {
	var envelope Envelope
	if len(bytes.TrimSpace(body)) == 0 {
		return envelope, core.WebhookEvent{}, fmt.Errorf("webhooks: empty payload")
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return envelope, core.WebhookEvent{}, fmt.Errorf("webhooks: decode envelope: %w", err)
	}

	event := core.WebhookEvent{
		EventID:   string(envelope.EventID),
		EventType: envelope.EventType,
	}
	if len(envelope.Data) == 0 || bytes.Equal(bytes.TrimSpace(envelope.Data), []byte("null")) {
		return envelope, event.Normalize(), nil
	}

	var data envelopeData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return envelope, event.Normalize(), fmt.Errorf("webhooks: decode envelope data: %w", err)
	}
	if data.Order != nil {
		event.OrderID = string(data.Order.OrderID)
		event.Status = data.Order.Status
	}
	event.Driver = decodeDriver(data.Driver)
	return envelope, event.Normalize(), nil
}

// decodeDriver keeps any driver value that is present and truthy. Objects are
// used as is; other values are stored under driverValueKey.
func decodeDriver(raw json.RawMessage) map[string]any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil
	}
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	case bool:
		if !v {
			return nil
		}
	case string:
		if v == "" {
			return nil
		}
	case float64:
		if v == 0 {
			return nil
		}
	}
	return map[string]any{driverValueKey: value}
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = ""
		return nil
	}
	if trimmed[0] == '"' {
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(value))
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return fmt.Errorf("webhooks: expected string or number, got %s", string(trimmed))
	}
	*s = flexString(number.String())
	return nil
}
