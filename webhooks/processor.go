package webhooks

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-delivery-relay/core"
)

const (
	OutcomeProcessed      = "processed"
	OutcomeFailed         = "failed"
	OutcomeSkipped        = "skipped"
	OutcomeDuplicate      = "duplicate"
	OutcomeRejected       = "rejected"
	OutcomeInvalidPayload = "invalid_payload"
	OutcomePanicked       = "panicked"
)

const DefaultProviderID = "lalamove"

type ProcessorOption func(*Processor)

func WithVerifier(verifier Verifier) ProcessorOption {
	return func(p *Processor) {
		p.verifier = verifier
	}
}

func WithLedger(ledger core.WebhookLedger) ProcessorOption {
	return func(p *Processor) {
		p.ledger = ledger
	}
}

func WithProcessorLogger(logger core.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.observer.Logger = logger
		}
	}
}

func WithProcessorMetrics(metrics core.MetricsRecorder) ProcessorOption {
	return func(p *Processor) {
		if metrics != nil {
			p.observer.Metrics = metrics
		}
	}
}

// Processor is the error boundary around reconciliation. Every call returns an
// accepted 200 result; failures are logged and counted only.
type Processor struct {
	providerID string
	dispatcher core.TaskDispatcher
	verifier   Verifier
	ledger     core.WebhookLedger
	observer   core.Observer
}

func NewProcessor(dispatcher core.TaskDispatcher, opts ...ProcessorOption) *Processor {
	processor := &Processor{
		providerID: DefaultProviderID,
		dispatcher: dispatcher,
		observer:   core.Observer{Metrics: core.NopMetricsRecorder{}},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(processor)
		}
	}
	return processor
}

func (p *Processor) Process(ctx context.Context, req core.InboundRequest) (result core.InboundResult) {
	if ctx == nil {
		ctx = context.Background()
	}
	// Reconciliation must outlive a disconnecting caller.
	ctx = context.WithoutCancel(ctx)

	providerID := strings.TrimSpace(req.ProviderID)
	if providerID == "" && p != nil {
		providerID = p.providerID
	}
	result = acknowledged(providerID)
	observer := core.Observer{}
	if p != nil {
		observer = p.observer
	}
	event := core.WebhookEvent{}
	outcome := OutcomeProcessed

	defer func() {
		if recovered := recover(); recovered != nil {
			outcome = OutcomePanicked
			observer.Error(ctx, "webhook processing panicked", map[string]any{
				"provider_id": providerID,
				"order_id":    event.OrderID,
				"panic":       fmt.Sprint(recovered),
			})
			result = acknowledged(providerID)
		}
		result.Metadata["outcome"] = outcome
		if event.OrderID != "" {
			result.Metadata["order_id"] = event.OrderID
		}
		observer.Count(ctx, core.MetricWebhookEvents, map[string]string{
			"event_type": metricEventType(event.Status),
			"outcome":    outcome,
		})
	}()

	if p == nil || p.dispatcher == nil {
		outcome = OutcomeFailed
		return result
	}

	_, decoded, err := DecodeEnvelope(req.Body)
	event = decoded
	if err != nil && event.OrderID == "" {
		outcome = OutcomeInvalidPayload
		p.observer.Warn(ctx, "webhook payload could not be decoded", map[string]any{
			"provider_id": providerID,
			"error":       err.Error(),
		})
		return result
	}

	p.observer.Info(ctx, "webhook received", map[string]any{
		"provider_id": providerID,
		"event_id":    event.EventID,
		"event_type":  event.EventType,
		"order_id":    event.OrderID,
		"status":      event.Status,
		"has_driver":  event.HasDriver(),
	})

	if event.OrderID == "" {
		outcome = OutcomeSkipped
		p.observer.Info(ctx, "webhook missing orderId", map[string]any{"provider_id": providerID})
		return result
	}

	if p.verifier != nil {
		if err := p.verifier.Verify(ctx, req); err != nil {
			outcome = OutcomeRejected
			p.observer.Warn(ctx, "webhook signature rejected", map[string]any{
				"provider_id": providerID,
				"order_id":    event.OrderID,
				"error":       err.Error(),
			})
			return result
		}
	}

	claimID, proceed := p.claim(ctx, providerID, event, req.Body)
	if !proceed {
		outcome = OutcomeDuplicate
		return result
	}

	startedAt := time.Now()
	err = p.dispatcher.Dispatch(ctx, event)
	p.settle(ctx, claimID, err)
	if err != nil {
		outcome = OutcomeFailed
		p.observer.Error(ctx, "webhook reconciliation failed", map[string]any{
			"provider_id": providerID,
			"order_id":    event.OrderID,
			"status":      event.Status,
			"duration_ms": time.Since(startedAt).Milliseconds(),
			"error":       err.Error(),
		})
	}
	return result
}

// claim records the event in the ledger when it carries an event id. A ledger
// failure does not block reconciliation.
func (p *Processor) claim(ctx context.Context, providerID string, event core.WebhookEvent, body []byte) (string, bool) {
	if p.ledger == nil || event.EventID == "" {
		return "", true
	}
	delivery, claimed, err := p.ledger.Claim(ctx, providerID, event.EventID, body)
	if err != nil {
		p.observer.Warn(ctx, "webhook ledger claim failed", map[string]any{
			"provider_id": providerID,
			"event_id":    event.EventID,
			"error":       err.Error(),
		})
		return "", true
	}
	if !claimed {
		p.observer.Info(ctx, "webhook event already processed", map[string]any{
			"provider_id": providerID,
			"event_id":    event.EventID,
			"ledger_id":   delivery.ID,
		})
		return "", false
	}
	return delivery.ID, true
}

func (p *Processor) settle(ctx context.Context, claimID string, cause error) {
	if p.ledger == nil || claimID == "" {
		return
	}
	var err error
	if cause != nil {
		err = p.ledger.Fail(ctx, claimID, cause)
	} else {
		err = p.ledger.Complete(ctx, claimID)
	}
	if err != nil {
		p.observer.Warn(ctx, "webhook ledger update failed", map[string]any{
			"ledger_id": claimID,
			"error":     err.Error(),
		})
	}
}

func acknowledged(providerID string) core.InboundResult {
	return core.InboundResult{
		Accepted:   true,
		StatusCode: http.StatusOK,
		Metadata:   map[string]any{"provider_id": providerID},
	}
}

func metricEventType(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return "unknown"
	}
	if _, ok := statusTable[status]; ok {
		return status
	}
	return "other"
}
