package lalamove

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/goliatone/go-delivery-relay/auth"
	"github.com/goliatone/go-delivery-relay/core"
	"github.com/goliatone/go-delivery-relay/transport"
)

const ProviderID = "lalamove"

const MessageOrderIDRequired = "orderId is required"

const (
	PathQuotations = "/v3/quotations"
	PathOrders     = "/v3/orders"
)

const (
	OperationQuote        = "provider_quote"
	OperationCreateOrder  = "provider_create_order"
	OperationOrderStatus  = "provider_order_status"
	OperationDriverStatus = "provider_driver_status"
)

const (
	HeaderMarket    = "Market"
	HeaderRequestID = "Request-ID"
)

type Option func(*Client)

func WithTransport(adapter core.TransportAdapter) Option {
	return func(c *Client) {
		if adapter != nil {
			c.transport = adapter
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.observer.Logger = logger
		}
	}
}

func WithMetrics(metrics core.MetricsRecorder) Option {
	return func(c *Client) {
		if metrics != nil {
			c.observer.Metrics = metrics
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func WithRequestIDs(next func() string) Option {
	return func(c *Client) {
		if next != nil {
			c.requestID = next
		}
	}
}

// Client performs signed calls against one provider market. Credentials are
// bound at construction.
type Client struct {
	baseURL   string
	market    string
	language  string
	timeout   time.Duration
	transport core.TransportAdapter
	observer  core.Observer
	now       func() time.Time
	requestID func() string
	signer    *auth.HMACSigner
}

func NewClient(cfg core.ProviderConfig, opts ...Option) *Client {
	client := &Client{
		baseURL:   strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		market:    strings.TrimSpace(cfg.Market),
		language:  strings.TrimSpace(cfg.Language),
		timeout:   cfg.Timeout,
		transport: transport.NewRESTAdapter(nil),
		observer:  core.Observer{Metrics: core.NopMetricsRecorder{}},
		now:       time.Now,
		requestID: uuid.NewString,
	}
	if client.language == "" {
		client.language = core.DefaultLanguage
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	client.signer = auth.NewHMACSigner(auth.HMACSignerConfig{
		AccessKey: cfg.APIKey,
		Secret:    cfg.Secret,
		Now:       client.now,
	})
	return client
}

// Quote requests a quotation. A request with fewer than two stops is rejected
// before any outbound call.
func (c *Client) Quote(ctx context.Context, req QuotationRequest) (core.TransportResponse, error) {
	if err := req.Validate(); err != nil {
		return core.TransportResponse{}, err
	}
	return c.send(ctx, OperationQuote, http.MethodPost, PathQuotations, buildQuotation(req, c.language))
}

func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (core.TransportResponse, error) {
	if err := req.Validate(); err != nil {
		return core.TransportResponse{}, err
	}
	return c.send(ctx, OperationCreateOrder, http.MethodPost, PathOrders, buildOrder(req))
}

func (c *Client) OrderStatus(ctx context.Context, orderID string) (core.TransportResponse, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return core.TransportResponse{}, core.BadInput(MessageOrderIDRequired, nil)
	}
	return c.send(ctx, OperationOrderStatus, http.MethodGet, OrderPath(orderID), nil)
}

// DriverStatus only rejects the call when both identifiers are missing.
func (c *Client) DriverStatus(ctx context.Context, orderID string, driverID string) (core.TransportResponse, error) {
	orderID = strings.TrimSpace(orderID)
	driverID = strings.TrimSpace(driverID)
	if orderID == "" && driverID == "" {
		return core.TransportResponse{}, core.BadInput(MessageOrderIDRequired, nil)
	}
	return c.send(ctx, OperationDriverStatus, http.MethodGet, DriverPath(orderID, driverID), nil)
}

func OrderPath(orderID string) string {
	return PathOrders + "/" + url.PathEscape(orderID)
}

func DriverPath(orderID string, driverID string) string {
	return OrderPath(orderID) + "/drivers/" + url.PathEscape(driverID)
}

func (c *Client) send(ctx context.Context, operation string, method string, path string, body any) (res core.TransportResponse, err error) {
	if c == nil || c.transport == nil {
		return core.TransportResponse{}, core.Internal("lalamove: client is not configured", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	payload, err := auth.CanonicalBody(body)
	if err != nil {
		return core.TransportResponse{}, core.WrapError(
			err,
			goerrors.CategoryBadInput,
			"lalamove: encode request body",
			http.StatusBadRequest,
			map[string]any{"operation": operation},
		)
	}
	signed := c.signer.Sign(method, path, payload)
	requestID := c.requestID()
	headers := map[string]string{
		"Content-Type":  "application/json",
		"Accept":        "application/json",
		"Authorization": signed.Authorization,
		HeaderMarket:    c.market,
		HeaderRequestID: requestID,
	}

	startedAt := time.Now()
	defer func() {
		fields := map[string]any{
			"provider":   ProviderID,
			"method":     signed.Method,
			"path":       path,
			"request_id": requestID,
		}
		status := "error"
		if err == nil {
			fields["status_code"] = res.StatusCode
			status = core.StatusClass(res.StatusCode)
		} else {
			fields["headers"] = core.RedactHeaders(headers)
		}
		tags := map[string]string{"operation": operation, "status": status}
		c.observer.Count(ctx, core.MetricProviderRequests, tags)
		c.observer.Observe(ctx, core.MetricProviderRequestDuration, time.Since(startedAt).Seconds(), map[string]string{"operation": operation})
		c.observer.Operation(ctx, startedAt, operation, err, fields)
	}()

	res, err = c.transport.Do(ctx, core.TransportRequest{
		Method:  signed.Method,
		URL:     c.baseURL + path,
		Headers: headers,
		Body:    signed.Body,
		Timeout: c.timeout,
	})
	return res, err
}
