package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-delivery-relay/core"
	"github.com/goliatone/go-delivery-relay/providers/lalamove"
	"github.com/goliatone/go-delivery-relay/query"
	"github.com/goliatone/go-delivery-relay/webhooks"
)

const (
	messageInvalidJSON = "request body must be valid JSON"
	webhookAck         = "OK"
)

func (s *Server) handleQuotation(c *gin.Context) {
	var req lalamove.QuotationRequest
	if !s.bindJSON(c, &req) {
		return
	}
	res, err := s.provider.Quote(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	relay(c, res.StatusCode, res)
}

// handleCreateOrder answers a provider 200/201 with the provider body as a
// plain 200; any other status is relayed as-is.
func (s *Server) handleCreateOrder(c *gin.Context) {
	var req lalamove.OrderRequest
	if !s.bindJSON(c, &req) {
		return
	}
	res, err := s.provider.CreateOrder(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	status := res.StatusCode
	if lalamove.Succeeded(res) {
		status = http.StatusOK
	}
	relay(c, status, res)
}

func (s *Server) handleOrderStatus(c *gin.Context) {
	res, err := s.orderStatus.Query(c.Request.Context(), query.OrderStatusMessage{
		OrderID: c.Query("orderId"),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	relay(c, res.StatusCode, res)
}

func (s *Server) handleDriverStatus(c *gin.Context) {
	res, err := s.driverStatus.Query(c.Request.Context(), query.DriverStatusMessage{
		OrderID:  c.Query("orderId"),
		DriverID: c.Query("driverId"),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	relay(c, res.StatusCode, res)
}

// handleWebhook always answers 200 "OK". Read failures included: the
// processor treats a short body as an invalid payload.
func (s *Server) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes))
	if err != nil {
		s.logger.WithContext(c.Request.Context()).Warn("webhook body read failed",
			"error", err.Error(),
			"request_id", GetRequestID(c),
		)
	}
	result := s.webhooks.Process(c.Request.Context(), core.InboundRequest{
		ProviderID: webhooks.DefaultProviderID,
		Headers:    flattenHeaders(c.Request.Header),
		Body:       body,
		Metadata: map[string]any{
			"request_id": GetRequestID(c),
			"path":       c.Request.URL.Path,
		},
	})
	if outcome, ok := result.Metadata["outcome"].(string); ok {
		c.Header("X-Webhook-Outcome", outcome)
	}
	c.String(http.StatusOK, webhookAck)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.healthCheck != nil {
		if err := s.healthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) bindJSON(c *gin.Context, target any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)
	if err := c.ShouldBindJSON(target); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": messageInvalidJSON})
		return false
	}
	return true
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := core.HTTPStatus(err)
	message := http.StatusText(status)
	if mapped := core.MapError(err); mapped != nil && strings.TrimSpace(mapped.Message) != "" {
		message = mapped.Message
	}
	if status >= http.StatusInternalServerError {
		s.logger.WithContext(c.Request.Context()).Error("provider call failed",
			"error", err.Error(),
			"status", status,
			"request_id", GetRequestID(c),
		)
	}
	c.JSON(status, gin.H{"error": message})
}

// relay writes a provider response without reinterpreting it.
func relay(c *gin.Context, status int, res core.TransportResponse) {
	contentType := ""
	for key, value := range res.Headers {
		if strings.EqualFold(key, "Content-Type") {
			contentType = value
			break
		}
	}
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	if status <= 0 {
		status = http.StatusInternalServerError
	}
	c.Data(status, contentType, res.Body)
}

func flattenHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for key, values := range headers {
		if len(values) == 0 {
			continue
		}
		out[http.CanonicalHeaderKey(key)] = values[0]
	}
	return out
}
