package webhooks

import (
	"context"
	"crypto/hmac"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-delivery-relay/auth"
	"github.com/goliatone/go-delivery-relay/core"
)

type Verifier interface {
	Verify(ctx context.Context, req core.InboundRequest) error
}

// PayloadSignatureVerifier checks the signature embedded in the callback
// envelope. It is computed with the outbound signing scheme over
// timestamp, POST, the webhook path and the raw data object.
type PayloadSignatureVerifier struct {
	AccessKey string
	Secret    string
	Path      string
}

func (v PayloadSignatureVerifier) Verify(_ context.Context, req core.InboundRequest) error {
	if strings.TrimSpace(v.Secret) == "" {
		return fmt.Errorf("webhooks: signature secret is required")
	}
	envelope, _, err := DecodeEnvelope(req.Body)
	if err != nil {
		return err
	}
	if key := strings.TrimSpace(v.AccessKey); key != "" && strings.TrimSpace(envelope.APIKey) != key {
		return fmt.Errorf("webhooks: api key mismatch")
	}
	timestamp := strings.TrimSpace(string(envelope.Timestamp))
	signature := strings.TrimSpace(envelope.Signature)
	if timestamp == "" || signature == "" {
		return fmt.Errorf("webhooks: timestamp and signature are required")
	}

	path := strings.TrimSpace(v.Path)
	if path == "" {
		path = core.DefaultWebhookPath
	}
	canonical := auth.CanonicalString(timestamp, http.MethodPost, path, envelope.Data)
	expected := auth.Signature(v.Secret, canonical)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return fmt.Errorf("webhooks: signature verification failed")
	}
	return nil
}
