package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const authorizationScheme = "hmac"

type HMACSignerConfig struct {
	AccessKey string
	Secret    string
	Now       func() time.Time
}

// HMACSigner holds the provider credentials injected at startup.
type HMACSigner struct {
	accessKey string
	secret    string
	now       func() time.Time
}

// SignedRequest is the ephemeral result of signing one outbound call.
type SignedRequest struct {
	Method        string
	Path          string
	Body          []byte
	Timestamp     string
	Signature     string
	Authorization string
}

// NewHMACSigner uses the credentials verbatim. Trimming belongs to config
// loading so the access key and secret are treated alike.
func NewHMACSigner(cfg HMACSignerConfig) *HMACSigner {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &HMACSigner{
		accessKey: cfg.AccessKey,
		secret:    cfg.Secret,
		now:       now,
	}
}

func (s *HMACSigner) AccessKey() string {
	if s == nil {
		return ""
	}
	return s.accessKey
}

// Sign signs body exactly as it will be written on the wire, stamped with the
// signer clock.
func (s *HMACSigner) Sign(method string, path string, body []byte) SignedRequest {
	return s.SignAt(method, path, body, s.clock())
}

func (s *HMACSigner) SignAt(method string, path string, body []byte, at time.Time) SignedRequest {
	method = strings.ToUpper(strings.TrimSpace(method))
	timestamp := Timestamp(at)
	canonical := CanonicalString(timestamp, method, path, body)
	signature := Signature(s.secretValue(), canonical)
	return SignedRequest{
		Method:        method,
		Path:          path,
		Body:          append([]byte(nil), body...),
		Timestamp:     timestamp,
		Signature:     signature,
		Authorization: AuthorizationHeader(s.AccessKey(), timestamp, signature),
	}
}

func (s *HMACSigner) clock() time.Time {
	if s == nil || s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *HMACSigner) secretValue() string {
	if s == nil {
		return ""
	}
	return s.secret
}

// Timestamp renders at as milliseconds since the Unix epoch.
func Timestamp(at time.Time) string {
	return strconv.FormatInt(at.UnixMilli(), 10)
}

func CanonicalString(timestamp string, method string, path string, body []byte) string {
	var builder strings.Builder
	builder.Grow(len(timestamp) + len(method) + len(path) + len(body) + 8)
	builder.WriteString(timestamp)
	builder.WriteString("\r\n")
	builder.WriteString(strings.ToUpper(method))
	builder.WriteString("\r\n")
	builder.WriteString(path)
	builder.WriteString("\r\n\r\n")
	builder.Write(body)
	return builder.String()
}

// Signature is the lowercase hex HMAC-SHA256 of canonical under secret.
func Signature(secret string, canonical string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

func AuthorizationHeader(accessKey string, timestamp string, signature string) string {
	return fmt.Sprintf("%s %s:%s:%s", authorizationScheme, accessKey, timestamp, signature)
}

// Sign is the stateless form of the scheme, stamped at the given instant.
func Sign(method string, path string, body []byte, secret string, accessKey string, at time.Time) string {
	signer := NewHMACSigner(HMACSignerConfig{AccessKey: accessKey, Secret: secret})
	return signer.SignAt(method, path, body, at).Authorization
}

// CanonicalBody returns the exact wire bytes for body. Strings and byte slices
// pass through untouched, nil becomes the empty body, and structured values
// are JSON encoded in declaration order without HTML escaping.
func CanonicalBody(body any) ([]byte, error) {
	switch typed := body.(type) {
	case nil:
		return []byte{}, nil
	case string:
		return []byte(typed), nil
	case []byte:
		return append([]byte(nil), typed...), nil
	case json.RawMessage:
		return append([]byte(nil), typed...), nil
	}
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(body); err != nil {
		return nil, fmt.Errorf("auth: encode request body: %w", err)
	}
	return bytes.TrimSuffix(buffer.Bytes(), []byte("\n")), nil
}
