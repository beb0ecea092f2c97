package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

type captureLogger struct {
	infos  []string
	errors []string
	args   []any
}

func (l *captureLogger) Trace(string, ...any) {}
func (l *captureLogger) Debug(string, ...any) {}
func (l *captureLogger) Warn(string, ...any)  {}
func (l *captureLogger) Fatal(string, ...any) {}

func (l *captureLogger) Info(msg string, args ...any) {
	l.infos = append(l.infos, msg)
	l.args = append([]any(nil), args...)
}

func (l *captureLogger) Error(msg string, args ...any) {
	l.errors = append(l.errors, msg)
	l.args = append([]any(nil), args...)
}

func (l *captureLogger) WithContext(context.Context) Logger {
	return l
}

func TestObserver_OperationLogsFailureAndRedacts(t *testing.T) {
	logger := &captureLogger{}
	observer := Observer{Logger: logger, Metrics: NopMetricsRecorder{}}

	observer.Operation(context.Background(), time.Now(), "provider quote", errors.New("boom"), map[string]any{
		"authorization": "hmac key:1:sig",
		"path":          "/v3/quotations",
	})

	if len(logger.errors) != 1 || logger.errors[0] != "provider_quote failed" {
		t.Fatalf("expected failure log, got %#v", logger.errors)
	}
	for i := 0; i+1 < len(logger.args); i += 2 {
		if logger.args[i] == "authorization" && logger.args[i+1] != RedactedValue {
			t.Fatalf("expected authorization to be redacted, got %v", logger.args[i+1])
		}
	}
}

func TestRedactHeaders(t *testing.T) {
	redacted := RedactHeaders(map[string]string{
		"Authorization": "hmac key:1:sig",
		"Request-ID":    "req_1",
		"Market":        "PH",
	})
	if redacted["Authorization"] != RedactedValue {
		t.Fatalf("expected authorization redacted")
	}
	if redacted["Request-ID"] != "req_1" || redacted["Market"] != "PH" {
		t.Fatalf("expected non-sensitive headers to pass through: %#v", redacted)
	}
}

func TestStatusClass(t *testing.T) {
	if StatusClass(201) != "2xx" || StatusClass(422) != "4xx" || StatusClass(0) != "error" {
		t.Fatalf("unexpected status classes")
	}
}
