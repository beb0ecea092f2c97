package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-delivery-relay/auth"
)

func setProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LALAMOVE_API_KEY", "pk_test")
	t.Setenv("LALAMOVE_SECRET", "sk_test")
	t.Setenv("DATABASE_DSN", fmt.Sprintf("file:relay-cli-%d?mode=memory&cache=shared", time.Now().UnixNano()))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSignPrintsAuthorizationHeader(t *testing.T) {
	setProviderEnv(t)

	out, err := run(t, "sign", "--method", "post", "--path", "/v3/quotations", "--body", `{"data":{}}`, "--timestamp", "1700000000000")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	want := auth.Sign("POST", "/v3/quotations", []byte(`{"data":{}}`), "sk_test", "pk_test", time.UnixMilli(1700000000000))
	if strings.TrimSpace(out) != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
	if !strings.HasPrefix(want, "hmac pk_test:1700000000000:") {
		t.Fatalf("unexpected header shape %q", want)
	}
}

func TestSignRequiresPath(t *testing.T) {
	setProviderEnv(t)
	if _, err := run(t, "sign"); err == nil {
		t.Fatalf("expected missing --path error")
	}
}

func TestSchemaAppliesMigrations(t *testing.T) {
	setProviderEnv(t)

	out, err := run(t, "schema")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if !strings.Contains(out, "migrations applied (sqlite3)") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestStatusRequiresOrderID(t *testing.T) {
	setProviderEnv(t)
	if _, err := run(t, "status"); err == nil {
		t.Fatalf("expected missing --order-id error")
	}
}
