package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestInitializeTransaction(t *testing.T) {
	var gotAuth string
	var gotBody InitializeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc123","access_code":"abc123","reference":"TF-1001"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_xyz", 5*time.Second)
	out, err := c.InitializeTransaction(context.Background(), InitializeRequest{
		Reference:  "TF-1001",
		Email:      "ada@example.com",
		AmountKobo: ToKobo(8500),
		Currency:   "NGN",
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if gotAuth != "Bearer sk_test_xyz" {
		t.Fatalf("missing bearer auth, got %q", gotAuth)
	}
	if gotBody.AmountKobo != 850000 {
		t.Fatalf("amount not converted to kobo: %d", gotBody.AmountKobo)
	}
	if out.AuthorizationURL != "https://checkout.paystack.com/abc123" || out.Reference != "TF-1001" {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestVerifyTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/TF-1001" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"id":987654,"status":"success","amount":850000,"currency":"NGN","reference":"TF-1001"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_xyz", 5*time.Second)
	out, err := c.VerifyTransaction(context.Background(), "TF-1001")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if out.Status != TxSuccess || out.AmountKobo != 850000 || out.TransactionID != "987654" {
		t.Fatalf("unexpected response: %+v", out)
	}
	if FromKobo(out.AmountKobo) != 8500 {
		t.Fatalf("kobo conversion drifted: %f", FromKobo(out.AmountKobo))
	}
}

func TestGatewayUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test_xyz", 5*time.Second)
	_, err := c.VerifyTransaction(context.Background(), "TF-1001")
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}

	// gateway-level status:false also counts as unavailable
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	}))
	defer srv2.Close()

	c2 := NewClient(srv2.URL, "sk_test_xyz", 5*time.Second)
	_, err = c2.VerifyTransaction(context.Background(), "TF-unknown")
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable for status:false, got %v", err)
	}

	// hung upstream must trip the client timeout
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()

	c3 := NewClient(slow.URL, "sk_test_xyz", 20*time.Millisecond)
	_, err = c3.VerifyTransaction(context.Background(), "TF-1001")
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable on timeout, got %v", err)
	}
}

func TestSignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"TF-1"}}`)
	sig := Signature(body, "whsec_test")
	if len(sig) != 128 {
		t.Fatalf("expected 128 hex chars for sha512 digest, got %d", len(sig))
	}
	if sig != Signature(body, "whsec_test") {
		t.Fatalf("signature not deterministic")
	}
	if sig == Signature(body, "other-secret") {
		t.Fatalf("signature ignores the secret")
	}
	if sig == Signature([]byte(`{"event":"charge.success","data":{"reference":"TF-2"}}`), "whsec_test") {
		t.Fatalf("signature ignores the body")
	}
}

func TestKoboConversion(t *testing.T) {
	if ToKobo(8500) != 850000 {
		t.Fatalf("ToKobo(8500) = %d", ToKobo(8500))
	}
	if ToKobo(99.99) != 9999 {
		t.Fatalf("ToKobo(99.99) = %d", ToKobo(99.99))
	}
	if FromKobo(9999) != 99.99 {
		t.Fatalf("FromKobo(9999) = %f", FromKobo(9999))
	}
}
