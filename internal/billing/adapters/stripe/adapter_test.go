package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/foundify/foundify/internal/billing/domain"
	"github.com/foundify/foundify/internal/config"
	"go.uber.org/zap"
)

const testSecret = "whsec_test"

// signedHeaders signs with the wall clock; ConstructEvent rejects
// signature timestamps outside its tolerance.
func signedHeaders(t *testing.T, payload []byte) http.Header {
	t.Helper()
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(timestamp + "." + string(payload)))
	headers := http.Header{}
	headers.Set("Stripe-Signature", fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil))))
	return headers
}

func newTestAdapter(t *testing.T) domain.Adapter {
	t.Helper()
	return NewAdapter(Params{
		Log: zap.NewNop(),
		Cfg: config.Config{Stripe: config.StripeConfig{WebhookSecret: testSecret}},
	})
}

func eventJSON(eventType, object string, created time.Time) []byte {
	return []byte(fmt.Sprintf(
		`{"id":"evt_test_1","type":%q,"created":%d,"data":{"object":%s}}`,
		eventType, created.Unix(), object,
	))
}

func TestParseCheckoutSessionCompleted(t *testing.T) {
	adapter := newTestAdapter(t)
	created := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	payload := eventJSON(
		"checkout.session.completed",
		`{"id":"cs_test_1","customer":"cus_123","metadata":{"account_id":"acc_1"}}`,
		created,
	)

	event, err := adapter.Parse(context.Background(), payload, signedHeaders(t, payload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if event.ID != "evt_test_1" {
		t.Fatalf("ID = %q", event.ID)
	}
	if event.Type != domain.EventTypeCheckoutCompleted {
		t.Fatalf("Type = %q", event.Type)
	}
	if event.AccountID != "acc_1" {
		t.Fatalf("AccountID = %q", event.AccountID)
	}
	if event.CustomerRef != "cus_123" {
		t.Fatalf("CustomerRef = %q", event.CustomerRef)
	}
	if !event.OccurredAt.Equal(created) {
		t.Fatalf("OccurredAt = %v, want %v", event.OccurredAt, created)
	}
}

func TestParseEventTypeMapping(t *testing.T) {
	adapter := newTestAdapter(t)
	created := time.Now().UTC().Truncate(time.Second)
	cases := map[string]string{
		"invoice.payment_succeeded":     domain.EventTypeInvoicePaid,
		"invoice.payment_failed":        domain.EventTypeInvoiceFailed,
		"customer.subscription.deleted": domain.EventTypeSubscriptionCanceled,
	}
	for stripeType, want := range cases {
		payload := eventJSON(stripeType, `{"customer":"cus_123"}`, created)
		event, err := adapter.Parse(context.Background(), payload, signedHeaders(t, payload))
		if err != nil {
			t.Fatalf("%s: %v", stripeType, err)
		}
		if event.Type != want {
			t.Fatalf("%s mapped to %q, want %q", stripeType, event.Type, want)
		}
	}
}

func TestParseIgnoresUnrelatedEvents(t *testing.T) {
	adapter := newTestAdapter(t)
	created := time.Now().UTC()
	payload := eventJSON("customer.created", `{"id":"cus_123"}`, created)

	_, err := adapter.Parse(context.Background(), payload, signedHeaders(t, payload))
	if !errors.Is(err, domain.ErrEventIgnored) {
		t.Fatalf("err = %v, want ErrEventIgnored", err)
	}
}

func TestParseRejectsBadSignature(t *testing.T) {
	adapter := newTestAdapter(t)
	created := time.Now().UTC()
	payload := eventJSON("checkout.session.completed", `{"customer":"cus_123"}`, created)

	headers := http.Header{}
	headers.Set("Stripe-Signature", "t=123,v1=deadbeef")
	if _, err := adapter.Parse(context.Background(), payload, headers); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}

	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-2] = 'x'
	if _, err := adapter.Parse(context.Background(), tampered, signedHeaders(t, payload)); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("tampered payload: err = %v, want ErrInvalidSignature", err)
	}
}

func TestParseSubscriptionMetadataFallback(t *testing.T) {
	adapter := newTestAdapter(t)
	created := time.Now().UTC().Truncate(time.Second)
	payload := eventJSON(
		"invoice.payment_succeeded",
		`{"customer":"cus_123","subscription_details":{"metadata":{"account_id":"acc_9"}}}`,
		created,
	)

	event, err := adapter.Parse(context.Background(), payload, signedHeaders(t, payload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if event.AccountID != "acc_9" {
		t.Fatalf("AccountID = %q, want acc_9", event.AccountID)
	}
}

// The endpoint's pinned API version trails or leads the SDK's; a validly
// signed delivery must parse either way.
func TestParseToleratesAPIVersionMismatch(t *testing.T) {
	adapter := newTestAdapter(t)
	created := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	payload := []byte(fmt.Sprintf(
		`{"id":"evt_test_1","type":"checkout.session.completed","api_version":"2024-06-20","created":%d,"data":{"object":{"id":"cs_test_1","customer":"cus_123","metadata":{"account_id":"acc_1"}}}}`,
		created.Unix(),
	))

	event, err := adapter.Parse(context.Background(), payload, signedHeaders(t, payload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if event.Type != domain.EventTypeCheckoutCompleted || event.AccountID != "acc_1" {
		t.Fatalf("event = %+v", event)
	}
}
