package booking

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"farberge/models"
	"farberge/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

type paymentCall struct {
	bookingID     string
	transactionID string
	amount        float64
}

type fakePayments struct {
	succeeded []paymentCall
	failed    []string
	err       error
}

func (f *fakePayments) CreateCheckout(context.Context, string, string) (*models.CheckoutSession, error) {
	return nil, nil
}

func (f *fakePayments) OnPaymentSucceeded(_ context.Context, bookingID, transactionID string, amount float64) error {
	f.succeeded = append(f.succeeded, paymentCall{bookingID, transactionID, amount})
	return f.err
}

func (f *fakePayments) OnPaymentFailed(_ context.Context, bookingID, _ string) {
	f.failed = append(f.failed, bookingID)
}

type memoryDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (d *memoryDeduper) Seen(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[id], nil
}

func (d *memoryDeduper) Mark(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[id] = true
	return nil
}

const webhookSecret = "whsec_test"

func newWebhook() (*StripeWebhook, *fakePayments) {
	payments := &fakePayments{}
	return &StripeWebhook{
		Secret:   webhookSecret,
		Payments: payments,
		Dedupe:   &memoryDeduper{seen: map[string]bool{}},
	}, payments
}

func sessionEvent(t *testing.T, id string, typ stripe.EventType, session map[string]interface{}) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(session)
	require.NoError(t, err)
	return stripe.Event{ID: id, Type: typ, Data: &stripe.EventData{Raw: raw}}
}

func paidSession() map[string]interface{} {
	return map[string]interface{}{
		"id":             "cs_1",
		"object":         "checkout.session",
		"payment_status": "paid",
		"amount_total":   4075,
		"payment_intent": "pi_123",
		"metadata":       map[string]string{"bookingId": "b1"},
	}
}

func TestWebhookAppliesPaidCheckout(t *testing.T) {
	w, payments := newWebhook()
	err := w.HandleEvent(context.Background(), sessionEvent(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, paidSession()))
	require.NoError(t, err)

	require.Len(t, payments.succeeded, 1)
	assert.Equal(t, paymentCall{"b1", "pi_123", 40.75}, payments.succeeded[0])
}

func TestWebhookIgnoresDuplicateEvents(t *testing.T) {
	w, payments := newWebhook()
	ev := sessionEvent(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, paidSession())

	require.NoError(t, w.HandleEvent(context.Background(), ev))
	require.NoError(t, w.HandleEvent(context.Background(), ev))
	assert.Len(t, payments.succeeded, 1)
}

func TestWebhookFailureAllowsRedelivery(t *testing.T) {
	w, payments := newWebhook()
	ev := sessionEvent(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, paidSession())

	payments.err = errors.New("mongo unavailable")
	err := w.HandleEvent(context.Background(), ev)
	assert.True(t, utils.IsKind(err, utils.KindInternal))

	payments.err = nil
	require.NoError(t, w.HandleEvent(context.Background(), ev))
	assert.Len(t, payments.succeeded, 2)
}

func TestWebhookSkipsUnpaidCompletion(t *testing.T) {
	w, payments := newWebhook()
	session := paidSession()
	session["payment_status"] = "unpaid"

	require.NoError(t, w.HandleEvent(context.Background(), sessionEvent(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, session)))
	assert.Empty(t, payments.succeeded)

	require.NoError(t, w.HandleEvent(context.Background(), sessionEvent(t, "evt_2", stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded, session)))
	require.Len(t, payments.succeeded, 1)
}

func TestWebhookAsyncFailure(t *testing.T) {
	w, payments := newWebhook()
	require.NoError(t, w.HandleEvent(context.Background(), sessionEvent(t, "evt_1", stripe.EventTypeCheckoutSessionAsyncPaymentFailed, paidSession())))
	assert.Equal(t, []string{"b1"}, payments.failed)
	assert.Empty(t, payments.succeeded)
}

func TestWebhookFallbacks(t *testing.T) {
	w, payments := newWebhook()
	session := map[string]interface{}{
		"id":                  "cs_9",
		"payment_status":      "paid",
		"amount_total":        1000,
		"client_reference_id": "b9",
	}
	require.NoError(t, w.HandleEvent(context.Background(), sessionEvent(t, "evt_1", stripe.EventTypeCheckoutSessionCompleted, session)))
	require.Len(t, payments.succeeded, 1)
	assert.Equal(t, paymentCall{"b9", "cs_9", 10}, payments.succeeded[0])

	delete(session, "client_reference_id")
	require.NoError(t, w.HandleEvent(context.Background(), sessionEvent(t, "evt_2", stripe.EventTypeCheckoutSessionCompleted, session)))
	assert.Len(t, payments.succeeded, 1, "no booking reference, nothing applied")
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	w, payments := newWebhook()
	ev := stripe.Event{ID: "evt_1", Type: stripe.EventTypeCustomerCreated, Data: &stripe.EventData{Raw: []byte(`{}`)}}
	require.NoError(t, w.HandleEvent(context.Background(), ev))
	assert.Empty(t, payments.succeeded)
}

func TestWebhookVerifiesSignature(t *testing.T) {
	w, payments := newWebhook()
	payload, err := json.Marshal(map[string]interface{}{
		"id":          "evt_signed",
		"object":      "event",
		"type":        "checkout.session.completed",
		"api_version": "2020-08-27",
		"data":        map[string]interface{}{"object": paidSession()},
	})
	require.NoError(t, err)

	err = w.Handle(context.Background(), payload, "t=1,v1=deadbeef")
	assert.True(t, utils.IsKind(err, utils.KindValidation))
	assert.Empty(t, payments.succeeded)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	})
	require.NoError(t, w.Handle(context.Background(), signed.Payload, signed.Header))
	require.Len(t, payments.succeeded, 1)
	assert.Equal(t, "b1", payments.succeeded[0].bookingID)
}
