package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/elearning-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/metrics"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	"github.com/magabrotheeeer/elearning-platform/internal/paymentprovider"
	"github.com/magabrotheeeer/elearning-platform/internal/rabbitmq"
	subscription "github.com/magabrotheeeer/elearning-platform/internal/services/subscription"
	"github.com/magabrotheeeer/elearning-platform/internal/storage/repository"
)

// fakeStore хранилище в памяти; RunInTx откатывает отметки событий при ошибке.
type fakeStore struct {
	mu        sync.Mutex
	events    map[string]bool
	purchases map[string]*models.PackPurchase
	packs     map[string]*models.Pack
	users     map[string]*models.User
	subs      map[string]*models.Subscription
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:    map[string]bool{},
		purchases: map[string]*models.PackPurchase{},
		packs: map[string]*models.Pack{
			"pack-1": {ID: "pack-1", Name: "Bootcamp", IsPublished: true, Plans: []models.Plan{
				{Label: "1 Month", DurationDays: 30, PriceCents: 3000},
				{Label: "3 Months", DurationDays: 90, PriceCents: 8000},
			}},
		},
		users: map[string]*models.User{"user-1": {ID: "user-1", Email: "buyer@example.com", Name: "Buyer"}},
		subs:  map[string]*models.Subscription{},
	}
}

func (f *fakeStore) addPending(id, orderID string) {
	f.purchases[id] = &models.PackPurchase{
		ID: id, UserID: "user-1", PackID: "pack-1", PlanLabel: "1 Month",
		AmountCents: 3000, Currency: "USD", Status: models.PurchasePending, PayPalOrderID: orderID,
	}
}

func (f *fakeStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	snapshot := maps.Clone(f.events)
	f.mu.Unlock()
	if err := fn(ctx); err != nil {
		f.mu.Lock()
		f.events = snapshot
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) MarkEventProcessed(_ context.Context, eventID, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events[eventID] {
		return false, nil
	}
	f.events[eventID] = true
	return true, nil
}

func (f *fakeStore) FindPurchaseForCapture(_ context.Context, userID, packID, orderID string) (*models.PackPurchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.purchases {
		if p.UserID != userID || p.PackID != packID {
			continue
		}
		if orderID != "" {
			if p.PayPalOrderID == orderID && p.Status != models.PurchaseCompleted {
				return p, nil
			}
			continue
		}
		if p.Status == models.PurchasePending {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

// checkout повторяет оформление: прежние pending-покупки становятся failed.
func (f *fakeStore) checkout(id, orderID string) {
	for _, p := range f.purchases {
		if p.Status == models.PurchasePending {
			p.Status = models.PurchaseFailed
		}
	}
	f.addPending(id, orderID)
}

func (f *fakeStore) CompletePurchase(_ context.Context, id, captureID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.purchases[id]
	if !ok || p.Status == models.PurchaseCompleted {
		return repository.ErrNotFound
	}
	p.Status = models.PurchaseCompleted
	p.PayPalCaptureID = captureID
	return nil
}

func (f *fakeStore) GetPack(_ context.Context, id string) (*models.Pack, error) {
	if p, ok := f.packs[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) GetUser(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) GetSubscriptionForUpdate(_ context.Context, userID, packID string) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.subs[userID+"|"+packID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) UpsertSubscription(_ context.Context, sub models.Subscription) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := sub.UserID + "|" + sub.PackID
	if existing, ok := f.subs[key]; ok {
		sub.ID = existing.ID
	} else {
		sub.ID = fmt.Sprintf("sub-%d", len(f.subs)+1)
	}
	f.subs[key] = &sub
	cp := sub
	return &cp, nil
}

func (f *fakeStore) ListSubscriptionsByUser(context.Context, string) ([]*models.Subscription, error) {
	return nil, nil
}

func (f *fakeStore) ExpireLapsedSubscriptions(context.Context, string, time.Time) (int64, error) {
	return 0, nil
}

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) VerifyWebhookSignature(ctx context.Context, headers http.Header, webhookID string, body []byte) (bool, error) {
	args := m.Called(ctx, webhookID)
	return args.Bool(0), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store    *fakeStore
	verifier *VerifierMock
	pub      *PublisherMock
	metrics  *metrics.Metrics
	svc      *WebhookService
}

func newFixture(webhookID string) *fixture {
	f := &fixture{
		store:    newFakeStore(),
		verifier: new(VerifierMock),
		pub:      new(PublisherMock),
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	f.pub.On("Publish", mock.Anything, rabbitmq.RoutingPurchaseCompleted, mock.Anything).Return(nil).Maybe()
	subs := subscription.NewSubscriptionService(f.store, f.metrics, newNoopLogger())
	f.svc = NewWebhookService(f.store, subs, f.verifier, f.pub, f.metrics, webhookID, newNoopLogger())
	return f
}

func captureEvent(t *testing.T, eventID, eventType, customID, invoiceID string) []byte {
	t.Helper()
	return orderCaptureEvent(t, eventID, eventType, customID, invoiceID, "ORDER-1")
}

func orderCaptureEvent(t *testing.T, eventID, eventType, customID, invoiceID, orderID string) []byte {
	t.Helper()
	resource := map[string]any{
		"id":         "CAPTURE-" + eventID,
		"status":     "COMPLETED",
		"custom_id":  customID,
		"invoice_id": invoiceID,
		"amount":     map[string]string{"currency_code": "USD", "value": "30.00"},
		"supplementary_data": map[string]any{
			"related_ids": map[string]string{"order_id": orderID},
		},
	}
	raw, err := json.Marshal(resource)
	require.NoError(t, err)
	body, err := json.Marshal(paymentprovider.WebhookEvent{
		ID:           eventID,
		EventType:    eventType,
		ResourceType: "capture",
		Resource:     raw,
	})
	require.NoError(t, err)
	return body
}

const validCustomID = `{"userId":"user-1","planLabel":"1 Month"}`

func TestWebhookService_ReconcileCompletesPurchase(t *testing.T) {
	f := newFixture("")
	f.store.addPending("purchase-1", "ORDER-1")

	res, err := f.svc.Reconcile(context.Background(), http.Header{},
		captureEvent(t, "WH-1", paymentprovider.EventCaptureCompleted, validCustomID, "pack-1"))
	require.NoError(t, err)

	assert.Equal(t, ResultProcessed, res.Status)
	require.NotNil(t, res.Subscription)
	assert.Equal(t, models.SubscriptionActive, res.Subscription.Status)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), res.Subscription.CurrentPeriodEnd, time.Minute)

	purchase := f.store.purchases["purchase-1"]
	assert.Equal(t, models.PurchaseCompleted, purchase.Status)
	assert.Equal(t, "CAPTURE-WH-1", purchase.PayPalCaptureID)

	f.pub.AssertCalled(t, "Publish", mock.Anything, rabbitmq.RoutingPurchaseCompleted, mock.MatchedBy(func(m models.PurchaseReceiptMessage) bool {
		return m.Email == "buyer@example.com" && m.PackName == "Bootcamp" && m.AmountCents == 3000
	}))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.WebhookEvents.WithLabelValues(paymentprovider.EventCaptureCompleted, ResultProcessed)))
}

func TestWebhookService_DuplicateDeliveryDoesNotExtendTwice(t *testing.T) {
	f := newFixture("")
	f.store.addPending("purchase-1", "ORDER-1")
	body := captureEvent(t, "WH-dup", paymentprovider.EventCaptureCompleted, validCustomID, "pack-1")

	first, err := f.svc.Reconcile(context.Background(), http.Header{}, body)
	require.NoError(t, err)
	require.Equal(t, ResultProcessed, first.Status)

	// Новая ожидающая покупка не должна завершиться повтором старого события.
	f.store.addPending("purchase-2", "ORDER-2")

	second, err := f.svc.Reconcile(context.Background(), http.Header{}, body)
	require.NoError(t, err)
	assert.Equal(t, ResultDuplicate, second.Status)

	sub := f.store.subs["user-1|pack-1"]
	assert.Equal(t, first.Subscription.CurrentPeriodEnd, sub.CurrentPeriodEnd)
	assert.Equal(t, models.PurchasePending, f.store.purchases["purchase-2"].Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SubscriptionsExt))
	f.pub.AssertNumberOfCalls(t, "Publish", 1)
}

func TestWebhookService_RenewalStacksOnActivePeriod(t *testing.T) {
	f := newFixture("")
	f.store.addPending("purchase-1", "ORDER-1")
	f.store.subs["user-1|pack-1"] = &models.Subscription{
		ID: "sub-1", UserID: "user-1", PackID: "pack-1", Plan: "1 Month",
		Status: models.SubscriptionActive, CurrentPeriodEnd: time.Now().Add(10 * 24 * time.Hour),
	}

	res, err := f.svc.Reconcile(context.Background(), http.Header{},
		captureEvent(t, "WH-renew", paymentprovider.EventCaptureCompleted, validCustomID, "pack-1"))
	require.NoError(t, err)
	assert.Equal(t, "sub-1", res.Subscription.ID)
	assert.WithinDuration(t, time.Now().Add(40*24*time.Hour), res.Subscription.CurrentPeriodEnd, time.Minute)
}

func TestWebhookService_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		body     func(t *testing.T) []byte
		pending  bool
		wantKind apperr.Kind
	}{
		{
			name: "missing custom id",
			body: func(t *testing.T) []byte {
				return captureEvent(t, "WH-2", paymentprovider.EventCaptureCompleted, "", "pack-1")
			},
			pending:  true,
			wantKind: apperr.KindValidation,
		},
		{
			name: "missing invoice id",
			body: func(t *testing.T) []byte {
				return captureEvent(t, "WH-3", paymentprovider.EventCaptureCompleted, validCustomID, "")
			},
			pending:  true,
			wantKind: apperr.KindValidation,
		},
		{
			name: "no pending purchase",
			body: func(t *testing.T) []byte {
				return captureEvent(t, "WH-4", paymentprovider.EventCaptureCompleted, validCustomID, "pack-1")
			},
			wantKind: apperr.KindNotFound,
		},
		{
			name: "unknown plan",
			body: func(t *testing.T) []byte {
				return captureEvent(t, "WH-5", paymentprovider.EventCaptureCompleted, `{"userId":"user-1","planLabel":"1 Year"}`, "pack-1")
			},
			pending:  true,
			wantKind: apperr.KindValidation,
		},
		{
			name:     "malformed body",
			body:     func(*testing.T) []byte { return []byte("{not json") },
			wantKind: apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("")
			if tt.pending {
				f.store.addPending("purchase-1", "ORDER-1")
			}

			_, err := f.svc.Reconcile(context.Background(), http.Header{}, tt.body(t))
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			assert.Empty(t, f.store.events, "rejected events must not be marked processed")
			assert.Empty(t, f.store.subs)
		})
	}
}

func TestWebhookService_RedeliveryAfterMissingPurchase(t *testing.T) {
	f := newFixture("")
	body := captureEvent(t, "WH-late", paymentprovider.EventCaptureCompleted, validCustomID, "pack-1")

	_, err := f.svc.Reconcile(context.Background(), http.Header{}, body)
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	f.store.addPending("purchase-1", "ORDER-1")
	res, err := f.svc.Reconcile(context.Background(), http.Header{}, body)
	require.NoError(t, err)
	assert.Equal(t, ResultProcessed, res.Status)
}

func TestWebhookService_TwoCheckoutsCompleteTheirOwnPurchases(t *testing.T) {
	f := newFixture("")
	f.store.checkout("purchase-a", "ORDER-A")
	f.store.checkout("purchase-b", "ORDER-B")

	res, err := f.svc.Reconcile(context.Background(), http.Header{},
		orderCaptureEvent(t, "WH-A", paymentprovider.EventCaptureCompleted, validCustomID, "pack-1", "ORDER-A"))
	require.NoError(t, err)
	assert.Equal(t, ResultProcessed, res.Status)

	a, b := f.store.purchases["purchase-a"], f.store.purchases["purchase-b"]
	assert.Equal(t, models.PurchaseCompleted, a.Status)
	assert.Equal(t, "CAPTURE-WH-A", a.PayPalCaptureID)
	assert.Equal(t, models.PurchasePending, b.Status)
	assert.Empty(t, b.PayPalCaptureID)

	res, err = f.svc.Reconcile(context.Background(), http.Header{},
		orderCaptureEvent(t, "WH-B", paymentprovider.EventCaptureCompleted, validCustomID, "pack-1", "ORDER-B"))
	require.NoError(t, err)
	assert.Equal(t, ResultProcessed, res.Status)
	assert.Equal(t, models.PurchaseCompleted, b.Status)
	assert.Equal(t, "CAPTURE-WH-B", b.PayPalCaptureID)
	assert.WithinDuration(t, time.Now().Add(60*24*time.Hour), res.Subscription.CurrentPeriodEnd, time.Minute)
}

func TestWebhookService_UnknownOrderIsNotMatchedToAnotherPurchase(t *testing.T) {
	f := newFixture("")
	f.store.addPending("purchase-1", "ORDER-1")

	_, err := f.svc.Reconcile(context.Background(), http.Header{},
		orderCaptureEvent(t, "WH-X", paymentprovider.EventCaptureCompleted, validCustomID, "pack-1", "ORDER-OTHER"))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, models.PurchasePending, f.store.purchases["purchase-1"].Status)
	assert.Empty(t, f.store.subs)
}

func TestWebhookService_CorrelationFromPurchaseUnits(t *testing.T) {
	f := newFixture("")
	f.store.addPending("purchase-1", "")

	body := []byte(`{"id":"WH-units","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAPTURE-units",` +
		`"purchase_units":[{"custom_id":"{\"userId\":\"user-1\",\"planLabel\":\"1 Month\"}","invoice_id":"pack-1"}]}}`)

	res, err := f.svc.Reconcile(context.Background(), http.Header{}, body)
	require.NoError(t, err)
	assert.Equal(t, ResultProcessed, res.Status)
	assert.Equal(t, models.PurchaseCompleted, f.store.purchases["purchase-1"].Status)
	assert.Equal(t, "CAPTURE-units", f.store.purchases["purchase-1"].PayPalCaptureID)
}

func TestWebhookService_IgnoresOtherEvents(t *testing.T) {
	f := newFixture("")
	res, err := f.svc.Reconcile(context.Background(), http.Header{},
		captureEvent(t, "WH-6", paymentprovider.EventCaptureDenied, validCustomID, "pack-1"))
	require.NoError(t, err)
	assert.Equal(t, ResultIgnored, res.Status)
	assert.Empty(t, f.store.events)
}

func TestWebhookService_Signature(t *testing.T) {
	t.Run("invalid signature", func(t *testing.T) {
		f := newFixture("WH-ID")
		f.verifier.On("VerifyWebhookSignature", mock.Anything, "WH-ID").Return(false, nil).Once()

		_, err := f.svc.Reconcile(context.Background(), http.Header{},
			captureEvent(t, "WH-7", paymentprovider.EventCaptureCompleted, validCustomID, "pack-1"))
		assert.True(t, apperr.Is(err, apperr.KindValidation))
		assert.Empty(t, f.store.events)
	})

	t.Run("valid signature", func(t *testing.T) {
		f := newFixture("WH-ID")
		f.store.addPending("purchase-1", "ORDER-1")
		f.verifier.On("VerifyWebhookSignature", mock.Anything, "WH-ID").Return(true, nil).Once()

		res, err := f.svc.Reconcile(context.Background(), http.Header{},
			captureEvent(t, "WH-8", paymentprovider.EventCaptureCompleted, validCustomID, "pack-1"))
		require.NoError(t, err)
		assert.Equal(t, ResultProcessed, res.Status)
		f.verifier.AssertExpectations(t)
	})
}
