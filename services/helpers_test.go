package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "github.com/lawaid/soulsystem-backend/common/errors"
	"github.com/lawaid/soulsystem-backend/models"
	"github.com/lawaid/soulsystem-backend/repository"
	"github.com/lawaid/soulsystem-backend/services"

	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2025, 3, 14, 15, 9, 26, 535897000, time.UTC)

func fixedClock() time.Time { return fixedTime }

// sequentialIDs returns id-1, id-2, ...
func sequentialIDs(prefix string) services.IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// countingNonce hands out a distinct nonce per call and counts mints.
type countingNonce struct {
	mu    sync.Mutex
	calls int
}

func (n *countingNonce) Next() ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	b := make([]byte, 32)
	b[0] = byte(n.calls)
	return b, nil
}

func (n *countingNonce) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

// --- Fake PaymentProcessor ---

type fakeProcessor struct {
	mu        sync.Mutex
	sessions  map[string]*services.CheckoutSession
	requests  []services.CheckoutSessionRequest
	createErr error
	getErr    error
	next      int
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{sessions: make(map[string]*services.CheckoutSession)}
}

func (f *fakeProcessor) CreateCheckoutSession(_ context.Context, req *services.CheckoutSessionRequest) (*services.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.requests = append(f.requests, *req)
	f.next++
	id := fmt.Sprintf("cs_test_%d", f.next)

	var total int64
	for _, item := range req.Items {
		total += item.UnitAmount * item.Quantity
	}
	sess := &services.CheckoutSession{
		ID:            id,
		URL:           "https://checkout.stripe.test/pay/" + id,
		AmountTotal:   total,
		CustomerEmail: req.CustomerEmail,
		Metadata:      req.Metadata,
	}
	f.sessions[id] = sess
	out := *sess
	return &out, nil
}

func (f *fakeProcessor) GetCheckoutSession(_ context.Context, id string) (*services.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	sess, ok := f.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	out := *sess
	return &out, nil
}

// addSession registers a session created outside CreateCheckoutSession.
func (f *fakeProcessor) addSession(sess services.CheckoutSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[sess.ID] = &sess
}

func (f *fakeProcessor) markPaid(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id].Paid = true
}

func (f *fakeProcessor) lastRequest() services.CheckoutSessionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// --- Mock SNS Publisher / metrics ---

type mockSNSPublisher struct {
	mu        sync.Mutex
	published [][]byte
	err       error
}

func (m *mockSNSPublisher) Publish(_ context.Context, _ string, message []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, append([]byte(nil), message...))
	return nil
}

func (m *mockSNSPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

type mockMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *mockMetrics) RecordCount(_ context.Context, name string, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[name]++
	return nil
}

// --- Wiring ---

type testEnv struct {
	store      *repository.MemoryStore
	registry   *repository.Registry
	processor  *fakeProcessor
	nonce      *countingNonce
	sns        *mockSNSPublisher
	notifier   *services.Notifier
	orders     services.OrderService
	checkout   services.CheckoutService
	payments   services.PaymentService
	identities services.IdentityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:     repository.NewMemoryStore(),
		processor: newFakeProcessor(),
		nonce:     &countingNonce{},
		sns:       &mockSNSPublisher{},
	}
	env.registry = repository.NewRegistry(env.store, nil, 3)
	t.Cleanup(env.registry.Close)

	minter, err := services.NewSoulMarkMinter("test-secret", env.nonce.Next)
	require.NoError(t, err)
	notifier := services.NewNotifier(env.sns, "arn:aws:sns:us-east-1:000000000000:soulsystem-events", nil, nil)
	env.notifier = notifier
	t.Cleanup(notifier.Wait)

	env.orders = services.NewOrderService(env.registry, notifier, sequentialIDs("order"), fixedClock, nil)
	env.checkout = services.NewCheckoutService(env.registry, env.processor, notifier, "https://lawaid.test/", nil)
	env.payments = services.NewPaymentService(env.registry, env.processor, nil, minter, notifier, fixedClock, nil)
	env.identities = services.NewIdentityService(env.registry, notifier, sequentialIDs("identity"), fixedClock, nil)
	return env
}

func (e *testEnv) snapshot(t *testing.T) *models.Registry {
	t.Helper()
	var data []byte
	require.NoError(t, e.registry.View(context.Background(), func(doc *models.Registry) error {
		var err error
		data, err = doc.Encode()
		return err
	}))
	out, err := models.DecodeRegistry(data)
	require.NoError(t, err)
	return out
}

// published waits for background deliveries and returns the SNS message count.
func (e *testEnv) published() int {
	e.notifier.Wait()
	return e.sns.count()
}

// paidSession creates an ad-hoc paid session for email directly on the processor.
func (e *testEnv) paidSession(id, email string, amount int64, metadata map[string]string) {
	e.processor.addSession(services.CheckoutSession{
		ID:            id,
		Paid:          true,
		AmountTotal:   amount,
		CustomerEmail: email,
		Metadata:      metadata,
	})
}
