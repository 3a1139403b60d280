package pix

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/restaurafoto/RestauraFoto/app/models"
)

type fakeRepo struct {
	usersByEmail map[string]*models.User
	usersByID    map[uint]*models.User
	payments     map[string]*models.Payment
	events       map[string]*models.WebhookEvent
	nextUserID   uint
	nextEventID  uint

	createPaymentErr error
	addCreditsCalls  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		usersByEmail: map[string]*models.User{},
		usersByID:    map[uint]*models.User{},
		payments:     map[string]*models.Payment{},
		events:       map[string]*models.WebhookEvent{},
	}
}

func (f *fakeRepo) GetOrCreateUserByEmail(email string) (*models.User, error) {
	if u, ok := f.usersByEmail[email]; ok {
		return u, nil
	}
	f.nextUserID++
	u := &models.User{ID: f.nextUserID, Email: email, Status: models.STATUS_ACTIVE}
	f.usersByEmail[email] = u
	f.usersByID[u.ID] = u
	return u, nil
}

func (f *fakeRepo) GetUserByID(id uint) (*models.User, error) {
	if u, ok := f.usersByID[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) AddCredits(userID uint, amount int) error {
	f.addCreditsCalls++
	u, ok := f.usersByID[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Credits += amount
	return nil
}

func (f *fakeRepo) UpdateProfile(userID uint, name string) error {
	if u, ok := f.usersByID[userID]; ok {
		u.Name = name
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) CreatePaymentIfNotExists(payment *models.Payment) (bool, error) {
	if f.createPaymentErr != nil {
		return false, f.createPaymentErr
	}
	if _, ok := f.payments[payment.ProviderPaymentID]; ok {
		return false, nil
	}
	f.payments[payment.ProviderPaymentID] = payment
	return true, nil
}

func (f *fakeRepo) GetPaymentByProviderID(providerPaymentID string) (*models.Payment, error) {
	if p, ok := f.payments[providerPaymentID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) MarkPaymentRefunded(providerPaymentID string) error {
	p, ok := f.payments[providerPaymentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Status = models.PaymentStatusRefunded
	return nil
}

func (f *fakeRepo) RecordWebhookEvent(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + ":" + event.ProviderEventID
	if existing, ok := f.events[key]; ok {
		return false, existing, nil
	}
	f.nextEventID++
	event.ID = f.nextEventID
	f.events[key] = event
	return true, event, nil
}

func (f *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range f.events {
		if e.ID == id {
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type notifierCall struct {
	kind   string
	to     string
	amount float64
}

type fakeNotifier struct {
	calls []notifierCall
}

func (f *fakeNotifier) SendPaymentConfirmed(to, name, planName string, credits int, amountBRL float64) error {
	f.calls = append(f.calls, notifierCall{kind: "paid", to: to, amount: amountBRL})
	return nil
}

func (f *fakeNotifier) SendRefundProcessed(to, name string, amountBRL float64) error {
	f.calls = append(f.calls, notifierCall{kind: "refund", to: to, amount: amountBRL})
	return nil
}

func (f *fakeNotifier) SendLoginCode(to, code string) error {
	f.calls = append(f.calls, notifierCall{kind: "login", to: to})
	return nil
}

func paidEvent() *PaymentEvent {
	return &PaymentEvent{
		Name:              "billing.paid",
		Kind:              EventPaid,
		ProviderPaymentID: "pix_char_123",
		AmountCents:       2990,
		FeeCents:          80,
		Method:            "PIX",
		Status:            "PAID",
		Metadata: Metadata{
			PlanID: "2",
			Email:  "maria@example.com",
			Photos: "5",
			Name:   "Maria Silva",
		},
	}
}

func TestProcessPaidCreditsExactlyOnce(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier)

	out, err := svc.ProcessEvent(context.Background(), paidEvent())
	require.NoError(t, err)
	assert.False(t, out.Duplicate)
	assert.Equal(t, 5, out.CreditsGranted)
	assert.Empty(t, out.Warnings)

	user := repo.usersByEmail["maria@example.com"]
	require.NotNil(t, user)
	assert.Equal(t, 5, user.Credits)
	assert.Equal(t, "Maria Silva", user.Name)

	payment := repo.payments["pix_char_123"]
	require.NotNil(t, payment)
	assert.Equal(t, "2", payment.PlanID)
	assert.Equal(t, 5, payment.Credits)
	assert.InDelta(t, 29.90, payment.AmountBRL, 0.001)
	assert.Equal(t, models.PaymentStatusCompleted, payment.Status)

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "paid", notifier.calls[0].kind)
	assert.Equal(t, "maria@example.com", notifier.calls[0].to)

	// Provider redelivery of the same payment: acknowledged, not re-credited.
	out, err = svc.ProcessEvent(context.Background(), paidEvent())
	require.NoError(t, err)
	assert.True(t, out.Duplicate)
	assert.Equal(t, 0, out.CreditsGranted)
	assert.Equal(t, 5, user.Credits)
	assert.Equal(t, 1, repo.addCreditsCalls)
	assert.Len(t, notifier.calls, 1, "no second confirmation mail on redelivery")
}

func TestProcessPaidAmountMismatchStillCredits(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeNotifier{})

	evt := paidEvent()
	evt.AmountCents = 12345

	out, err := svc.ProcessEvent(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, 5, out.CreditsGranted)
	assert.NotEmpty(t, out.Warnings, "price mismatch is logged, never blocks crediting")
	assert.Equal(t, 5, repo.usersByEmail["maria@example.com"].Credits)
	assert.InDelta(t, 123.45, repo.payments["pix_char_123"].AmountBRL, 0.001)
}

func TestProcessPaidMissingEmailGrantsNothing(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier)

	evt := paidEvent()
	evt.Metadata.Email = ""

	out, err := svc.ProcessEvent(context.Background(), evt)
	require.NoError(t, err, "anomalies must not bubble as handler errors")
	assert.Equal(t, 0, out.CreditsGranted)
	assert.NotEmpty(t, out.Warnings)
	assert.Empty(t, repo.usersByEmail)
	assert.Empty(t, repo.payments)
	assert.Empty(t, notifier.calls)
}

func TestProcessPaidUnknownPlanFallsBackToPhotoCount(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeNotifier{})

	evt := paidEvent()
	evt.Metadata.PlanID = "99"
	evt.Metadata.Photos = "7"

	out, err := svc.ProcessEvent(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, 7, out.CreditsGranted)
	assert.NotEmpty(t, out.Warnings)
	assert.Equal(t, 7, repo.usersByEmail["maria@example.com"].Credits)
}

func TestProcessPaidRecordWriteFailureStillCredits(t *testing.T) {
	repo := newFakeRepo()
	repo.createPaymentErr = errors.New("deadlock")
	svc := NewService(repo, &fakeNotifier{})

	out, err := svc.ProcessEvent(context.Background(), paidEvent())
	require.NoError(t, err)
	assert.Equal(t, 5, out.CreditsGranted)
	assert.NotEmpty(t, out.Warnings)
	assert.Equal(t, 5, repo.usersByEmail["maria@example.com"].Credits)
}

func TestProcessExpiredIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier)

	evt := paidEvent()
	evt.Name = "billing.expired"
	evt.Kind = EventExpired

	out, err := svc.ProcessEvent(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, 0, out.CreditsGranted)
	assert.Empty(t, repo.usersByEmail)
	assert.Empty(t, repo.payments)
	assert.Empty(t, notifier.calls)
}

func TestProcessRefundedKeepsCredits(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier)

	// Seed a settled payment with its credits already granted.
	_, err := svc.ProcessEvent(context.Background(), paidEvent())
	require.NoError(t, err)
	user := repo.usersByEmail["maria@example.com"]
	require.Equal(t, 5, user.Credits)

	evt := paidEvent()
	evt.Name = "billing.refunded"
	evt.Kind = EventRefunded

	out, err := svc.ProcessEvent(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, user.ID, out.UserID)
	assert.Equal(t, models.PaymentStatusRefunded, repo.payments["pix_char_123"].Status)
	assert.Equal(t, 5, user.Credits, "refunds never claw back credits")

	require.Len(t, notifier.calls, 2)
	assert.Equal(t, "refund", notifier.calls[1].kind)
	assert.Equal(t, "maria@example.com", notifier.calls[1].to)
	assert.InDelta(t, 29.90, notifier.calls[1].amount, 0.001)
}

func TestProcessRefundedWithoutRecordStillNotifies(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := NewService(repo, notifier)

	evt := paidEvent()
	evt.Name = "billing.refunded"
	evt.Kind = EventRefunded
	evt.ProviderPaymentID = "pix_never_seen"

	out, err := svc.ProcessEvent(context.Background(), evt)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Warnings)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "refund", notifier.calls[0].kind)
	assert.Equal(t, "maria@example.com", notifier.calls[0].to)
}

func TestRecordDeliveryDeduplicatesByPayloadHash(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeNotifier{})
	payload := []byte(paidPayload)

	created, first, err := svc.RecordDelivery(context.Background(), "billing.paid", payload, true, false)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, first)
	assert.Contains(t, first.ProviderEventID, "hash:")

	created, second, err := svc.RecordDelivery(context.Background(), "billing.paid", payload, true, false)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// A different payload is a different delivery.
	created, _, err = svc.RecordDelivery(context.Background(), "billing.paid", []byte(`{"event":"billing.paid"}`), true, false)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestMarkProcessedStoresError(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeNotifier{})

	_, stored, err := svc.RecordDelivery(context.Background(), "billing.paid", []byte(`{}`), true, false)
	require.NoError(t, err)

	require.NoError(t, svc.MarkProcessed(context.Background(), stored.ID, errors.New("boom")))
	assert.Equal(t, "boom", stored.ProcessingError)

	assert.Error(t, svc.MarkProcessed(context.Background(), 0, nil))
}
