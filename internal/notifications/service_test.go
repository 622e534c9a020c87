package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/internal/receipts"
	"github.com/daisydays/daisydays-backend/pkg/db/models"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	"github.com/daisydays/daisydays-backend/pkg/mailer"
	"github.com/daisydays/daisydays-backend/pkg/outbox"
	"github.com/daisydays/daisydays-backend/pkg/outbox/payloads"
	"github.com/daisydays/daisydays-backend/pkg/types"
)

type recordingMailer struct {
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type userTable map[uuid.UUID]*models.User

func (u userTable) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type orderTable map[uuid.UUID]*models.Order

func (o orderTable) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if order, ok := o[id]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func envelopeFor(t *testing.T, eventType enums.OutboxEventType, data any) outbox.PayloadEnvelope {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		EventType:  string(eventType),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}
}

type notifyFixture struct {
	svc    Service
	mail   *recordingMailer
	users  userTable
	orders orderTable
}

func newNotifyFixture(t *testing.T) *notifyFixture {
	t.Helper()
	f := &notifyFixture{mail: &recordingMailer{}, users: userTable{}, orders: orderTable{}}
	svc, err := NewService(ServiceParams{
		Users:     f.users,
		Orders:    f.orders,
		Receipts:  receipts.NewRenderer("Daisy Days"),
		Mailer:    f.mail,
		StoreName: "Daisy Days",
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *notifyFixture) seedOrder() (*models.User, *models.Order) {
	user := &models.User{ID: uuid.New(), Name: "Ada Bloom", Email: "ada@example.com"}
	order := &models.Order{
		ID:          uuid.New(),
		UserID:      user.ID,
		Status:      enums.OrderStatusPending,
		Subtotal:    decimal.RequireFromString("45.00"),
		TotalAmount: decimal.RequireFromString("45.00"),
		ShippingAddress: types.ShippingAddress{
			FullName: "Ada Bloom", Phone: "555-0101", Line1: "1 Meadow Lane", City: "Springfield", PostalCode: "12345",
		},
		Items: []models.OrderItem{{
			ProductID:   uuid.New(),
			ProductName: "Sunny Tulips",
			UnitPrice:   decimal.RequireFromString("15.00"),
			Quantity:    3,
			LineTotal:   decimal.RequireFromString("45.00"),
		}},
		CreatedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	f.users[user.ID] = user
	f.orders[order.ID] = order
	return user, order
}

func TestWelcomeEmail(t *testing.T) {
	f := newNotifyFixture(t)
	err := f.svc.Handle(context.Background(), envelopeFor(t, enums.EventUserRegistered, payloads.UserRegisteredEvent{
		UserID: uuid.New(), Name: "Ada Bloom", Email: "ada@example.com", Provider: "password",
	}))
	require.NoError(t, err)
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "ada@example.com", f.mail.sent[0].To)
	assert.Contains(t, f.mail.sent[0].Text, "Hi Ada")
}

func TestOrderConfirmationAttachesReceipt(t *testing.T) {
	f := newNotifyFixture(t)
	user, order := f.seedOrder()

	err := f.svc.Handle(context.Background(), envelopeFor(t, enums.EventOrderPlaced, payloads.OrderPlacedEvent{
		OrderID: order.ID, UserID: user.ID, TotalAmount: order.TotalAmount,
	}))
	require.NoError(t, err)
	require.Len(t, f.mail.sent, 1)
	msg := f.mail.sent[0]
	assert.Contains(t, msg.Text, "3 x Sunny Tulips")
	assert.Contains(t, msg.Text, "$45.00")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	assert.True(t, bytes.HasPrefix(msg.Attachments[0].Content, []byte("%PDF")))
}

func TestStatusChangeEmail(t *testing.T) {
	f := newNotifyFixture(t)
	user, order := f.seedOrder()

	err := f.svc.Handle(context.Background(), envelopeFor(t, enums.EventOrderStatusChanged, payloads.OrderStatusChangedEvent{
		OrderID: order.ID, UserID: user.ID, PreviousStatus: enums.OrderStatusConfirmed, Status: enums.OrderStatusShipped,
	}))
	require.NoError(t, err)
	require.Len(t, f.mail.sent, 1)
	assert.True(t, strings.HasSuffix(f.mail.sent[0].Subject, "is shipped"))
	assert.Contains(t, f.mail.sent[0].Text, "on its way")
}

func TestMissingOrderIsPermanent(t *testing.T) {
	f := newNotifyFixture(t)
	user, _ := f.seedOrder()

	err := f.svc.Handle(context.Background(), envelopeFor(t, enums.EventOrderPlaced, payloads.OrderPlacedEvent{
		OrderID: uuid.New(), UserID: user.ID,
	}))
	require.ErrorIs(t, err, ErrPermanent)
	assert.Empty(t, f.mail.sent)
}

func TestUnknownEventIsIgnored(t *testing.T) {
	f := newNotifyFixture(t)
	err := f.svc.Handle(context.Background(), outbox.PayloadEnvelope{EventType: "product.restocked", Data: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Empty(t, f.mail.sent)
}
