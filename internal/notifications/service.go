// Package notifications turns domain events into customer emails.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/internal/receipts"
	"github.com/daisydays/daisydays-backend/pkg/db/models"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	"github.com/daisydays/daisydays-backend/pkg/logger"
	"github.com/daisydays/daisydays-backend/pkg/mailer"
	"github.com/daisydays/daisydays-backend/pkg/outbox"
	"github.com/daisydays/daisydays-backend/pkg/outbox/payloads"
)

// ErrPermanent marks failures that a redelivery cannot fix.
var ErrPermanent = errors.New("permanent notification failure")

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type orderLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type receiptRenderer interface {
	Render(order models.Order) ([]byte, error)
}

// Service sends the email that belongs to an event.
type Service interface {
	Handle(ctx context.Context, envelope outbox.PayloadEnvelope) error
}

type ServiceParams struct {
	Users     userLookup
	Orders    orderLookup
	Receipts  receiptRenderer
	Mailer    mailer.Mailer
	StoreName string
	Logger    *logger.Logger
}

type service struct {
	users     userLookup
	orders    orderLookup
	receipts  receiptRenderer
	mailer    mailer.Mailer
	storeName string
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("users lookup required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders lookup required")
	}
	if params.Receipts == nil {
		return nil, fmt.Errorf("receipt renderer required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	storeName := strings.TrimSpace(params.StoreName)
	if storeName == "" {
		storeName = "Daisy Days"
	}
	return &service{
		users:     params.Users,
		orders:    params.Orders,
		receipts:  params.Receipts,
		mailer:    params.Mailer,
		storeName: storeName,
		logg:      params.Logger,
	}, nil
}

func (s *service) Handle(ctx context.Context, envelope outbox.PayloadEnvelope) error {
	switch enums.OutboxEventType(envelope.EventType) {
	case enums.EventUserRegistered:
		var event payloads.UserRegisteredEvent
		if err := decode(envelope.Data, &event); err != nil {
			return err
		}
		return s.welcome(ctx, event)
	case enums.EventOrderPlaced:
		var event payloads.OrderPlacedEvent
		if err := decode(envelope.Data, &event); err != nil {
			return err
		}
		return s.orderConfirmation(ctx, event)
	case enums.EventOrderStatusChanged:
		var event payloads.OrderStatusChangedEvent
		if err := decode(envelope.Data, &event); err != nil {
			return err
		}
		return s.statusChanged(ctx, event)
	default:
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "event_type", envelope.EventType), "no notification for event")
		}
		return nil
	}
}

func (s *service) welcome(ctx context.Context, event payloads.UserRegisteredEvent) error {
	name := firstName(event.Name)
	return s.mailer.Send(ctx, mailer.Message{
		To:      event.Email,
		ToName:  event.Name,
		Subject: fmt.Sprintf("Welcome to %s", s.storeName),
		Text: fmt.Sprintf(
			"Hi %s,\n\nThanks for joining %s. Fresh bouquets, plants and gifts are waiting for you.\n\nHappy blooming!\n",
			name, s.storeName,
		),
	})
}

func (s *service) orderConfirmation(ctx context.Context, event payloads.OrderPlacedEvent) error {
	user, err := s.loadUser(ctx, event.UserID)
	if err != nil {
		return err
	}
	order, err := s.loadOrder(ctx, event.OrderID)
	if err != nil {
		return err
	}
	pdf, err := s.receipts.Render(*order)
	if err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\nWe received your order %s.\n\n", firstName(user.Name), shortID(order.ID))
	for _, item := range order.Items {
		fmt.Fprintf(&body, "  %d x %s  %s\n", item.Quantity, item.ProductName, money(item.LineTotal))
	}
	fmt.Fprintf(&body, "\nTotal: %s\n", money(order.TotalAmount))
	fmt.Fprintf(&body, "Shipping to:\n  %s\n", strings.Join(order.ShippingAddress.Lines(), "\n  "))
	body.WriteString("\nYour receipt is attached.\n")

	return s.mailer.Send(ctx, mailer.Message{
		To:      user.Email,
		ToName:  user.Name,
		Subject: fmt.Sprintf("%s order %s confirmed", s.storeName, shortID(order.ID)),
		Text:    body.String(),
		Attachments: []mailer.Attachment{{
			Filename:    receipts.Filename(*order),
			ContentType: "application/pdf",
			Content:     pdf,
		}},
	})
}

func (s *service) statusChanged(ctx context.Context, event payloads.OrderStatusChangedEvent) error {
	user, err := s.loadUser(ctx, event.UserID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Hi %s,\n\n%s\n", firstName(user.Name), statusSentence(event))
	if event.Status == enums.OrderStatusCancelled && event.ChangedBy == event.UserID {
		text += "\nYou cancelled this order yourself. No further action is needed.\n"
	}
	return s.mailer.Send(ctx, mailer.Message{
		To:      user.Email,
		ToName:  user.Name,
		Subject: fmt.Sprintf("Order %s is %s", shortID(event.OrderID), event.Status),
		Text:    text,
	})
}

func (s *service) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s not found", ErrPermanent, id)
	}
	return user, err
}

func (s *service) loadOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %s not found", ErrPermanent, id)
	}
	return order, err
}

func decode(data json.RawMessage, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode payload: %v", ErrPermanent, err)
	}
	return nil
}

func statusSentence(event payloads.OrderStatusChangedEvent) string {
	id := shortID(event.OrderID)
	switch event.Status {
	case enums.OrderStatusConfirmed:
		return fmt.Sprintf("Good news: order %s is confirmed and our florists are preparing it.", id)
	case enums.OrderStatusShipped:
		return fmt.Sprintf("Order %s is on its way.", id)
	case enums.OrderStatusDelivered:
		return fmt.Sprintf("Order %s was delivered. We would love a review of your flowers.", id)
	case enums.OrderStatusCancelled:
		return fmt.Sprintf("Order %s was cancelled.", id)
	default:
		return fmt.Sprintf("Order %s is now %s.", id, event.Status)
	}
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
