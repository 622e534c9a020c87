package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/internal/cart"
	"github.com/daisydays/daisydays-backend/internal/products"
	"github.com/daisydays/daisydays-backend/internal/receipts"
	"github.com/daisydays/daisydays-backend/pkg/db/models"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
	"github.com/daisydays/daisydays-backend/pkg/logger"
	"github.com/daisydays/daisydays-backend/pkg/metrics"
	"github.com/daisydays/daisydays-backend/pkg/outbox"
	"github.com/daisydays/daisydays-backend/pkg/outbox/payloads"
	"github.com/daisydays/daisydays-backend/pkg/pagination"
	"github.com/daisydays/daisydays-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type receiptRenderer interface {
	Render(order models.Order) ([]byte, error)
}

// Service defines checkout and the order lifecycle.
type Service interface {
	Place(ctx context.Context, actor Actor, input PlaceOrderInput) (*OrderDTO, error)
	List(ctx context.Context, actor Actor, query ListQuery) (*ListResult, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error)
	Receipt(ctx context.Context, actor Actor, id uuid.UUID) ([]byte, string, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status string) (*OrderDTO, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error)
}

type ServiceParams struct {
	Repo        Repository
	ProductRepo *products.Repository
	CartRepo    *cart.Repository
	TxRunner    txRunner
	Outbox      outbox.Emitter
	Receipts    receiptRenderer
	Metrics     *metrics.OrderMetrics
	Logger      *logger.Logger
	Now         func() time.Time
}

type service struct {
	repo        Repository
	productRepo *products.Repository
	cartRepo    *cart.Repository
	tx          txRunner
	outbox      outbox.Emitter
	receipts    receiptRenderer
	metrics     *metrics.OrderMetrics
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Receipts == nil {
		return nil, fmt.Errorf("receipt renderer required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:        params.Repo,
		productRepo: params.ProductRepo,
		cartRepo:    params.CartRepo,
		tx:          params.TxRunner,
		outbox:      params.Outbox,
		receipts:    params.Receipts,
		metrics:     params.Metrics,
		logg:        params.Logger,
		now:         params.Now,
	}, nil
}

// Place runs checkout in a single transaction: every line's stock is decremented
// under a guard, the order and its snapshots are written, the cart is emptied and
// order.placed is queued. Any failure leaves stock and cart untouched.
func (s *service) Place(ctx context.Context, actor Actor, input PlaceOrderInput) (*OrderDTO, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	lines, err := mergeLines(input.Items)
	if err != nil {
		return nil, err
	}
	if input.TotalAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order").
			WithDetails(map[string]string{"totalAmount": "must not be negative"})
	}
	address := input.ShippingAddress.Normalize()
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &models.Order{
		UserID:          actor.UserID,
		Status:          enums.OrderStatusPending,
		TotalAmount:     input.TotalAmount.Round(2),
		ShippingAddress: address,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))

		for _, line := range lines {
			product, err := productRepo.FindByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found").
						WithDetails(map[string]any{"productId": line.ProductID})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if line.Quantity > product.Stock {
				return insufficientStock(*product, line.Quantity)
			}
			ok, err := productRepo.DecrementStock(ctx, product.ID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if !ok {
				return insufficientStock(*product, line.Quantity)
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			subtotal = subtotal.Add(lineTotal)
			items = append(items, models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				ImageURL:    product.Images.First(),
				UnitPrice:   product.Price,
				Quantity:    line.Quantity,
				LineTotal:   lineTotal,
			})
		}

		order.Items = items
		order.Subtotal = subtotal
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := s.cartRepo.WithTx(tx).ClearUser(ctx, actor.UserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			OccurredAt:    now,
			Data:          placedEvent(*order),
		})
	})
	if err != nil {
		return nil, asDomainError(err, "place order")
	}

	if !order.Subtotal.Equal(order.TotalAmount) && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":     order.ID.String(),
			"subtotal":     order.Subtotal.StringFixed(2),
			"total_amount": order.TotalAmount.StringFixed(2),
		})
		s.logg.Warn(logCtx, "orders.total_mismatch")
	}
	s.metrics.IncPlaced(order.TotalAmount)

	dto := fromModel(*order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor Actor, query ListQuery) (*ListResult, error) {
	params := listParams{Limit: query.Limit}
	if !actor.IsAdmin() {
		userID := actor.UserID
		params.UserID = &userID
	}
	if raw := strings.TrimSpace(query.Status); raw != "" {
		status, err := enums.ParseOrderStatus(strings.ToLower(raw))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		params.Status = &status
	}
	if query.Cursor != "" {
		cursor, err := pagination.ParseCursor(query.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		params.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	result := &ListResult{Items: make([]OrderDTO, 0, len(rows))}
	for _, row := range rows {
		result.Items = append(result.Items, fromModel(row))
	}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	dto := fromModel(*order)
	return &dto, nil
}

// Receipt renders the order as a PDF and returns it with its download name.
func (s *service) Receipt(ctx context.Context, actor Actor, id uuid.UUID) ([]byte, string, error) {
	order, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := s.receipts.Render(*order)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render receipt")
	}
	return pdf, receipts.Filename(*order), nil
}

// UpdateStatus applies one step of the fulfillment state machine. Customers may only
// cancel their own orders. Cancelling returns every line's quantity to stock in the
// same transaction as the status change.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, status string) (*OrderDTO, error) {
	target, err := enums.ParseOrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
			WithDetails(map[string]string{"status": "must be one of pending, confirmed, shipped, delivered, cancelled"})
	}
	if !actor.IsAdmin() && target != enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can advance orders")
	}

	var (
		updated  *models.Order
		previous enums.OrderStatus
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "order not found")
		}
		if err := authorize(actor, order); err != nil {
			return err
		}
		previous = order.Status
		if !order.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status change not allowed").
				WithDetails(map[string]any{"currentStatus": order.Status, "requestedStatus": target})
		}

		now := s.now().UTC()
		applied, err := repo.UpdateStatus(ctx, order.ID, order.Status, target, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently")
		}

		restored := false
		if target == enums.OrderStatusCancelled {
			productRepo := s.productRepo.WithTx(tx)
			for _, item := range order.Items {
				if err := productRepo.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore stock")
				}
			}
			restored = true
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: string(actor.Role)},
			OccurredAt:    now,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        order.ID,
				UserID:         order.UserID,
				PreviousStatus: order.Status,
				Status:         target,
				ChangedBy:      actor.UserID,
				StockRestored:  restored,
				ChangedAt:      now,
			},
		}); err != nil {
			return err
		}

		updated, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, asDomainError(err, "update order status")
	}

	s.metrics.IncTransition(string(target))
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": updated.ID.String(),
			"from":     string(previous),
			"to":       string(target),
		})
		s.logg.Info(logCtx, "orders.status_changed")
	}
	dto := fromModel(*updated)
	return &dto, nil
}

func (s *service) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*OrderDTO, error) {
	return s.UpdateStatus(ctx, actor, id, string(enums.OrderStatusCancelled))
}

func (s *service) load(ctx context.Context, actor Actor, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "order not found")
	}
	if err := authorize(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

func authorize(actor Actor, order *models.Order) error {
	if actor.IsAdmin() || order.UserID == actor.UserID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
}

// mergeLines folds repeated products into one line and orders lines by product id
// so concurrent checkouts touch rows in the same sequence.
func mergeLines(items []ItemInput) ([]ItemInput, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	byProduct := make(map[uuid.UUID]int, len(items))
	for i, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order item").
				WithDetails(map[string]string{fmt.Sprintf("items[%d].productId", i): "is required"})
		}
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order item").
				WithDetails(map[string]string{fmt.Sprintf("items[%d].quantity", i): "must be at least 1"})
		}
		byProduct[item.ProductID] += item.Quantity
	}
	lines := make([]ItemInput, 0, len(byProduct))
	for productID, qty := range byProduct {
		lines = append(lines, ItemInput{ProductID: productID, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ProductID.String() < lines[j].ProductID.String()
	})
	return lines, nil
}

func validateAddress(address types.ShippingAddress) error {
	details := map[string]string{}
	required := map[string]string{
		"shippingAddress.fullName":   address.FullName,
		"shippingAddress.phone":      address.Phone,
		"shippingAddress.line1":      address.Line1,
		"shippingAddress.city":       address.City,
		"shippingAddress.postalCode": address.PostalCode,
	}
	for field, value := range required {
		if value == "" {
			details[field] = "is required"
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping address").WithDetails(details)
	}
	return nil
}

func insufficientStock(product models.Product, requested int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
		WithDetails(map[string]any{
			"productId": product.ID,
			"name":      product.Name,
			"available": product.Stock,
			"requested": requested,
		})
}

func placedEvent(order models.Order) payloads.OrderPlacedEvent {
	items := make([]payloads.OrderPlacedItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, payloads.OrderPlacedItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}
	return payloads.OrderPlacedEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Subtotal:    order.Subtotal,
		Items:       items,
		PlacedAt:    order.CreatedAt,
	}
}

func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func asDomainError(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
