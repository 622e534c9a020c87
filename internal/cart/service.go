package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/internal/products"
	"github.com/daisydays/daisydays-backend/pkg/db/models"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
)

// Service exposes the per-user cart.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	Add(ctx context.Context, userID uuid.UUID, input AddItemInput) (*ItemDTO, error)
	AddWithTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, input AddItemInput) (*ItemDTO, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*ItemDTO, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	CartRepo    *Repository
	ProductRepo *products.Repository
}

type service struct {
	cartRepo    *Repository
	productRepo *products.Repository
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{
		cartRepo:    params.CartRepo,
		productRepo: params.ProductRepo,
	}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	dto := cartFromModels(items)
	return &dto, nil
}

func (s *service) Add(ctx context.Context, userID uuid.UUID, input AddItemInput) (*ItemDTO, error) {
	return s.add(ctx, s.cartRepo, s.productRepo, userID, input)
}

// AddWithTx applies the cart merge inside the caller's transaction.
func (s *service) AddWithTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, input AddItemInput) (*ItemDTO, error) {
	return s.add(ctx, s.cartRepo.WithTx(tx), s.productRepo.WithTx(tx), userID, input)
}

// add inserts the row or sums into the existing one. Either path re-checks the
// total against the product's current stock.
func (s *service) add(ctx context.Context, cartRepo *Repository, productRepo *products.Repository, userID uuid.UUID, input AddItemInput) (*ItemDTO, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := loadProduct(ctx, productRepo, input.ProductID)
	if err != nil {
		return nil, err
	}
	if input.Quantity > product.Stock {
		return nil, insufficientStock(product.Stock, 0)
	}

	item := &models.CartItem{UserID: userID, ProductID: product.ID, Quantity: input.Quantity}
	inserted, err := cartRepo.InsertIfAbsent(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	if !inserted {
		merged, err := cartRepo.AddQuantity(ctx, userID, product.ID, input.Quantity, product.Stock)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		if !merged {
			existing, findErr := cartRepo.FindByProduct(ctx, userID, product.ID)
			inCart := 0
			if findErr == nil {
				inCart = existing.Quantity
			}
			return nil, insufficientStock(product.Stock, inCart)
		}
	}

	item, err = cartRepo.FindByProduct(ctx, userID, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart item")
	}
	dto := itemFromModel(*item, product)
	return &dto, nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*ItemDTO, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	item, err := s.cartRepo.FindByID(ctx, userID, itemID)
	if err != nil {
		return nil, notFound(err, "cart item not found")
	}
	product, err := loadProduct(ctx, s.productRepo, item.ProductID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, insufficientStock(product.Stock, item.Quantity)
	}
	if err := s.cartRepo.SetQuantity(ctx, userID, itemID, quantity); err != nil {
		return nil, notFound(err, "cart item not found")
	}
	item.Quantity = quantity
	dto := itemFromModel(*item, product)
	return &dto, nil
}

func (s *service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.cartRepo.Delete(ctx, userID, itemID); err != nil {
		return notFound(err, "cart item not found")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.ClearUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.cartRepo.CountByUser(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart items")
	}
	return count, nil
}

func loadProduct(ctx context.Context, repo *products.Repository, id uuid.UUID) (*models.Product, error) {
	product, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product not found")
	}
	return product, nil
}

func insufficientStock(available, inCart int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "requested quantity exceeds available stock").
		WithDetails(map[string]any{"available": available, "inCart": inCart})
}

func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
