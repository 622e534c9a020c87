package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/internal/cart"
	"github.com/daisydays/daisydays-backend/internal/products"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	WishlistRepo *Repository
	ProductRepo  *products.Repository
	Cart         cart.Service
	TxRunner     txRunner
}

// Service exposes business rules for wishlist management.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error)
	Add(ctx context.Context, userID, productID uuid.UUID) (*ItemDTO, bool, error)
	Check(ctx context.Context, userID, productID uuid.UUID) (*CheckDTO, error)
	MoveToCart(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*cart.ItemDTO, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
	RemoveProduct(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	wishlistRepo *Repository
	productRepo  *products.Repository
	cart         cart.Service
	tx           txRunner
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.WishlistRepo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		wishlistRepo: params.WishlistRepo,
		productRepo:  params.ProductRepo,
		cart:         params.Cart,
		tx:           params.TxRunner,
	}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error) {
	items, err := s.wishlistRepo.ListItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	out := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, itemFromModel(item))
	}
	return out, nil
}

// Add ensures the product exists and saves it. The bool reports whether a new row was created.
func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) (*ItemDTO, bool, error) {
	if productID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, false, mapErr(err, "product not found")
	}
	item, created, err := s.wishlistRepo.AddItem(ctx, userID, productID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	item.Product = product
	dto := itemFromModel(*item)
	return &dto, created, nil
}

func (s *service) Check(ctx context.Context, userID, productID uuid.UUID) (*CheckDTO, error) {
	item, err := s.wishlistRepo.FindByProduct(ctx, userID, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &CheckDTO{}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check wishlist")
	}
	return &CheckDTO{InWishlist: true, ItemID: &item.ID}, nil
}

// MoveToCart merges the saved product into the cart and drops it from the wishlist
// in one transaction. Cart stock rules apply.
func (s *service) MoveToCart(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*cart.ItemDTO, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	var moved *cart.ItemDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.wishlistRepo.WithTx(tx)
		item, err := repo.FindByID(ctx, userID, itemID)
		if err != nil {
			return mapErr(err, "wishlist item not found")
		}
		moved, err = s.cart.AddWithTx(ctx, tx, userID, cart.AddItemInput{ProductID: item.ProductID, Quantity: quantity})
		if err != nil {
			return err
		}
		if err := repo.RemoveItem(ctx, userID, item.ID); err != nil {
			return fmt.Errorf("remove moved wishlist item: %w", err)
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "move wishlist item")
	}
	return moved, nil
}

func (s *service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.wishlistRepo.RemoveItem(ctx, userID, itemID); err != nil {
		return mapErr(err, "wishlist item not found")
	}
	return nil
}

// RemoveProduct is idempotent: a product not on the list is not an error.
func (s *service) RemoveProduct(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.wishlistRepo.RemoveProduct(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist product")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.wishlistRepo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear wishlist")
	}
	return nil
}

func mapErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
