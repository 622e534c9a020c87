package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/pkg/db/models"
	"github.com/daisydays/daisydays-backend/pkg/enums"
)

// Repository encapsulates review persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *Repository) Save(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// FindByKey returns the review for one (order, product, user) triple.
func (r *Repository) FindByKey(ctx context.Context, orderID, productID, userID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND product_id = ? AND user_id = ?", orderID, productID, userID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) ListByOrder(ctx context.Context, orderID, userID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("order_id = ? AND user_id = ?", orderID, userID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) ListByUserProduct(ctx context.Context, userID, productID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ? AND product_id = ?", userID, productID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// EligibleOrderIDs returns the user's delivered orders that contain the product and
// have no review for it yet.
func (r *Repository) EligibleOrderIDs(ctx context.Context, userID, productID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Table("orders o").
		Select("DISTINCT o.id").
		Joins("JOIN order_items oi ON oi.order_id = o.id").
		Where("o.user_id = ? AND o.status = ? AND oi.product_id = ?", userID, enums.OrderStatusDelivered, productID).
		Where("NOT EXISTS (SELECT 1 FROM reviews rv WHERE rv.order_id = o.id AND rv.product_id = ? AND rv.user_id = ?)", productID, userID).
		Pluck("o.id", &ids).Error
	return ids, err
}

// Summary returns the average rating and review count for a product.
func (r *Repository) Summary(ctx context.Context, productID uuid.UUID) (float64, int64, error) {
	var row struct {
		Average *float64
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	if row.Average == nil {
		return 0, row.Count, nil
	}
	return *row.Average, row.Count, nil
}

// DeleteByIDs removes the given reviews and reports how many existed.
func (r *Repository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Review{})
	return res.RowsAffected, res.Error
}
