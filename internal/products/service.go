package products

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/daisydays/daisydays-backend/internal/media"
	"github.com/daisydays/daisydays-backend/internal/search"
	"github.com/daisydays/daisydays-backend/pkg/db/models"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
	"github.com/daisydays/daisydays-backend/pkg/logger"
	"github.com/daisydays/daisydays-backend/pkg/pagination"
)

const maxNameLength = 200

// Service exposes catalog reads and admin product management.
type Service interface {
	List(ctx context.Context, query ListQuery) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo      *Repository
	TxRunner  txRunner
	Media     media.Service
	Search    search.Index
	MaxImages int
	Logger    *logger.Logger
}

type service struct {
	repo      *Repository
	tx        txRunner
	media     media.Service
	search    search.Index
	maxImages int
	logg      *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Media == nil {
		return nil, fmt.Errorf("media service required")
	}
	if params.Search == nil {
		params.Search = search.Noop{}
	}
	if params.MaxImages <= 0 {
		params.MaxImages = 8
	}
	return &service{
		repo:      params.Repo,
		tx:        params.TxRunner,
		media:     params.Media,
		search:    params.Search,
		maxImages: params.MaxImages,
		logg:      params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	filter, err := buildFilter(query)
	if err != nil {
		return nil, err
	}
	page := pagination.NewPage(query.Page, query.Limit)

	// Relevance ordering applies only when the index answered and no explicit sort was asked for.
	ranked := false
	if filter.Search != "" && s.search.Enabled() {
		ids, searchErr := s.search.SearchProductIDs(ctx, filter.Search)
		if searchErr != nil {
			s.warn(ctx, "products.search_fallback", searchErr)
		} else {
			filter.IDs = ids
			ranked = query.Sort == ""
		}
	}
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return &ListResult{Items: []ProductDTO{}, Page: page.Number, Limit: page.Limit}, nil
	}

	var (
		rows  []models.Product
		total int64
	)
	if ranked {
		rows, total, err = s.repo.List(ctx, filter)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
		}
		rows = pageOf(orderByRank(rows, filter.IDs), page)
	} else {
		filter.Offset = page.Offset()
		filter.Limit = page.Limit
		rows, total, err = s.repo.List(ctx, filter)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
		}
	}

	items, err := s.withRatings(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       page.Number,
		Limit:      page.Limit,
		TotalPages: page.TotalPages(total),
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.withRatings(ctx, []models.Product{*product})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if err := validateFields(input.Name, input.Price, input.Stock, input.Category); err != nil {
		return nil, err
	}
	if len(input.Images) > s.maxImages {
		return nil, tooManyImages(s.maxImages)
	}

	images, err := s.media.UploadImages(ctx, media.FolderProducts, input.Images)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Category:    input.Category,
		Images:      images,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		s.discardImages(ctx, images.PublicIDs())
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	s.index(ctx, *product)
	dto := FromModel(*product, RatingSummary{})
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
		changes["name"] = product.Name
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
		changes["description"] = product.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
		changes["price"] = product.Price
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
		changes["stock"] = product.Stock
	}
	if input.Category != nil {
		product.Category = *input.Category
		changes["category"] = product.Category
	}
	if err := validateFields(product.Name, product.Price, product.Stock, product.Category); err != nil {
		return nil, err
	}

	kept, removed := product.Images.Without(input.RemoveImageIDs)
	if len(kept)+len(input.NewImages) > s.maxImages {
		return nil, tooManyImages(s.maxImages)
	}
	added, err := s.media.UploadImages(ctx, media.FolderProducts, input.NewImages)
	if err != nil {
		return nil, err
	}
	if len(added) > 0 || len(removed) > 0 {
		product.Images = append(kept, added...)
		changes["images"] = product.Images
	}

	// Only touched columns are written: checkout decrements stock concurrently
	// and a full-row save would put sold units back.
	if err := s.repo.UpdateFields(ctx, product.ID, changes); err != nil {
		s.discardImages(ctx, added.PublicIDs())
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	s.discardImages(ctx, removed.PublicIDs())
	s.index(ctx, *product)

	return s.Get(ctx, product.ID)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}

	s.discardImages(ctx, product.Images.PublicIDs())
	if err := s.search.DeleteProduct(ctx, id); err != nil {
		s.warn(ctx, "products.unindex_failed", err)
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) withRatings(ctx context.Context, rows []models.Product) ([]ProductDTO, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	ratings, err := s.repo.RatingSummaries(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ratings")
	}
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row, ratings[row.ID]))
	}
	return out, nil
}

// index keeps the search index in step with the database. Failures are logged;
// listing falls back to SQL while the index is stale.
func (s *service) index(ctx context.Context, product models.Product) {
	if err := s.search.IndexProduct(ctx, product); err != nil {
		s.warn(ctx, "products.index_failed", err)
	}
}

func (s *service) discardImages(ctx context.Context, publicIDs []string) {
	if len(publicIDs) == 0 {
		return
	}
	if err := s.media.DeleteImages(ctx, publicIDs); err != nil {
		s.warn(ctx, "products.image_cleanup_failed", err)
	}
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithField(ctx, "error", err.Error())
	s.logg.Warn(ctx, msg)
}

func buildFilter(query ListQuery) (ListFilter, error) {
	filter := ListFilter{
		Search:  strings.TrimSpace(query.Search),
		InStock: query.InStock,
	}
	details := map[string]string{}

	if raw := strings.TrimSpace(query.Category); raw != "" {
		category, err := enums.ParseProductCategory(strings.ToLower(raw))
		if err != nil {
			details["category"] = "unknown category"
		} else {
			filter.Category = &category
		}
	}
	if raw := strings.TrimSpace(query.MinPrice); raw != "" {
		value, err := decimal.NewFromString(raw)
		if err != nil || value.IsNegative() {
			details["minPrice"] = "must be a non-negative number"
		} else {
			filter.MinPrice = &value
		}
	}
	if raw := strings.TrimSpace(query.MaxPrice); raw != "" {
		value, err := decimal.NewFromString(raw)
		if err != nil || value.IsNegative() {
			details["maxPrice"] = "must be a non-negative number"
		} else {
			filter.MaxPrice = &value
		}
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		details["minPrice"] = "must not exceed maxPrice"
	}
	switch query.Sort {
	case "", SortNewest, SortPriceAsc, SortPriceDesc, SortName:
		filter.Sort = query.Sort
	default:
		details["sort"] = "must be one of newest, price_asc, price_desc, name"
	}

	if len(details) > 0 {
		return ListFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid catalog filters").WithDetails(details)
	}
	return filter, nil
}

func validateFields(name string, price decimal.Decimal, stock int, category enums.ProductCategory) error {
	details := map[string]string{}
	switch {
	case name == "":
		details["name"] = "is required"
	case len(name) > maxNameLength:
		details["name"] = fmt.Sprintf("must be at most %d characters", maxNameLength)
	}
	if !price.IsPositive() {
		details["price"] = "must be greater than 0"
	}
	if stock < 0 {
		details["stock"] = "must be 0 or greater"
	}
	if !category.IsValid() {
		details["category"] = "unknown category"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(details)
	}
	return nil
}

func tooManyImages(max int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "too many images").
		WithDetails(map[string]any{"images": fmt.Sprintf("at most %d images per product", max)})
}

func orderByRank(rows []models.Product, ranked []uuid.UUID) []models.Product {
	rank := make(map[uuid.UUID]int, len(ranked))
	for i, id := range ranked {
		rank[id] = i
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rank[rows[i].ID] < rank[rows[j].ID]
	})
	return rows
}

func pageOf(rows []models.Product, page pagination.Page) []models.Product {
	start := page.Offset()
	if start >= len(rows) {
		return []models.Product{}
	}
	end := start + page.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}
