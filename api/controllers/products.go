package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/daisydays/daisydays-backend/api/responses"
	"github.com/daisydays/daisydays-backend/api/validators"
	"github.com/daisydays/daisydays-backend/internal/media"
	"github.com/daisydays/daisydays-backend/internal/products"
	"github.com/daisydays/daisydays-backend/pkg/enums"
	pkgerrors "github.com/daisydays/daisydays-backend/pkg/errors"
	"github.com/daisydays/daisydays-backend/pkg/logger"
)

// ListProducts serves the public catalog.
func ListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 12, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inStock, err := validators.ParseQueryBool(r, "inStock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q := r.URL.Query()
		result, err := svc.List(r.Context(), products.ListQuery{
			Category: strings.TrimSpace(q.Get("category")),
			Search:   validators.SanitizeString(q.Get("search"), 120),
			MinPrice: strings.TrimSpace(q.Get("minPrice")),
			MaxPrice: strings.TrimSpace(q.Get("maxPrice")),
			InStock:  inStock,
			Sort:     strings.TrimSpace(q.Get("sort")),
			Page:     page,
			Limit:    limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type createProductRequest struct {
	Name        string          `json:"name" validate:"required,max=160"`
	Description string          `json:"description" validate:"max=4000"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category" validate:"required"`
}

type updateProductRequest struct {
	Name           *string          `json:"name,omitempty" validate:"omitempty,min=1,max=160"`
	Description    *string          `json:"description,omitempty" validate:"omitempty,max=4000"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Stock          *int             `json:"stock,omitempty"`
	Category       *string          `json:"category,omitempty"`
	RemoveImageIDs []string         `json:"removeImageIds,omitempty"`
}

// CreateProduct accepts multipart with an images field, or plain JSON.
func CreateProduct(svc products.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}

		var (
			req     createProductRequest
			uploads []media.Upload
			cleanup = func() error { return nil }
		)
		if validators.IsMultipart(r) {
			if err := validators.ParseMultipart(w, r, maxUploadBytes); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			var err error
			req, err = createProductFromForm(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			uploads, cleanup, err = validators.FormFiles(r, "images")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		} else if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeUploads(r, logg, cleanup)

		category, err := parseCategory(req.Category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), products.CreateProductInput{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Stock:       req.Stock,
			Category:    category,
			Images:      uploads,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// UpdateProduct applies a partial update. New images are appended and
// removeImageIds drops images from the product and the image host.
func UpdateProduct(svc products.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var (
			req     updateProductRequest
			uploads []media.Upload
			cleanup = func() error { return nil }
		)
		if validators.IsMultipart(r) {
			if err := validators.ParseMultipart(w, r, maxUploadBytes); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			req, err = updateProductFromForm(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			uploads, cleanup, err = validators.FormFiles(r, "images")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		} else if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeUploads(r, logg, cleanup)

		input := products.UpdateProductInput{
			Name:           req.Name,
			Description:    req.Description,
			Price:          req.Price,
			Stock:          req.Stock,
			NewImages:      uploads,
			RemoveImageIDs: req.RemoveImageIDs,
		}
		if req.Category != nil {
			category, err := parseCategory(*req.Category)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Category = &category
		}

		product, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func DeleteProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func createProductFromForm(r *http.Request) (createProductRequest, error) {
	var req createProductRequest
	req.Name, _ = validators.FormValue(r, "name")
	req.Description, _ = validators.FormValue(r, "description")
	req.Category, _ = validators.FormValue(r, "category")

	details := map[string]string{}
	if raw, ok := validators.FormValue(r, "price"); ok {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			details["price"] = "must be a number"
		}
		req.Price = price
	}
	if raw, ok := validators.FormValue(r, "stock"); ok {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			details["stock"] = "must be a whole number"
		}
		req.Stock = stock
	}
	if len(details) > 0 {
		return req, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return req, validators.ValidateStruct(&req)
}

func updateProductFromForm(r *http.Request) (updateProductRequest, error) {
	var req updateProductRequest
	if v, ok := validators.FormValue(r, "name"); ok {
		req.Name = &v
	}
	if v, ok := validators.FormValue(r, "description"); ok {
		req.Description = &v
	}
	if v, ok := validators.FormValue(r, "category"); ok {
		req.Category = &v
	}

	details := map[string]string{}
	if raw, ok := validators.FormValue(r, "price"); ok {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			details["price"] = "must be a number"
		}
		req.Price = &price
	}
	if raw, ok := validators.FormValue(r, "stock"); ok {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			details["stock"] = "must be a whole number"
		}
		req.Stock = &stock
	}
	if len(details) > 0 {
		return req, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}

	for _, raw := range validators.FormValues(r, "removeImageIds") {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				req.RemoveImageIDs = append(req.RemoveImageIDs, id)
			}
		}
	}
	return req, validators.ValidateStruct(&req)
}

func parseCategory(raw string) (enums.ProductCategory, error) {
	category, err := enums.ParseProductCategory(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]any{"category": "must be one of " + categoryList()})
	}
	return category, nil
}

func categoryList() string {
	all := enums.ProductCategories()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func closeUploads(r *http.Request, logg *logger.Logger, cleanup func() error) {
	if err := cleanup(); err != nil && logg != nil {
		logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "close uploaded files")
	}
}
