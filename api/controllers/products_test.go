package controllers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/daisydays/daisydays-backend/internal/products"
	"github.com/daisydays/daisydays-backend/pkg/enums"
)

type stubProductService struct {
	listQuery products.ListQuery
	created   products.CreateProductInput
	imageData []string
	updated   products.UpdateProductInput
	deleted   uuid.UUID
}

func (s *stubProductService) List(ctx context.Context, query products.ListQuery) (*products.ListResult, error) {
	s.listQuery = query
	return &products.ListResult{Items: []products.ProductDTO{}, Page: query.Page, Limit: query.Limit}, nil
}

func (s *stubProductService) Get(ctx context.Context, id uuid.UUID) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: id}, nil
}

func (s *stubProductService) Create(ctx context.Context, input products.CreateProductInput) (*products.ProductDTO, error) {
	s.created = input
	for _, img := range input.Images {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(img.Body)
		s.imageData = append(s.imageData, buf.String())
	}
	return &products.ProductDTO{ID: uuid.New(), Name: input.Name, Price: input.Price, Category: input.Category}, nil
}

func (s *stubProductService) Update(ctx context.Context, id uuid.UUID, input products.UpdateProductInput) (*products.ProductDTO, error) {
	s.updated = input
	return &products.ProductDTO{ID: id}, nil
}

func (s *stubProductService) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = id
	return nil
}

func TestListProductsParsesFilters(t *testing.T) {
	svc := &stubProductService{}
	req := httptest.NewRequest(http.MethodGet, "/api/products?category=roses&search=red&minPrice=5&maxPrice=50&inStock=true&sort=price_asc&page=2&limit=24", nil)
	resp := httptest.NewRecorder()

	ListProducts(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	want := products.ListQuery{
		Category: "roses",
		Search:   "red",
		MinPrice: "5",
		MaxPrice: "50",
		InStock:  true,
		Sort:     "price_asc",
		Page:     2,
		Limit:    24,
	}
	if svc.listQuery != want {
		t.Fatalf("unexpected query %+v", svc.listQuery)
	}
}

func TestListProductsRejectsBadPaging(t *testing.T) {
	for _, query := range []string{"page=0", "limit=500", "inStock=maybe"} {
		resp := httptest.NewRecorder()
		ListProducts(&stubProductService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/products?"+query, nil))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", query, resp.Code)
		}
	}
}

func TestCreateProductJSON(t *testing.T) {
	svc := &stubProductService{}
	body := `{"name":"Sunny Bunch","description":"Bright","price":"24.50","stock":7,"category":"Sunflowers"}`
	resp := httptest.NewRecorder()

	CreateProduct(svc, 1<<20, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body)))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.created.Category != enums.ProductCategorySunflowers {
		t.Fatalf("expected sunflowers, got %s", svc.created.Category)
	}
	if !svc.created.Price.Equal(decimal.RequireFromString("24.50")) || svc.created.Stock != 7 {
		t.Fatalf("unexpected input %+v", svc.created)
	}
}

func TestCreateProductRejectsUnknownCategory(t *testing.T) {
	body := `{"name":"Cactus","price":"10","stock":1,"category":"succulents"}`
	resp := httptest.NewRecorder()

	CreateProduct(&stubProductService{}, 1<<20, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(body)))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateProductMultipartWithImages(t *testing.T) {
	svc := &stubProductService{}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "Tulip Mix")
	_ = mw.WriteField("price", "18")
	_ = mw.WriteField("stock", "3")
	_ = mw.WriteField("category", "tulips")
	for _, name := range []string{"a.jpg", "b.jpg"} {
		part, err := mw.CreateFormFile("images", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = part.Write([]byte("data-" + name))
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()

	CreateProduct(svc, 1<<20, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.imageData) != 2 || svc.imageData[0] != "data-a.jpg" {
		t.Fatalf("unexpected images %v", svc.imageData)
	}
	if svc.created.Stock != 3 || svc.created.Category != enums.ProductCategoryTulips {
		t.Fatalf("unexpected input %+v", svc.created)
	}
}

func TestCreateProductMultipartRejectsBadNumbers(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "Tulip Mix")
	_ = mw.WriteField("price", "cheap")
	_ = mw.WriteField("stock", "a few")
	_ = mw.WriteField("category", "tulips")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()

	CreateProduct(&stubProductService{}, 1<<20, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUpdateProductMultipartRemoveImageIDs(t *testing.T) {
	svc := &stubProductService{}
	id := uuid.New()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("stock", "0")
	_ = mw.WriteField("removeImageIds", "img-1, img-2")
	_ = mw.WriteField("removeImageIds", "img-3")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPut, "/api/products/"+id.String(), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = withURLParams(req, map[string]string{"id": id.String()})
	resp := httptest.NewRecorder()

	UpdateProduct(svc, 1<<20, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got := strings.Join(svc.updated.RemoveImageIDs, ","); got != "img-1,img-2,img-3" {
		t.Fatalf("unexpected remove ids %q", got)
	}
	if svc.updated.Stock == nil || *svc.updated.Stock != 0 {
		t.Fatal("expected stock set to zero")
	}
	if svc.updated.Name != nil || svc.updated.Price != nil {
		t.Fatal("expected untouched fields to stay nil")
	}
}

func TestDeleteProductRejectsBadID(t *testing.T) {
	req := withURLParams(httptest.NewRequest(http.MethodDelete, "/api/products/nope", nil), map[string]string{"id": "nope"})
	resp := httptest.NewRecorder()

	DeleteProduct(&stubProductService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
