package products

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/domain/product"
)

type fakeStore struct {
	SearchFn func(ctx context.Context, f product.Filter, offset, limit int) (product.Page, error)
	GetFn    func(ctx context.Context, id string) (product.Product, error)
	CreateFn func(ctx context.Context, in CreateInput) (product.Product, error)
	UpdateFn func(ctx context.Context, id string, p Patch) (product.Product, error)
	DeleteFn func(ctx context.Context, id string) error
}

func (f *fakeStore) Search(ctx context.Context, fl product.Filter, offset, limit int) (product.Page, error) {
	return f.SearchFn(ctx, fl, offset, limit)
}
func (f *fakeStore) Get(ctx context.Context, id string) (product.Product, error) {
	return f.GetFn(ctx, id)
}
func (f *fakeStore) Create(ctx context.Context, in CreateInput) (product.Product, error) {
	return f.CreateFn(ctx, in)
}
func (f *fakeStore) Update(ctx context.Context, id string, p Patch) (product.Product, error) {
	return f.UpdateFn(ctx, id, p)
}
func (f *fakeStore) Delete(ctx context.Context, id string) error {
	return f.DeleteFn(ctx, id)
}

func router(s Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, zap.NewNop())
	r := gin.New()
	r.GET("/products", h.ListPublic)
	r.GET("/products/:id", h.GetPublic)
	r.POST("/admin/products", h.AdminCreate)
	r.PATCH("/admin/products/:id", h.AdminUpdate)
	r.DELETE("/admin/products/:id", h.AdminDelete)
	return r
}

func TestListPublicPassesFilterAndPaging(t *testing.T) {
	var got product.Filter
	var gotOffset, gotLimit int
	s := &fakeStore{SearchFn: func(_ context.Context, f product.Filter, offset, limit int) (product.Page, error) {
		got, gotOffset, gotLimit = f, offset, limit
		return product.Page{Items: []product.Product{{ID: "p1", Name: "Lip Balm"}}, Total: 1, Limit: 12}, nil
	}}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products?q=lip&category=makeup&min_price=oops&sort=price_desc&offset=24&limit=6", nil)
	router(s).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lip", got.Search)
	assert.Equal(t, "makeup", got.Category)
	assert.Nil(t, got.MinPrice)
	assert.Equal(t, product.SortPriceDesc, got.Sort)
	assert.Equal(t, 24, gotOffset)
	assert.Equal(t, 6, gotLimit)

	var page product.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "Lip Balm", page.Items[0].Name)
}

func TestGetPublicNotFound(t *testing.T) {
	s := &fakeStore{GetFn: func(context.Context, string) (product.Product, error) {
		return product.Product{}, ErrNotFound
	}}

	w := httptest.NewRecorder()
	router(s).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"product not found"}`, w.Body.String())
}

func TestAdminCreateRejectsNonPositivePrice(t *testing.T) {
	s := &fakeStore{CreateFn: func(context.Context, CreateInput) (product.Product, error) {
		t.Fatal("store must not be called")
		return product.Product{}, nil
	}}

	w := httptest.NewRecorder()
	body := `{"name":"Toner","price":0}`
	router(s).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminCreateDefaultsInStock(t *testing.T) {
	var in CreateInput
	s := &fakeStore{CreateFn: func(_ context.Context, got CreateInput) (product.Product, error) {
		in = got
		return product.Product{ID: "new", Name: got.Name, Price: got.Price, InStock: got.InStock}, nil
	}}

	w := httptest.NewRecorder()
	body := `{"name":"Toner","price":"12.50","images":["t.jpg"]}`
	router(s).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, in.InStock)
	assert.True(t, in.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, []string{"t.jpg"}, in.Images)
}

func TestAdminUpdatePartial(t *testing.T) {
	var patch Patch
	s := &fakeStore{UpdateFn: func(_ context.Context, id string, p Patch) (product.Product, error) {
		patch = p
		return product.Product{ID: id}, nil
	}}

	w := httptest.NewRecorder()
	body := `{"in_stock":false}`
	router(s).ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/admin/products/abc", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, patch.InStock)
	assert.False(t, *patch.InStock)
	assert.Nil(t, patch.Name)
	assert.Nil(t, patch.Price)
}

func TestAdminDelete(t *testing.T) {
	s := &fakeStore{DeleteFn: func(_ context.Context, id string) error {
		if id == "gone" {
			return ErrNotFound
		}
		return nil
	}}
	r := router(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin/products/ok", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin/products/gone", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
