package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/rainbowshop/backend/internal/models"
)

func (env *testEnv) seedProduct(name, slug, category string, price float64, stock uint, featured bool) models.Product {
	env.T.Helper()
	p := models.Product{
		Name: name, Slug: slug, Category: category,
		Price: price, Stock: stock, IsFeatured: featured, IsActive: true,
	}
	require.NoError(env.T, env.DB.Create(&p).Error)
	return p
}

func TestProductListAndPagination(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 25; i++ {
		env.seedProduct(fmt.Sprintf("P%02d", i), fmt.Sprintf("p-%02d", i), "misc", float64(i+1), 5, false)
	}

	rec, res := env.doJSON(http.MethodGet, "/api/products?page=3&limit=10", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []models.ProductView
	require.NoError(t, json.Unmarshal(res.Data, &items))
	require.Len(t, items, 5)

	var pg struct {
		Page       int   `json:"page"`
		Total      int64 `json:"total"`
		TotalPages int   `json:"totalPages"`
		HasNext    bool  `json:"hasNext"`
		HasPrev    bool  `json:"hasPrev"`
	}
	require.NoError(t, json.Unmarshal(res.Pagination, &pg))
	require.Equal(t, 3, pg.Page)
	require.Equal(t, int64(25), pg.Total)
	require.Equal(t, 3, pg.TotalPages)
	require.False(t, pg.HasNext)
	require.True(t, pg.HasPrev)
}

func TestProductStaticRoutesNotShadowed(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct("Star", "star", "toys", 10, 5, true)

	rec, res := env.doJSON(http.MethodGet, "/api/products/featured", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []models.ProductView
	require.NoError(t, json.Unmarshal(res.Data, &items))
	require.Len(t, items, 1)

	rec, res = env.doJSON(http.MethodGet, "/api/products/slug/star", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view models.ProductView
	require.NoError(t, json.Unmarshal(res.Data, &view))
	require.Equal(t, "Star", view.Name)

	rec, _ = env.doJSON(http.MethodGet, "/api/products/search?q=star", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.doJSON(http.MethodGet, "/api/products/search", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductCreateWithStringEncodedFields(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.seedUser("Admin", "admin@example.com", "secret1", models.RoleAdmin, false)

	rec, res := env.doJSON(http.MethodPost, "/api/products", map[string]any{
		"name":     "Sneakers",
		"price":    99.5,
		"tags":     `["sport","casual","sport"]`,
		"discount": `{not valid json`,
		"shipping": "also broken",
	}, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "Product created successfully", res.Message)

	var view models.ProductView
	require.NoError(t, json.Unmarshal(res.Data, &view))
	require.Equal(t, []string{"sport", "casual"}, view.Tags)
	require.Equal(t, 0.0, view.Discount.Percentage)
	require.Nil(t, view.Discount.ValidUntil)
	require.False(t, view.Shipping.FreeShipping)
	require.Equal(t, "sneakers", view.SEO.Slug)
}

func TestProductCreateMultipartUpload(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.seedUser("Admin", "admin@example.com", "secret1", models.RoleAdmin, false)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("name", "Camera"))
	require.NoError(t, w.WriteField("price", "300"))
	require.NoError(t, w.WriteField("stock", "4"))
	require.NoError(t, w.WriteField("tags", `["photo"]`))
	require.NoError(t, w.WriteField("images", `[{"url":"https://cdn.example.com/side.jpg","alt":"side view"}]`))
	fw, err := w.CreateFormFile("images", "front.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var res envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	var view models.ProductView
	require.NoError(t, json.Unmarshal(res.Data, &view))

	require.Len(t, view.Images, 2)
	// The uploaded file leads and becomes primary; the URL image follows.
	require.True(t, view.Images[0].IsPrimary)
	require.Contains(t, view.Images[0].URL, "/uploads/products/")
	require.Equal(t, "https://cdn.example.com/side.jpg", view.Images[1].URL)
	require.False(t, view.Images[1].IsPrimary)
	require.Equal(t, []string{"photo"}, view.Tags)
}

func TestProductUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.seedUser("Admin", "admin@example.com", "secret1", models.RoleAdmin, false)
	p := env.seedProduct("Lamp", "lamp", "home", 20, 3, false)

	rec, res := env.doJSON(http.MethodPut, fmt.Sprintf("/api/products/%d", p.ID), map[string]any{
		"price": 25,
	}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var view models.ProductView
	require.NoError(t, json.Unmarshal(res.Data, &view))
	require.Equal(t, 25.0, view.Price)
	require.Equal(t, "Lamp", view.Name)

	rec, res = env.doJSON(http.MethodDelete, fmt.Sprintf("/api/products/%d", p.ID), nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Product deleted successfully", res.Message)

	// Soft deleted: still fetchable by id, gone from the listing.
	rec, res = env.doJSON(http.MethodGet, fmt.Sprintf("/api/products/%d", p.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(res.Data, &view))
	require.False(t, view.IsActive)

	rec, res = env.doJSON(http.MethodGet, "/api/products", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []models.ProductView
	require.NoError(t, json.Unmarshal(res.Data, &items))
	require.Empty(t, items)
}

func TestAddReview(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.seedUser("User", "user@example.com", "secret1", models.RoleUser, false)
	p := env.seedProduct("Rated", "rated", "misc", 10, 5, false)

	rec, _ := env.doJSON(http.MethodPost, fmt.Sprintf("/api/products/%d/reviews", p.ID),
		map[string]any{"rating": 5, "comment": "great"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = env.doJSON(http.MethodPost, fmt.Sprintf("/api/products/%d/reviews", p.ID),
		map[string]any{"rating": 6}, userToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, res := env.doJSON(http.MethodPost, fmt.Sprintf("/api/products/%d/reviews", p.ID),
		map[string]any{"rating": 4, "comment": "solid"}, userToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var view models.ProductView
	require.NoError(t, json.Unmarshal(res.Data, &view))
	require.Equal(t, 4.0, view.Ratings.Average)
	require.Equal(t, 1, view.Ratings.Count)
}

func TestBulkUpdate(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.seedUser("Admin", "admin@example.com", "secret1", models.RoleAdmin, false)
	a := env.seedProduct("A", "a", "misc", 10, 5, false)
	b := env.seedProduct("B", "b", "misc", 10, 5, false)

	rec, res := env.doJSON(http.MethodPut, "/api/products/bulk/update", map[string]any{
		"productIds": []uint{a.ID, b.ID},
		"updates":    map[string]any{"isFeatured": true},
	}, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		ModifiedCount int64 `json:"modifiedCount"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &data))
	require.Equal(t, int64(2), data.ModifiedCount)
}

func TestCheckout(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.seedUser("Buyer", "buyer@example.com", "secret1", models.RoleUser, false)
	p := env.seedProduct("Limited", "limited", "misc", 40, 2, false)

	rec, _ := env.doJSON(http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{{"productId": p.ID, "quantity": 2}},
	}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, res := env.doJSON(http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{{"productId": p.ID, "quantity": 2}},
	}, userToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "Order placed successfully", res.Message)

	var data struct {
		Order models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &data))
	require.Equal(t, 80.0, data.Order.TotalAmount)

	// Stock is spent now, a second checkout oversells.
	rec, _ = env.doJSON(http.MethodPost, "/api/orders", map[string]any{
		"items": []map[string]any{{"productId": p.ID, "quantity": 1}},
	}, userToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, res = env.doJSON(http.MethodGet, "/api/auth/purchase-history", nil, userToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		PurchaseHistory []models.Order `json:"purchaseHistory"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &history))
	require.Len(t, history.PurchaseHistory, 1)
	require.Len(t, history.PurchaseHistory[0].Products, 1)
}
