package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rainbowshop/backend/internal/events"
	mwauth "github.com/rainbowshop/backend/internal/middleware/auth"
	"github.com/rainbowshop/backend/internal/models"
	"github.com/rainbowshop/backend/internal/service/catalog"
	"github.com/rainbowshop/backend/internal/transport/response"
	"github.com/rainbowshop/backend/internal/uploads"
)

type ProductHandler struct {
	Catalog  *catalog.CatalogService
	Files    *uploads.Store
	Producer *events.Producer
}

func listFiltersFrom(c echo.Context) catalog.ListFilters {
	f := catalog.ListFilters{
		Category: c.QueryParam("category"),
		Brand:    c.QueryParam("brand"),
		InStock:  c.QueryParam("inStock") == "true",
		Featured: c.QueryParam("featured") == "true",
		Sort:     c.QueryParam("sort"),
	}
	if v := c.QueryParam("minPrice"); v != "" {
		if p, err := parseFloat(v); err == nil {
			f.MinPrice = &p
		}
	}
	if v := c.QueryParam("maxPrice"); v != "" {
		if p, err := parseFloat(v); err == nil {
			f.MaxPrice = &p
		}
	}
	return f
}

func (h *ProductHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), 10)

	res, err := h.Catalog.List(c.Request().Context(), listFiltersFrom(c), page, limit)
	if err != nil {
		return err
	}
	return response.Paged(c, models.Views(res.Items, time.Now()), res.Pagination)
}

func (h *ProductHandler) GetByID(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.Catalog.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "", product.View(time.Now()))
}

func (h *ProductHandler) GetBySlug(c echo.Context) error {
	product, err := h.Catalog.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "", product.View(time.Now()))
}

func (h *ProductHandler) Search(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), 10)

	res, err := h.Catalog.Search(c.Request().Context(), c.QueryParam("q"), page, limit)
	if err != nil {
		return err
	}
	return response.Paged(c, models.Views(res.Items, time.Now()), res.Pagination)
}

func (h *ProductHandler) ListByCategory(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), 10)

	res, err := h.Catalog.ListByCategory(c.Request().Context(), c.Param("category"), page, limit)
	if err != nil {
		return err
	}
	return response.Paged(c, models.Views(res.Items, time.Now()), res.Pagination)
}

func (h *ProductHandler) ListFeatured(c echo.Context) error {
	limit := parseIntDefault(c.QueryParam("limit"), catalog.DefaultFeaturedLimit)

	items, err := h.Catalog.ListFeatured(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "", models.Views(items, time.Now()))
}

func (h *ProductHandler) Create(c echo.Context) error {
	in, err := h.parseProductInput(c)
	if err != nil {
		return err
	}

	product, err := h.Catalog.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}

	publish(c, h.Producer, events.TopicProducts, fmt.Sprint(product.ID), map[string]any{
		"type":      "product_created",
		"productId": product.ID,
		"name":      product.Name,
	})

	return response.OK(c, http.StatusCreated, "Product created successfully", product.View(time.Now()))
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	in, err := h.parseProductInput(c)
	if err != nil {
		return err
	}

	product, err := h.Catalog.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}

	publish(c, h.Producer, events.TopicProducts, fmt.Sprint(product.ID), map[string]any{
		"type":      "product_updated",
		"productId": product.ID,
		"name":      product.Name,
	})

	return response.OK(c, http.StatusOK, "Product updated successfully", product.View(time.Now()))
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.Delete(c.Request().Context(), id); err != nil {
		return err
	}

	publish(c, h.Producer, events.TopicProducts, fmt.Sprint(id), map[string]any{
		"type":      "product_deleted",
		"productId": id,
	})

	return response.OK(c, http.StatusOK, "Product deleted successfully", nil)
}

func (h *ProductHandler) AddReview(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Rating  int    `json:"rating" validate:"required"`
		Comment string `json:"comment"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.Catalog.AddReview(c.Request().Context(), id, mwauth.UserID(c), req.Rating, req.Comment)
	if err != nil {
		return err
	}

	publish(c, h.Producer, events.TopicProducts, fmt.Sprint(id), map[string]any{
		"type":      "review_added",
		"productId": id,
		"userId":    mwauth.UserID(c),
		"rating":    req.Rating,
	})

	return response.OK(c, http.StatusOK, "Review added successfully", product.View(time.Now()))
}

func (h *ProductHandler) Stats(c echo.Context) error {
	stats, err := h.Catalog.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "", stats)
}

func (h *ProductHandler) BulkUpdate(c echo.Context) error {
	var req struct {
		ProductIDs []uint             `json:"productIds"`
		Updates    productInputFields `json:"updates"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}

	modified, err := h.Catalog.BulkUpdate(c.Request().Context(), req.ProductIDs, req.Updates.toInput())
	if err != nil {
		return err
	}

	return response.OK(c, http.StatusOK, fmt.Sprintf("Updated %d products", modified), map[string]any{
		"modifiedCount": modified,
	})
}
