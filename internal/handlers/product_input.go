package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rainbowshop/backend/internal/models"
	"github.com/rainbowshop/backend/internal/service/catalog"
)

// productInputFields is the wire shape for product create/update/bulk
// bodies. Tags, discount, shipping and images stay raw because the admin
// console submits them as JSON-encoded strings inside multipart forms;
// decode failures fall back to documented defaults instead of failing
// the request.
type productInputFields struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Price       *float64        `json:"price"`
	Stock       *uint           `json:"stock"`
	Category    *string         `json:"category"`
	Subcategory *string         `json:"subcategory"`
	Brand       *string         `json:"brand"`
	Slug        *string         `json:"slug"`
	IsFeatured  *bool           `json:"isFeatured"`
	IsActive    *bool           `json:"isActive"`
	Tags        json.RawMessage `json:"tags"`
	Discount    json.RawMessage `json:"discount"`
	Shipping    json.RawMessage `json:"shipping"`
	Images      json.RawMessage `json:"images"`
	ImageAlt    string          `json:"imageAlt"`
	SEO         *models.SEO     `json:"seo"`
}

func (f productInputFields) toInput() catalog.ProductInput {
	in := catalog.ProductInput{
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price,
		Stock:       f.Stock,
		Category:    f.Category,
		Subcategory: f.Subcategory,
		Brand:       f.Brand,
		Slug:        f.Slug,
		IsFeatured:  f.IsFeatured,
		IsActive:    f.IsActive,
	}
	if in.Slug == nil && f.SEO != nil && f.SEO.Slug != "" {
		in.Slug = &f.SEO.Slug
	}
	if f.Tags != nil {
		tags := decodeTags(f.Tags)
		in.Tags = &tags
	}
	if f.Discount != nil {
		d := decodeDiscount(f.Discount)
		in.Discount = &d
	}
	if f.Shipping != nil {
		s := decodeShipping(f.Shipping)
		in.Shipping = &s
	}
	if f.Images != nil {
		images := decodeImages(f.Images)
		in.Images = &images
	}
	return in
}

// unwrap peels one level of string encoding: `"[\"a\"]"` becomes `["a"]`.
func unwrap(raw json.RawMessage) ([]byte, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, `"`) {
		return raw, false
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return raw, false
	}
	return []byte(inner), true
}

// decodeTags yields a deduplicated tag set; malformed input yields the
// empty set.
func decodeTags(raw json.RawMessage) []string {
	data, _ := unwrap(raw)
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return []string{}
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func decodeDiscount(raw json.RawMessage) models.Discount {
	data, _ := unwrap(raw)
	var d models.Discount
	if err := json.Unmarshal(data, &d); err != nil {
		return models.Discount{Percentage: 0, ValidUntil: nil}
	}
	return d
}

func decodeShipping(raw json.RawMessage) models.Shipping {
	data, _ := unwrap(raw)
	var s models.Shipping
	if err := json.Unmarshal(data, &s); err != nil {
		return models.Shipping{Weight: nil, FreeShipping: false, ShippingCost: 0}
	}
	return s
}

// decodeImages accepts an image array, or a bare URL string which becomes
// a single primary image.
func decodeImages(raw json.RawMessage) []models.ProductImage {
	data, wasString := unwrap(raw)
	var images []models.ProductImage
	if err := json.Unmarshal(data, &images); err != nil {
		if wasString {
			return []models.ProductImage{{URL: string(data), Alt: "Product image", IsPrimary: true}}
		}
		return []models.ProductImage{}
	}
	return images
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// parseProductInput handles both JSON bodies and multipart forms with
// file uploads. Uploaded files take precedence as primary images; URL
// images not already pointing at local storage are appended after them.
func (h *ProductHandler) parseProductInput(c echo.Context) (catalog.ProductInput, error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		return h.parseMultipart(c)
	}

	var fields productInputFields
	if err := c.Bind(&fields); err != nil {
		return catalog.ProductInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return fields.toInput(), nil
}

func (h *ProductHandler) parseMultipart(c echo.Context) (catalog.ProductInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return catalog.ProductInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}

	fields := productInputFields{}
	get := func(name string) (string, bool) {
		vs, ok := form.Value[name]
		if !ok || len(vs) == 0 {
			return "", false
		}
		return vs[0], true
	}

	if v, ok := get("name"); ok {
		fields.Name = &v
	}
	if v, ok := get("description"); ok {
		fields.Description = &v
	}
	if v, ok := get("price"); ok {
		if p, err := parseFloat(v); err == nil {
			fields.Price = &p
		}
	}
	if v, ok := get("stock"); ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			st := uint(n)
			fields.Stock = &st
		}
	}
	if v, ok := get("category"); ok {
		fields.Category = &v
	}
	if v, ok := get("subcategory"); ok {
		fields.Subcategory = &v
	}
	if v, ok := get("brand"); ok {
		fields.Brand = &v
	}
	if v, ok := get("slug"); ok {
		fields.Slug = &v
	}
	if v, ok := get("isFeatured"); ok {
		b := v == "true"
		fields.IsFeatured = &b
	}
	if v, ok := get("isActive"); ok {
		b := v == "true"
		fields.IsActive = &b
	}
	if v, ok := get("tags"); ok {
		fields.Tags = json.RawMessage(strconv.Quote(v))
	}
	if v, ok := get("discount"); ok {
		fields.Discount = json.RawMessage(strconv.Quote(v))
	}
	if v, ok := get("shipping"); ok {
		fields.Shipping = json.RawMessage(strconv.Quote(v))
	}
	if v, ok := get("images"); ok {
		fields.Images = json.RawMessage(strconv.Quote(v))
	}
	if v, ok := get("imageAlt"); ok {
		fields.ImageAlt = v
	}

	in := fields.toInput()

	files := form.File["images"]
	if len(files) == 0 {
		return in, nil
	}

	uploaded := make([]models.ProductImage, 0, len(files))
	for i, fh := range files {
		url, err := h.Files.SaveProductImage(fh)
		if err != nil {
			return catalog.ProductInput{}, err
		}
		alt := fields.ImageAlt
		if alt == "" {
			alt = fmt.Sprintf("Product image %d", i+1)
		}
		uploaded = append(uploaded, models.ProductImage{
			URL:       url,
			Alt:       alt,
			IsPrimary: i == 0,
		})
	}

	if in.Images != nil {
		for _, img := range *in.Images {
			if img.URL != "" && !h.Files.IsLocal(img.URL) {
				uploaded = append(uploaded, img)
			}
		}
	}
	in.Images = &uploaded

	return in, nil
}
