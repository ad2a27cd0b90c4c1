package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"gorm.io/gorm"

	"github.com/rainbowshop/backend/internal/apperr"
	"github.com/rainbowshop/backend/internal/es"
	"github.com/rainbowshop/backend/internal/logging"
	"github.com/rainbowshop/backend/internal/models"
	"github.com/rainbowshop/backend/internal/uploads"
	"github.com/rainbowshop/backend/internal/util"
)

const (
	DefaultFeaturedLimit = 8
	lowStockThreshold    = 10
)

// CatalogService owns product CRUD, browse queries, reviews and stats.
// ES is optional; when nil, search runs against the database.
type CatalogService struct {
	DB    *gorm.DB
	ES    *elasticsearch.Client
	Files *uploads.Store
}

// ListFilters compose conjunctively. Zero values mean "not filtered".
type ListFilters struct {
	Category string
	Brand    string
	MinPrice *float64
	MaxPrice *float64
	InStock  bool
	Featured bool
	Sort     string
}

// ProductInput is the write shape for create, update and bulk update.
// Nil fields are left untouched; slices replace wholesale.
type ProductInput struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *uint
	Category    *string
	Subcategory *string
	Brand       *string
	Tags        *[]string
	IsFeatured  *bool
	IsActive    *bool
	Slug        *string
	Discount    *models.Discount
	Shipping    *models.Shipping
	Images      *[]models.ProductImage
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

type Page struct {
	Items      []models.Product
	Pagination Pagination
}

func paginate(page, limit int, total int64) Pagination {
	totalPages := util.TotalPages(total, limit)
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

func (s *CatalogService) preloaded(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Reviews")
}

func applySort(q *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case "price_asc":
		return q.Order("price ASC")
	case "price_desc":
		return q.Order("price DESC")
	case "name_asc":
		return q.Order("name ASC")
	case "name_desc":
		return q.Order("name DESC")
	case "rating":
		return q.Order("(SELECT AVG(rating) FROM reviews WHERE reviews.product_id = products.id) DESC")
	case "oldest":
		return q.Order("created_at ASC")
	default: // newest
		return q.Order("created_at DESC")
	}
}

// List pages over active products with conjunctive filters.
func (s *CatalogService) List(ctx context.Context, f ListFilters, page, limit int) (*Page, error) {
	offset, limit := util.Calculate(page, limit)
	if page < 1 {
		page = 1
	}

	q := s.DB.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Brand != "" {
		q = q.Where("brand = ?", f.Brand)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.InStock {
		q = q.Where("stock > ?", 0)
	}
	if f.Featured {
		q = q.Where("is_featured = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Product
	err := applySort(q, f.Sort).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Reviews").
		Offset(offset).Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &Page{Items: items, Pagination: paginate(page, limit, total)}, nil
}

// GetByID looks a product up regardless of its active flag. Soft-deleted
// products stay addressable by id so stored references keep resolving;
// only the browse queries filter them out.
func (s *CatalogService) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.preloaded(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// GetBySlug mirrors GetByID for the seo slug.
func (s *CatalogService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := s.preloaded(ctx).Where("slug = ?", slug).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

func (s *CatalogService) uniqueSlug(ctx context.Context, base string) (string, error) {
	slug := base
	for i := 2; ; i++ {
		var n int64
		if err := s.DB.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// Create persists a new product. The handler has already resolved uploads
// and merged the image list; the first image is the primary one.
func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create")

	if in.Name == nil || *in.Name == "" || in.Price == nil {
		return nil, apperr.ErrInvalidInput
	}
	if *in.Price < 0 {
		return nil, apperr.ErrInvalidInput
	}

	product := models.Product{
		Name:     *in.Name,
		Price:    *in.Price,
		IsActive: true,
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if in.Category != nil {
		product.Category = *in.Category
	}
	if in.Subcategory != nil {
		product.Subcategory = *in.Subcategory
	}
	if in.Brand != nil {
		product.Brand = *in.Brand
	}
	if in.Tags != nil {
		product.Tags = *in.Tags
	}
	if in.IsFeatured != nil {
		product.IsFeatured = *in.IsFeatured
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	if in.Discount != nil {
		product.DiscountPercentage = in.Discount.Percentage
		product.DiscountValidUntil = in.Discount.ValidUntil
	}
	if in.Shipping != nil {
		product.ShippingWeight = in.Shipping.Weight
		product.FreeShipping = in.Shipping.FreeShipping
		product.ShippingCost = in.Shipping.ShippingCost
	}

	base := ""
	if in.Slug != nil && *in.Slug != "" {
		base = slugify(*in.Slug)
	}
	if base == "" {
		base = slugify(product.Name)
	}
	slug, err := s.uniqueSlug(ctx, base)
	if err != nil {
		return nil, err
	}
	product.Slug = slug

	if in.Images != nil {
		product.Images = normalizeImages(*in.Images)
	}

	if err := s.DB.WithContext(ctx).Create(&product).Error; err != nil {
		l.Error("create_failed", "reason", "db create", "error", err)
		return nil, err
	}

	l.Info("product_created", "product_id", product.ID, "slug", product.Slug)
	return s.GetByID(ctx, product.ID)
}

// normalizeImages re-numbers positions and keeps a single primary image:
// the first one supplied.
func normalizeImages(images []models.ProductImage) []models.ProductImage {
	for i := range images {
		images[i].ID = 0
		images[i].Position = i
		images[i].IsPrimary = i == 0
	}
	return images
}

// Update applies a partial update. Supplied fields replace prior values;
// the image list, when present, is replaced wholesale.
func (s *CatalogService) Update(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Price != nil && *in.Price < 0 {
		return nil, apperr.ErrInvalidInput
	}

	updates := columnUpdates(in)
	if in.Slug != nil && *in.Slug != "" && slugify(*in.Slug) != product.Slug {
		slug, err := s.uniqueSlug(ctx, slugify(*in.Slug))
		if err != nil {
			return nil, err
		}
		updates["slug"] = slug
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(product).Updates(updates).Error; err != nil {
				return err
			}
		}
		if in.Images != nil {
			if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
				return err
			}
			images := normalizeImages(*in.Images)
			for i := range images {
				images[i].ProductID = id
			}
			if len(images) > 0 {
				if err := tx.Create(&images).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// columnUpdates maps the supplied input fields to their columns.
func columnUpdates(in ProductInput) map[string]any {
	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Price != nil {
		updates["price"] = *in.Price
	}
	if in.Stock != nil {
		updates["stock"] = *in.Stock
	}
	if in.Category != nil {
		updates["category"] = *in.Category
	}
	if in.Subcategory != nil {
		updates["subcategory"] = *in.Subcategory
	}
	if in.Brand != nil {
		updates["brand"] = *in.Brand
	}
	if in.Tags != nil {
		// The tags column holds the JSON-serialized form; map updates
		// bypass the field serializer.
		b, _ := json.Marshal(*in.Tags)
		updates["tags"] = string(b)
	}
	if in.IsFeatured != nil {
		updates["is_featured"] = *in.IsFeatured
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.Discount != nil {
		updates["discount_percentage"] = in.Discount.Percentage
		updates["discount_valid_until"] = in.Discount.ValidUntil
	}
	if in.Shipping != nil {
		updates["shipping_weight"] = in.Shipping.Weight
		updates["free_shipping"] = in.Shipping.FreeShipping
		updates["shipping_cost"] = in.Shipping.ShippingCost
	}
	return updates
}

// Delete soft-deletes: flips isActive and purges locally stored image
// files. File removal is best effort and not atomic with the flag flip.
func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete", "product_id", id)

	product, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.DB.WithContext(ctx).Model(product).Update("is_active", false).Error; err != nil {
		return err
	}

	if s.Files != nil {
		for _, img := range product.Images {
			if err := s.Files.Remove(img.URL); err != nil {
				l.Warn("image_cleanup_failed", "url", img.URL, "error", err)
			}
		}
	}

	l.Info("product_deleted")
	return nil
}

// Search matches q case-insensitively across name, description and tags,
// active products only. Uses elasticsearch when configured, otherwise a
// LIKE fallback; an ES failure also degrades to the fallback.
func (s *CatalogService) Search(ctx context.Context, q string, page, limit int) (*Page, error) {
	if strings.TrimSpace(q) == "" {
		return nil, apperr.ErrInvalidQuery
	}
	offset, limit := util.Calculate(page, limit)
	if page < 1 {
		page = 1
	}

	if s.ES != nil {
		total, ids, err := es.SearchIDs(ctx, s.ES, q, offset, limit)
		if err == nil {
			items, err := s.resolveIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			return &Page{Items: items, Pagination: paginate(page, limit, total)}, nil
		}
		logging.FromContext(ctx).Warn("es_search_failed", "svc", "catalog.search", "error", err)
	}

	like := "%" + strings.ToLower(q) + "%"
	base := s.DB.WithContext(ctx).Model(&models.Product{}).
		Where("is_active = ?", true).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?", like, like, like)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Product
	err := base.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Reviews").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &Page{Items: items, Pagination: paginate(page, limit, total)}, nil
}

// resolveIDs loads active products for the ES hits, preserving hit order.
func (s *CatalogService) resolveIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var items []models.Product
	err := s.preloaded(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(items))
	for _, p := range items {
		byID[p.ID] = p
	}
	ordered := make([]models.Product, 0, len(items))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// ListByCategory is List restricted to one category.
func (s *CatalogService) ListByCategory(ctx context.Context, category string, page, limit int) (*Page, error) {
	return s.List(ctx, ListFilters{Category: category}, page, limit)
}

// ListFeatured returns up to limit active featured products.
func (s *CatalogService) ListFeatured(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	var items []models.Product
	err := s.preloaded(ctx).
		Where("is_active = ? AND is_featured = ?", true, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AddReview appends a review. The rating average is derived from the
// stored reviews on read, so nothing else needs recomputing here.
func (s *CatalogService) AddReview(ctx context.Context, productID, userID uint, rating int, comment string) (*models.Product, error) {
	if rating < 1 || rating > 5 {
		return nil, apperr.ErrInvalidRating
	}
	if _, err := s.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	review := models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}
	if err := s.DB.WithContext(ctx).Create(&review).Error; err != nil {
		return nil, err
	}

	return s.GetByID(ctx, productID)
}

type Overview struct {
	TotalProducts      int64   `json:"totalProducts"`
	AveragePrice       float64 `json:"averagePrice"`
	TotalStock         int64   `json:"totalStock"`
	LowStockProducts   int64   `json:"lowStockProducts"`
	OutOfStockProducts int64   `json:"outOfStockProducts"`
}

type CategoryStat struct {
	Category     string  `json:"category"`
	Count        int64   `json:"count"`
	AveragePrice float64 `json:"averagePrice"`
}

type Stats struct {
	Overall    Overview       `json:"overall"`
	ByCategory []CategoryStat `json:"byCategory"`
}

// Stats aggregates over active products.
func (s *CatalogService) Stats(ctx context.Context) (*Stats, error) {
	var overall Overview
	err := s.DB.WithContext(ctx).Model(&models.Product{}).
		Where("is_active = ?", true).
		Select(
			"COUNT(*) AS total_products, "+
				"COALESCE(AVG(price), 0) AS average_price, "+
				"COALESCE(SUM(stock), 0) AS total_stock, "+
				"COALESCE(SUM(CASE WHEN stock > 0 AND stock <= ? THEN 1 ELSE 0 END), 0) AS low_stock_products, "+
				"COALESCE(SUM(CASE WHEN stock = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock_products",
			lowStockThreshold,
		).
		Scan(&overall).Error
	if err != nil {
		return nil, err
	}

	var byCategory []CategoryStat
	err = s.DB.WithContext(ctx).Model(&models.Product{}).
		Where("is_active = ?", true).
		Select("category, COUNT(*) AS count, COALESCE(AVG(price), 0) AS average_price").
		Group("category").
		Order("count DESC").
		Scan(&byCategory).Error
	if err != nil {
		return nil, err
	}

	return &Stats{Overall: overall, ByCategory: byCategory}, nil
}

// BulkUpdate applies the same field-level update to every matched product
// and reports how many rows changed.
func (s *CatalogService) BulkUpdate(ctx context.Context, ids []uint, in ProductInput) (int64, error) {
	if len(ids) == 0 {
		return 0, apperr.ErrInvalidInput
	}
	updates := columnUpdates(in)
	if len(updates) == 0 {
		return 0, apperr.ErrInvalidInput
	}
	res := s.DB.WithContext(ctx).Model(&models.Product{}).Where("id IN ?", ids).Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// DecrementStock atomically takes qty units off a product's stock,
// failing when the remaining stock is insufficient. Single conditional
// UPDATE, so concurrent checkouts cannot oversell.
func (s *CatalogService) DecrementStock(ctx context.Context, productID uint, qty uint) error {
	res := s.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrOutOfStock
	}
	return nil
}
