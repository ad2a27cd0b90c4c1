package models

import "time"

// Discount and Shipping are the embedded product substructures as they
// travel over the wire. They also serve as decode targets for the
// JSON-string form fields of multipart create/update requests.
type Discount struct {
	Percentage float64    `json:"percentage"`
	ValidUntil *time.Time `json:"validUntil"`
}

type Shipping struct {
	Weight       *float64 `json:"weight"`
	FreeShipping bool     `json:"freeShipping"`
	ShippingCost float64  `json:"shippingCost"`
}

type SEO struct {
	Slug string `json:"slug"`
}

type Ratings struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// ProductView is the read projection of a product. Derived fields
// (hasDiscount, discountedPrice, ratings.average) are computed here from
// stored primitives rather than persisted.
type ProductView struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Stock       uint           `json:"stock"`
	Category    string         `json:"category"`
	Subcategory string         `json:"subcategory,omitempty"`
	Brand       string         `json:"brand"`
	Tags        []string       `json:"tags"`
	IsFeatured  bool           `json:"isFeatured"`
	IsActive    bool           `json:"isActive"`
	SEO         SEO            `json:"seo"`
	Images      []ProductImage `json:"images"`
	Reviews     []Review       `json:"reviews"`
	Ratings     Ratings        `json:"ratings"`
	Discount    Discount       `json:"discount"`
	Shipping    Shipping       `json:"shipping"`

	HasDiscount     bool    `json:"hasDiscount"`
	DiscountedPrice float64 `json:"discountedPrice"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Product) View(now time.Time) ProductView {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	images := p.Images
	if images == nil {
		images = []ProductImage{}
	}
	reviews := p.Reviews
	if reviews == nil {
		reviews = []Review{}
	}
	return ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		Subcategory: p.Subcategory,
		Brand:       p.Brand,
		Tags:        tags,
		IsFeatured:  p.IsFeatured,
		IsActive:    p.IsActive,
		SEO:         SEO{Slug: p.Slug},
		Images:      images,
		Reviews:     reviews,
		Ratings:     Ratings{Average: p.AverageRating(), Count: len(p.Reviews)},
		Discount:    Discount{Percentage: p.DiscountPercentage, ValidUntil: p.DiscountValidUntil},
		Shipping:    Shipping{Weight: p.ShippingWeight, FreeShipping: p.FreeShipping, ShippingCost: p.ShippingCost},

		HasDiscount:     p.HasDiscount(now),
		DiscountedPrice: p.DiscountedPrice(now),

		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Views projects a page of products.
func Views(products []Product, now time.Time) []ProductView {
	out := make([]ProductView, len(products))
	for i := range products {
		out[i] = products[i].View(now)
	}
	return out
}
