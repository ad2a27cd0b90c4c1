package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Order statuses.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

type User struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string     `gorm:"size:50;not null"         json:"name"`
	Email        string     `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string     `gorm:"not null"                 json:"-"`
	Age          *int       `json:"age,omitempty"`
	Role         string     `gorm:"not null;default:user;index" json:"role"`
	IsBlocked    bool       `gorm:"not null;default:false;index" json:"isBlocked"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	Orders []Order `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Profile is the password-free projection of a user returned by the API.
type Profile struct {
	ID        uint       `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Age       *int       `json:"age,omitempty"`
	Role      string     `json:"role"`
	IsBlocked bool       `json:"isBlocked"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		Role:      u.Role,
		IsBlocked: u.IsBlocked,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// Order is one entry of a user's purchase history.
type Order struct {
	ID          uint        `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderID     string      `gorm:"uniqueIndex;not null"     json:"orderId"`
	UserID      uint        `gorm:"index;not null"           json:"-"`
	Products    []OrderItem `gorm:"foreignKey:OrderRef"      json:"products"`
	TotalAmount float64     `gorm:"not null"                 json:"totalAmount"`
	OrderDate   time.Time   `json:"orderDate"`
	Status      string      `gorm:"not null;default:pending" json:"status"`
}

// OrderItem snapshots name and price at purchase time.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderRef  uint    `gorm:"index;not null"           json:"-"`
	ProductID uint    `gorm:"not null"                 json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  uint    `json:"quantity"`
}

type Product struct {
	ID          uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string   `gorm:"not null;index"           json:"name"`
	Description string   `json:"description"`
	Price       float64  `gorm:"not null"                 json:"price"`
	Stock       uint     `gorm:"not null;default:0"       json:"stock"`
	Category    string   `gorm:"index"                    json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Brand       string   `gorm:"index"                    json:"brand"`
	Tags        []string `gorm:"serializer:json"          json:"tags"`
	IsFeatured  bool     `gorm:"not null;default:false"   json:"isFeatured"`
	// IsActive doubles as the soft-delete flag.
	IsActive bool `gorm:"not null;default:true;index" json:"isActive"`

	Slug string `gorm:"uniqueIndex;not null" json:"slug"`

	DiscountPercentage float64    `json:"-"`
	DiscountValidUntil *time.Time `json:"-"`

	ShippingWeight *float64 `json:"-"`
	FreeShipping   bool     `json:"-"`
	ShippingCost   float64  `json:"-"`

	Images  []ProductImage `gorm:"foreignKey:ProductID" json:"images"`
	Reviews []Review       `gorm:"foreignKey:ProductID" json:"reviews"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ProductImage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	ProductID uint   `gorm:"index;not null"           json:"-"`
	URL       string `gorm:"not null"                 json:"url"`
	Alt       string `json:"alt"`
	IsPrimary bool   `json:"isPrimary"`
	Position  int    `json:"-"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	ProductID uint      `gorm:"index;not null"           json:"-"`
	UserID    uint      `gorm:"not null"                 json:"user"`
	Rating    int       `gorm:"not null"                 json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"date"`
}

// HasDiscount reports whether the product discount is currently applicable.
// Derived on read, never stored.
func (p *Product) HasDiscount(now time.Time) bool {
	if p.DiscountPercentage <= 0 {
		return false
	}
	if p.DiscountValidUntil != nil && p.DiscountValidUntil.Before(now) {
		return false
	}
	return true
}

// DiscountedPrice applies the discount percentage when active.
func (p *Product) DiscountedPrice(now time.Time) float64 {
	if !p.HasDiscount(now) {
		return p.Price
	}
	return p.Price * (1 - p.DiscountPercentage/100)
}

// AverageRating derives the rating average from the loaded review set.
func (p *Product) AverageRating() float64 {
	if len(p.Reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(p.Reviews))
}
