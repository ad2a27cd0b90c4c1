package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rainbowshop/backend/internal/apperr"
	"github.com/rainbowshop/backend/internal/logging"
	"github.com/rainbowshop/backend/internal/models"
)

// OrderService turns a set of line items into a purchase-history entry,
// decrementing stock as it goes.
type OrderService struct {
	DB *gorm.DB
}

type LineItem struct {
	ProductID uint
	Quantity  uint
}

// Checkout creates an order for userID. Each line decrements the product
// stock with a conditional UPDATE inside one transaction, so a concurrent
// checkout cannot drive stock negative; any failed line aborts the order.
// Name and price are snapshotted at purchase time.
func (s *OrderService) Checkout(ctx context.Context, userID uint, items []LineItem) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.checkout", "user_id", userID)

	if len(items) == 0 {
		return nil, apperr.ErrInvalidInput
	}

	order := models.Order{
		OrderID:   uuid.NewString(),
		UserID:    userID,
		OrderDate: time.Now(),
		Status:    models.OrderPending,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if item.Quantity == 0 {
				return apperr.ErrInvalidInput
			}

			var product models.Product
			if err := tx.First(&product, item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("product %d: %w", item.ProductID, apperr.ErrNotFound)
				}
				return err
			}
			if !product.IsActive {
				return fmt.Errorf("product %d: %w", item.ProductID, apperr.ErrNotFound)
			}

			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				Update("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("product %d: %w", item.ProductID, apperr.ErrOutOfStock)
			}

			order.Products = append(order.Products, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  item.Quantity,
			})
			order.TotalAmount += product.Price * float64(item.Quantity)
		}

		return tx.Create(&order).Error
	})
	if err != nil {
		l.Warn("checkout_failed", "error", err)
		return nil, err
	}

	l.Info("order_created", "order_id", order.OrderID, "total", order.TotalAmount)
	return &order, nil
}
