package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rainbowshop/backend/internal/events"
	mwauth "github.com/rainbowshop/backend/internal/middleware/auth"
	"github.com/rainbowshop/backend/internal/service/order"
	"github.com/rainbowshop/backend/internal/transport/response"
)

type OrderHandler struct {
	Orders   *order.OrderService
	Producer *events.Producer
}

type checkoutItem struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  uint `json:"quantity" validate:"required,min=1"`
}

type checkoutRequest struct {
	Items []checkoutItem `json:"items" validate:"required,min=1,dive"`
}

func (h *OrderHandler) Checkout(c echo.Context) error {
	var req checkoutRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	items := make([]order.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, order.LineItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	created, err := h.Orders.Checkout(c.Request().Context(), mwauth.UserID(c), items)
	if err != nil {
		return err
	}

	publish(c, h.Producer, events.TopicOrders, created.OrderID, map[string]any{
		"event":   "order_created",
		"orderId": created.OrderID,
		"userId":  created.UserID,
		"total":   created.TotalAmount,
	})

	return response.OK(c, http.StatusCreated, "Order placed successfully", map[string]any{"order": created})
}
