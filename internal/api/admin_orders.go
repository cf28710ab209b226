package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/events"
	"storefront-backend/internal/models"
)

type orderStatusRequest struct {
	OrderStatus models.OrderStatus `json:"orderStatus" binding:"required"`
}

func (h *Handler) allOrders(c *gin.Context) {
	orders, err := h.Orders.ListAll(c.Request.Context())
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	success(c, http.StatusOK, orders)
}

func (h *Handler) adminOrderDetails(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.Get(c.Request.Context(), id)
	if err != nil {
		storeFailure(c, err, "Order not found!")
		return
	}
	success(c, http.StatusOK, order)
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req orderStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	if !req.OrderStatus.Valid() {
		fail(c, http.StatusBadRequest, "Invalid order status: "+string(req.OrderStatus))
		return
	}

	ctx := c.Request.Context()
	if err := h.Orders.UpdateStatus(ctx, id, req.OrderStatus); err != nil {
		storeFailure(c, err, "Order not found!")
		return
	}
	h.publish(ctx, events.New(events.OrderStatusUpdated, id.Hex(), gin.H{
		"orderId":     id.Hex(),
		"orderStatus": req.OrderStatus,
		"updatedAt":   time.Now().UTC(),
	}))
	okMessage(c, http.StatusOK, "Order status is updated successfully!", nil)
}
