package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/events"
	"storefront-backend/internal/models"
	"storefront-backend/internal/pricing"
	"storefront-backend/internal/store"
)

const defaultPaymentMethod = "paypal"

type createOrderRequest struct {
	AddressID     string              `json:"addressId"`
	AddressInfo   *models.AddressInfo `json:"addressInfo"`
	PaymentMethod string              `json:"paymentMethod"`
}

type captureRequest struct {
	OrderID   string `json:"orderId" binding:"required"`
	PaymentID string `json:"paymentId" binding:"required"`
	PayerID   string `json:"payerId" binding:"required"`
}

type stockIssue struct {
	ProductID primitive.ObjectID `json:"productId"`
	Title     string             `json:"title"`
	Requested int                `json:"requested"`
	Available int                `json:"available"`
}

func insufficientStock(c *gin.Context, issues []stockIssue) {
	c.AbortWithStatusJSON(http.StatusConflict, gin.H{
		"success": false,
		"message": "Insufficient stock",
		"details": issues,
	})
}

// resolveAddress picks a saved address of the user or validates an inline one.
func (h *Handler) resolveAddress(c *gin.Context, userID primitive.ObjectID, req *createOrderRequest) (models.AddressInfo, bool) {
	if req.AddressID != "" {
		id, ok := parseID(c, req.AddressID)
		if !ok {
			return models.AddressInfo{}, false
		}
		addr, err := h.Addresses.Get(c.Request.Context(), userID, id)
		if err != nil {
			storeFailure(c, err, "Address not found")
			return models.AddressInfo{}, false
		}
		return models.AddressInfo{
			AddressID: addr.ID,
			Address:   addr.Address,
			City:      addr.City,
			Pincode:   addr.Pincode,
			Phone:     addr.Phone,
			Notes:     addr.Notes,
		}, true
	}
	info := req.AddressInfo
	if info == nil || info.Address == "" || info.City == "" || info.Pincode == "" || info.Phone == "" {
		fail(c, http.StatusBadRequest, "A delivery address is required")
		return models.AddressInfo{}, false
	}
	return *info, true
}

// buildOrderItems prices the cart from current product data. Products that
// cannot cover the requested quantity are reported instead.
func (h *Handler) buildOrderItems(ctx context.Context, cart *models.Cart) ([]models.OrderItem, []stockIssue, error) {
	items := make([]models.OrderItem, 0, len(cart.Items))
	var issues []stockIssue
	requested := map[primitive.ObjectID]int{}
	for _, line := range cart.Items {
		requested[line.ProductID] += line.Quantity
	}
	checked := map[primitive.ObjectID]bool{}
	for _, line := range cart.Items {
		product, err := h.Products.Get(ctx, line.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			issues = append(issues, stockIssue{ProductID: line.ProductID, Requested: line.Quantity})
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if want := requested[product.ID]; want > product.TotalStock && !checked[product.ID] {
			issues = append(issues, stockIssue{
				ProductID: product.ID,
				Title:     product.Title,
				Requested: want,
				Available: product.TotalStock,
			})
		}
		checked[product.ID] = true
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Title:     product.Title,
			Image:     firstImage(product),
			Price:     product.EffectivePrice(),
			Quantity:  line.Quantity,
			Size:      line.Size,
		})
	}
	return items, issues, nil
}

func (h *Handler) createOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req createOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	cart, err := h.Carts.Get(ctx, userID)
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	if len(cart.Items) == 0 {
		fail(c, http.StatusBadRequest, "Cart is empty")
		return
	}
	address, ok := h.resolveAddress(c, userID, &req)
	if !ok {
		return
	}
	items, issues, err := h.buildOrderItems(ctx, cart)
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	if len(issues) > 0 {
		insufficientStock(c, issues)
		return
	}

	lines := make([]pricing.Line, len(items))
	for i, item := range items {
		lines[i] = pricing.Line{UnitPrice: item.Price, Quantity: item.Quantity}
	}
	summary := h.Pricing.Summarize(lines)

	method := req.PaymentMethod
	if method == "" {
		method = defaultPaymentMethod
	}
	now := time.Now().UTC()
	order := &models.Order{
		UserID:          userID,
		CartItems:       items,
		AddressInfo:     address,
		OrderStatus:     models.OrderPending,
		PaymentMethod:   method,
		PaymentStatus:   models.PaymentPending,
		Subtotal:        summary.Subtotal,
		GSTAmount:       summary.GST,
		HandlingAmount:  summary.Handling,
		DeliveryAmount:  summary.Delivery,
		TotalAmount:     summary.Total,
		OrderDate:       now,
		OrderUpdateDate: now,
	}
	if err := h.Orders.Insert(ctx, order); err != nil {
		storeFailure(c, err, "")
		return
	}
	h.publish(ctx, events.New(events.OrderCreated, order.ID.Hex(), order))
	success(c, http.StatusCreated, order)
}

// capturePayment confirms a pending order once the client reports the
// provider payment. Stock is taken line by line and given back if any
// line cannot be covered.
func (h *Handler) capturePayment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req captureRequest
	if !bindJSON(c, &req) {
		return
	}
	orderID, ok := parseID(c, req.OrderID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	order, err := h.Orders.Get(ctx, orderID)
	if err == nil && order.UserID != userID {
		err = store.ErrNotFound
	}
	if err != nil {
		storeFailure(c, err, "Order can not be found")
		return
	}
	if order.PaymentStatus == models.PaymentPaid {
		fail(c, http.StatusConflict, "Order is already paid")
		return
	}
	if order.OrderStatus != models.OrderPending || order.PaymentStatus != models.PaymentPending {
		fail(c, http.StatusConflict, "Order is no longer awaiting payment")
		return
	}

	var taken []models.OrderItem
	for _, item := range order.CartItems {
		if err := h.Products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			h.restoreStock(ctx, taken)
			switch {
			case errors.Is(err, store.ErrInsufficientStock):
				fail(c, http.StatusConflict, "Not enough stock for this product "+item.Title)
			case errors.Is(err, store.ErrNotFound):
				fail(c, http.StatusConflict, "Product is no longer available: "+item.Title)
			default:
				storeFailure(c, err, "")
			}
			return
		}
		taken = append(taken, item)
	}

	if err := h.Orders.MarkPaid(ctx, order.ID, req.PaymentID, req.PayerID); err != nil {
		h.restoreStock(ctx, taken)
		if errors.Is(err, store.ErrConflict) {
			fail(c, http.StatusConflict, "Order is no longer awaiting payment")
			return
		}
		storeFailure(c, err, "Order can not be found")
		return
	}
	if err := h.Carts.Clear(ctx, userID); err != nil {
		slog.Error("clear cart after capture failed", "user", userID.Hex(), "error", err)
	}
	ids := make([]primitive.ObjectID, len(order.CartItems))
	for i, item := range order.CartItems {
		ids[i] = item.ProductID
	}
	h.refreshIndex(ctx, ids...)
	h.invalidateProducts(ctx)

	order.PaymentStatus = models.PaymentPaid
	order.OrderStatus = models.OrderConfirmed
	order.PaymentID, order.PayerID = req.PaymentID, req.PayerID
	order.OrderUpdateDate = time.Now().UTC()
	h.publish(ctx, events.New(events.OrderCaptured, order.ID.Hex(), order))
	okMessage(c, http.StatusOK, "Order confirmed", order)
}

func (h *Handler) restoreStock(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if err := h.Products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			slog.Error("restore stock failed", "product", item.ProductID.Hex(), "quantity", item.Quantity, "error", err)
		}
	}
}

func (h *Handler) listOrders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orders, err := h.Orders.ListByUser(c.Request.Context(), userID)
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	success(c, http.StatusOK, orders)
}

func (h *Handler) orderDetails(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.Get(c.Request.Context(), id)
	if err == nil && order.UserID != userID {
		err = store.ErrNotFound
	}
	if err != nil {
		storeFailure(c, err, "Order not found!")
		return
	}
	success(c, http.StatusOK, order)
}
