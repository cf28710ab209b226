package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/auth"
	"storefront-backend/internal/events"
	"storefront-backend/internal/models"
	"storefront-backend/internal/store"
)

type reviewRequest struct {
	ProductID     string `json:"productId" binding:"required"`
	ReviewMessage string `json:"reviewMessage"`
	ReviewValue   int    `json:"reviewValue"`
}

func (h *Handler) addReview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	claims, _ := auth.CurrentClaims(c)
	var req reviewRequest
	if !bindJSON(c, &req) {
		return
	}
	message := strings.TrimSpace(req.ReviewMessage)
	if req.ReviewValue < 1 || req.ReviewValue > 5 || message == "" {
		fail(c, http.StatusBadRequest, "Review needs a message and a rating between 1 and 5")
		return
	}
	productID, ok := parseID(c, req.ProductID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Products.Get(ctx, productID); err != nil {
		storeFailure(c, err, "Product not found")
		return
	}
	purchased, err := h.Orders.HasConfirmedPurchase(ctx, userID, productID)
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	if !purchased {
		fail(c, http.StatusForbidden, "You need to purchase product to review it.")
		return
	}
	reviewed, err := h.Reviews.Exists(ctx, productID, userID)
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	if reviewed {
		fail(c, http.StatusConflict, "You already reviewed this product!")
		return
	}

	review := &models.Review{
		ProductID:     productID,
		UserID:        userID,
		UserName:      claims.UserName,
		ReviewMessage: message,
		ReviewValue:   req.ReviewValue,
	}
	if err := h.Reviews.Insert(ctx, review); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			fail(c, http.StatusConflict, "You already reviewed this product!")
			return
		}
		storeFailure(c, err, "")
		return
	}

	reviews, err := h.Reviews.ListByProduct(ctx, productID)
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	if err := h.Products.SetAverageReview(ctx, productID, models.AverageReview(reviews)); err != nil {
		storeFailure(c, err, "")
		return
	}
	h.refreshIndex(ctx, productID)
	h.invalidateProducts(ctx)
	h.publish(ctx, events.New(events.ReviewCreated, productID.Hex(), review))
	success(c, http.StatusCreated, review)
}

func (h *Handler) productReviews(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	reviews, err := h.Reviews.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	success(c, http.StatusOK, reviews)
}
