package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/models"
	"storefront-backend/internal/pricing"
	"storefront-backend/internal/store"
)

type cartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Size      string `json:"size"`
}

type cartLine struct {
	ProductID  primitive.ObjectID `json:"productId"`
	Title      string             `json:"title"`
	Image      string             `json:"image"`
	Price      float64            `json:"price"`
	SalePrice  float64            `json:"salePrice"`
	TotalStock int                `json:"totalStock"`
	Quantity   int                `json:"quantity"`
	Size       string             `json:"size,omitempty"`
}

type cartView struct {
	ID      primitive.ObjectID `json:"_id"`
	UserID  primitive.ObjectID `json:"userId"`
	Items   []cartLine         `json:"items"`
	Summary pricing.Summary    `json:"summary"`
}

func firstImage(p *models.Product) string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

func hasSize(p *models.Product, size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// quantityFor sums every line of the product across sizes; stock is per product.
func quantityFor(cart *models.Cart, productID primitive.ObjectID, skip int) int {
	total := 0
	for i, item := range cart.Items {
		if i != skip && item.ProductID == productID {
			total += item.Quantity
		}
	}
	return total
}

func stockExceeded(c *gin.Context, remaining int) {
	if remaining < 0 {
		remaining = 0
	}
	fail(c, http.StatusConflict, fmt.Sprintf("Only %d quantity can be added for this item", remaining))
}

// productForCart loads the product of a cart request and validates the size.
func (h *Handler) productForCart(c *gin.Context, req *cartItemRequest) (*models.Product, bool) {
	productID, ok := parseID(c, req.ProductID)
	if !ok {
		return nil, false
	}
	product, err := h.Products.Get(c.Request.Context(), productID)
	if err != nil {
		storeFailure(c, err, "Product not found")
		return nil, false
	}
	if len(product.Sizes) > 0 && req.Size != "" && !hasSize(product, req.Size) {
		fail(c, http.StatusBadRequest, "Size "+req.Size+" is not available for this product")
		return nil, false
	}
	return product, true
}

func (h *Handler) addToCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req cartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	product, ok := h.productForCart(c, &req)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	cart, err := h.Carts.Get(ctx, userID)
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	inCart := quantityFor(cart, product.ID, -1)
	if inCart+req.Quantity > product.TotalStock {
		stockExceeded(c, product.TotalStock-inCart)
		return
	}

	if idx := cart.Find(product.ID, req.Size); idx >= 0 {
		cart.Items[idx].Quantity += req.Quantity
	} else {
		cart.Items = append(cart.Items, models.CartItem{ProductID: product.ID, Quantity: req.Quantity, Size: req.Size})
	}
	if err := h.Carts.Save(ctx, cart); err != nil {
		storeFailure(c, err, "")
		return
	}
	h.respondCart(c, cart)
}

func (h *Handler) fetchCart(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	cart, err := h.Carts.Get(c.Request.Context(), userID)
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	h.respondCart(c, cart)
}

func (h *Handler) updateCartItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req cartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	productID, ok := parseID(c, req.ProductID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	cart, err := h.Carts.Get(ctx, userID)
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	idx := cart.Find(productID, req.Size)
	if idx < 0 {
		fail(c, http.StatusNotFound, "Cart item not present !")
		return
	}
	product, err := h.Products.Get(ctx, productID)
	if err != nil {
		storeFailure(c, err, "Product not found")
		return
	}
	others := quantityFor(cart, productID, idx)
	if others+req.Quantity > product.TotalStock {
		stockExceeded(c, product.TotalStock-others)
		return
	}

	cart.Items[idx].Quantity = req.Quantity
	if err := h.Carts.Save(ctx, cart); err != nil {
		storeFailure(c, err, "")
		return
	}
	h.respondCart(c, cart)
}

func (h *Handler) deleteCartItem(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	cart, err := h.Carts.Get(ctx, userID)
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	idx := cart.Find(productID, c.Query("size"))
	if idx < 0 {
		fail(c, http.StatusNotFound, "Cart item not present !")
		return
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	if err := h.Carts.Save(ctx, cart); err != nil {
		storeFailure(c, err, "")
		return
	}
	h.respondCart(c, cart)
}

// respondCart joins the cart with current product data. Lines whose product
// has been deleted are dropped and the trimmed cart is saved back.
func (h *Handler) respondCart(c *gin.Context, cart *models.Cart) {
	ctx := c.Request.Context()
	view, stale, err := h.populateCart(ctx, cart)
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	if stale {
		if err := h.Carts.Save(ctx, cart); err != nil {
			storeFailure(c, err, "")
			return
		}
	}
	success(c, http.StatusOK, view)
}

func (h *Handler) populateCart(ctx context.Context, cart *models.Cart) (cartView, bool, error) {
	view := cartView{ID: cart.ID, UserID: cart.UserID, Items: []cartLine{}}
	kept := cart.Items[:0]
	var lines []pricing.Line
	for _, item := range cart.Items {
		product, err := h.Products.Get(ctx, item.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return cartView{}, false, err
		}
		kept = append(kept, item)
		view.Items = append(view.Items, cartLine{
			ProductID:  product.ID,
			Title:      product.Title,
			Image:      firstImage(product),
			Price:      product.Price,
			SalePrice:  product.SalePrice,
			TotalStock: product.TotalStock,
			Quantity:   item.Quantity,
			Size:       item.Size,
		})
		lines = append(lines, pricing.Line{UnitPrice: product.EffectivePrice(), Quantity: item.Quantity})
	}
	stale := len(kept) != len(cart.Items)
	cart.Items = kept
	view.Summary = h.Pricing.Summarize(lines)
	return view, stale, nil
}
