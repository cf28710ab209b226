package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/models"
)

func TestAddToCart(t *testing.T) {
	p := shirt(5)
	env := newTestEnv(t, []*models.Product{p})
	userID, token := env.login(t, models.RoleUser)

	w, resp := env.do(t, http.MethodPost, "/api/shop/cart/add", token, gin.H{"productId": p.ID.Hex(), "quantity": 2, "size": "M"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode[cartView](t, resp.Data)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Linen Shirt", view.Items[0].Title)
	assert.Equal(t, "https://cdn.example.com/shirt.png", view.Items[0].Image)
	assert.Equal(t, 2, view.Items[0].Quantity)
	// 2 x 80 sale price, 18% GST, handling 10.
	assert.InDelta(t, 160.0, view.Summary.Subtotal, 1e-9)
	assert.InDelta(t, 28.8, view.Summary.GST, 1e-9)
	assert.InDelta(t, 198.8, view.Summary.Total, 1e-9)

	// Same product and size increments the existing line.
	w, _ = env.do(t, http.MethodPost, "/api/shop/cart/add", token, gin.H{"productId": p.ID.Hex(), "quantity": 1, "size": "M"})
	require.Equal(t, http.StatusOK, w.Code)
	lines := env.carts.lines(userID)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)

	// A different size is its own line but shares the product stock.
	w, resp = env.do(t, http.MethodPost, "/api/shop/cart/add", token, gin.H{"productId": p.ID.Hex(), "quantity": 3, "size": "L"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Only 2 quantity can be added for this item", resp.Message)

	w, _ = env.do(t, http.MethodPost, "/api/shop/cart/add", token, gin.H{"productId": p.ID.Hex(), "quantity": 2, "size": "L"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.carts.lines(userID), 2)
}

func TestAddToCartRejects(t *testing.T) {
	p := shirt(5)
	env := newTestEnv(t, []*models.Product{p})
	_, token := env.login(t, models.RoleUser)

	tests := []struct {
		name  string
		token string
		body  gin.H
		code  int
	}{
		{"no token", "", gin.H{"productId": p.ID.Hex(), "quantity": 1}, http.StatusUnauthorized},
		{"zero quantity", token, gin.H{"productId": p.ID.Hex(), "quantity": 0}, http.StatusBadRequest},
		{"malformed id", token, gin.H{"productId": "xyz", "quantity": 1}, http.StatusBadRequest},
		{"unknown product", token, gin.H{"productId": primitive.NewObjectID().Hex(), "quantity": 1}, http.StatusNotFound},
		{"unknown size", token, gin.H{"productId": p.ID.Hex(), "quantity": 1, "size": "XXL"}, http.StatusBadRequest},
		{"over stock", token, gin.H{"productId": p.ID.Hex(), "quantity": 6}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := env.do(t, http.MethodPost, "/api/shop/cart/add", tt.token, tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.False(t, resp.Success)
		})
	}
}

func TestFetchCartDropsDeletedProducts(t *testing.T) {
	kept, gone := shirt(5), shirt(5)
	gone.Title = "Retired"
	env := newTestEnv(t, []*models.Product{kept, gone})
	userID, token := env.login(t, models.RoleUser)

	require.NoError(t, env.carts.Save(t.Context(), &models.Cart{UserID: userID, Items: []models.CartItem{
		{ProductID: gone.ID, Quantity: 1},
		{ProductID: kept.ID, Quantity: 1, Size: "M"},
	}}))
	require.NoError(t, env.products.Delete(t.Context(), gone.ID))

	w, resp := env.do(t, http.MethodGet, "/api/shop/cart/get", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[cartView](t, resp.Data)
	require.Len(t, view.Items, 1)
	assert.Equal(t, kept.ID, view.Items[0].ProductID)

	lines := env.carts.lines(userID)
	require.Len(t, lines, 1)
	assert.Equal(t, kept.ID, lines[0].ProductID)
}

func TestFetchEmptyCart(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.login(t, models.RoleUser)

	w, resp := env.do(t, http.MethodGet, "/api/shop/cart/get", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[cartView](t, resp.Data)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.Summary.Total)
}

func TestUpdateAndDeleteCartItem(t *testing.T) {
	p := shirt(4)
	env := newTestEnv(t, []*models.Product{p})
	userID, token := env.login(t, models.RoleUser)
	require.NoError(t, env.carts.Save(t.Context(), &models.Cart{UserID: userID, Items: []models.CartItem{
		{ProductID: p.ID, Quantity: 1, Size: "M"},
	}}))

	w, _ := env.do(t, http.MethodPut, "/api/shop/cart/update-cart", token, gin.H{"productId": p.ID.Hex(), "quantity": 4, "size": "M"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, env.carts.lines(userID)[0].Quantity)

	w, _ = env.do(t, http.MethodPut, "/api/shop/cart/update-cart", token, gin.H{"productId": p.ID.Hex(), "quantity": 5, "size": "M"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, resp := env.do(t, http.MethodPut, "/api/shop/cart/update-cart", token, gin.H{"productId": p.ID.Hex(), "quantity": 1, "size": "L"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Cart item not present !", resp.Message)

	w, _ = env.do(t, http.MethodDelete, "/api/shop/cart/"+p.ID.Hex()+"?size=L", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = env.do(t, http.MethodDelete, "/api/shop/cart/"+p.ID.Hex()+"?size=M", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[cartView](t, resp.Data).Items)
	assert.Empty(t, env.carts.lines(userID))
}

func TestAddressLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.login(t, models.RoleUser)
	_, other := env.login(t, models.RoleUser)

	body := gin.H{"address": "12 MG Road", "city": "Pune", "pincode": "411001", "phone": "9999999999", "notes": "gate 2"}
	w, resp := env.do(t, http.MethodPost, "/api/shop/address/add", token, body)
	require.Equal(t, http.StatusCreated, w.Code)
	addr := decode[models.Address](t, resp.Data)

	w, _ = env.do(t, http.MethodPost, "/api/shop/address/add", token, gin.H{"address": "no city"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, resp = env.do(t, http.MethodGet, "/api/shop/address/get", other, nil)
	assert.Empty(t, decode[[]models.Address](t, resp.Data))

	body["city"] = "Mumbai"
	w, _ = env.do(t, http.MethodPut, "/api/shop/address/update/"+addr.ID.Hex(), other, body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = env.do(t, http.MethodPut, "/api/shop/address/update/"+addr.ID.Hex(), token, body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Mumbai", decode[models.Address](t, resp.Data).City)

	w, _ = env.do(t, http.MethodDelete, "/api/shop/address/delete/"+addr.ID.Hex(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, resp = env.do(t, http.MethodGet, "/api/shop/address/get", token, nil)
	assert.Empty(t, decode[[]models.Address](t, resp.Data))
}
