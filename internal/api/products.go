package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/cache"
	"storefront-backend/internal/store"
)

// ----- Shop products -----

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (h *Handler) listProducts(c *gin.Context) {
	category, brand, sortBy := c.Query("category"), c.Query("brand"), c.DefaultQuery("sortBy", store.SortPriceLowToHigh)
	key := cache.ProductListKey(category, brand, sortBy)
	if h.serveCached(c, key) {
		return
	}

	products, err := h.Products.List(c.Request.Context(), store.ProductQuery{
		Categories: splitList(category),
		Brands:     splitList(brand),
		SortBy:     sortBy,
	})
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	h.respondCached(c, key, gin.H{"success": true, "data": products})
}

func (h *Handler) productDetails(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	key := cache.ProductKey(id.Hex())
	if h.serveCached(c, key) {
		return
	}

	product, err := h.Products.Get(c.Request.Context(), id)
	if err != nil {
		storeFailure(c, err, "Product not found!")
		return
	}
	h.respondCached(c, key, gin.H{"success": true, "data": product})
}

func (h *Handler) searchProducts(c *gin.Context) {
	keyword := strings.TrimSpace(c.Param("keyword"))
	if keyword == "" {
		fail(c, http.StatusBadRequest, "Keyword is required and must be in string format")
		return
	}
	products, err := h.Search.Search(c.Request.Context(), keyword)
	if err != nil {
		_ = c.Error(err)
		slog.Error("product search failed", "keyword", keyword, "error", err)
		fail(c, http.StatusInternalServerError, msgServerError)
		return
	}
	success(c, http.StatusOK, products)
}

func (h *Handler) serveCached(c *gin.Context, key string) bool {
	data, err := h.Cache.Get(c.Request.Context(), key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("cache read failed", "key", key, "error", err)
		}
		return false
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
	return true
}

func (h *Handler) respondCached(c *gin.Context, key string, body gin.H) {
	data, err := json.Marshal(body)
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, msgServerError)
		return
	}
	if err := h.Cache.Set(c.Request.Context(), key, data); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}
