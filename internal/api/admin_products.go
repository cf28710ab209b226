package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/models"
	"storefront-backend/internal/storage"
	"storefront-backend/internal/store"
)

type productRequest struct {
	Images      []string `json:"images"`
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category" binding:"required"`
	Brand       string   `json:"brand"`
	Price       float64  `json:"price" binding:"gte=0"`
	SalePrice   float64  `json:"salePrice" binding:"gte=0"`
	TotalStock  int      `json:"totalStock" binding:"gte=0"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func (r productRequest) apply(p *models.Product) {
	p.Images = orEmpty(r.Images)
	p.Title = strings.TrimSpace(r.Title)
	p.Description = r.Description
	p.Category = r.Category
	p.Brand = r.Brand
	p.Price = r.Price
	p.SalePrice = r.SalePrice
	p.TotalStock = r.TotalStock
	p.Sizes = orEmpty(r.Sizes)
	p.Colors = orEmpty(r.Colors)
}

func bindProduct(c *gin.Context) (productRequest, bool) {
	var req productRequest
	if !bindJSON(c, &req) {
		return req, false
	}
	if req.SalePrice > req.Price {
		fail(c, http.StatusBadRequest, "Sale price can not be greater than price")
		return req, false
	}
	return req, true
}

// catalogChanged keeps the search index and the product cache in step with
// an admin write. Failures are logged; the document store stays authoritative.
func (h *Handler) catalogChanged(ctx context.Context, product *models.Product, removed bool) {
	var err error
	if removed {
		err = h.Search.Remove(ctx, product.ID.Hex())
	} else {
		err = h.Search.Put(ctx, product)
	}
	if err != nil {
		slog.Error("search index update failed", "product", product.ID.Hex(), "error", err)
	}
	h.invalidateProducts(ctx)
}

// refreshIndex writes the current state of the given products to the search
// index after a shop-side write such as a stock decrement or a new rating.
// Products deleted meanwhile are removed from it.
func (h *Handler) refreshIndex(ctx context.Context, ids ...primitive.ObjectID) {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		product, err := h.Products.Get(ctx, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			err = h.Search.Remove(ctx, id.Hex())
		case err == nil:
			err = h.Search.Put(ctx, product)
		}
		if err != nil {
			slog.Error("search index refresh failed", "product", id.Hex(), "error", err)
		}
	}
}

// Reindex writes every stored product to the search index and reports how
// many were written.
func (h *Handler) Reindex(ctx context.Context) (int, error) {
	products, err := h.Products.List(ctx, store.ProductQuery{})
	if err != nil {
		return 0, err
	}
	for i := range products {
		if err := h.Search.Put(ctx, &products[i]); err != nil {
			return i, fmt.Errorf("index product %s: %w", products[i].ID.Hex(), err)
		}
	}
	return len(products), nil
}

func (h *Handler) reindexProducts(c *gin.Context) {
	n, err := h.Reindex(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		slog.Error("reindex failed", "indexed", n, "error", err)
		fail(c, http.StatusInternalServerError, msgServerError)
		return
	}
	okMessage(c, http.StatusOK, "Search index rebuilt", gin.H{"indexed": n})
}

func (h *Handler) uploadImage(c *gin.Context) {
	if h.Images == nil {
		fail(c, http.StatusServiceUnavailable, "Image storage is not configured")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	file, err := c.FormFile("my_file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		fail(c, http.StatusBadRequest, "File is required in field my_file")
		return
	}
	src, err := file.Open()
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, msgServerError)
		return
	}
	defer src.Close()

	result, err := h.Images.Upload(c.Request.Context(), src)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			fail(c, http.StatusBadRequest, "Only image files are allowed")
			return
		}
		_ = c.Error(err)
		slog.Error("image upload failed", "file", file.Filename, "error", err)
		fail(c, http.StatusInternalServerError, "Error occured while uploading")
		return
	}
	success(c, http.StatusOK, result)
}

func (h *Handler) addProduct(c *gin.Context) {
	req, ok := bindProduct(c)
	if !ok {
		return
	}
	product := &models.Product{}
	req.apply(product)
	ctx := c.Request.Context()
	if err := h.Products.Insert(ctx, product); err != nil {
		storeFailure(c, err, "")
		return
	}
	h.catalogChanged(ctx, product, false)
	success(c, http.StatusCreated, product)
}

func (h *Handler) editProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, ok := bindProduct(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	product, err := h.Products.Get(ctx, id)
	if err != nil {
		storeFailure(c, err, "Product not found")
		return
	}
	req.apply(product)
	if err := h.Products.Update(ctx, product); err != nil {
		storeFailure(c, err, "Product not found")
		return
	}
	h.catalogChanged(ctx, product, false)
	success(c, http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.Products.Delete(ctx, id); err != nil {
		storeFailure(c, err, "Product not found")
		return
	}
	h.catalogChanged(ctx, &models.Product{ID: id}, true)
	okMessage(c, http.StatusOK, "Product delete successfully", nil)
}

func (h *Handler) adminProducts(c *gin.Context) {
	products, err := h.Products.List(c.Request.Context(), store.ProductQuery{SortBy: store.SortTitleAToZ})
	if err != nil {
		storeFailure(c, err, "")
		return
	}
	success(c, http.StatusOK, products)
}

// importProducts upserts catalog rows by title from an uploaded CSV file.
func (h *Handler) importProducts(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		fail(c, http.StatusBadRequest, "CSV file is required in field file")
		return
	}
	src, err := file.Open()
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, msgServerError)
		return
	}
	defer src.Close()

	rows, failures, err := parseProductCSV(src)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	report := importReport{Skipped: []importFailure{}}
	report.Skipped = append(report.Skipped, failures...)
	for _, row := range rows {
		product := row.Product
		existing, err := h.Products.FindByTitle(ctx, product.Title)
		switch {
		case err == nil:
			product.ID = existing.ID
			product.AverageReview = existing.AverageReview
			if len(product.Colors) == 0 {
				product.Colors = orEmpty(existing.Colors)
			}
			err = h.Products.Update(ctx, &product)
			if err == nil {
				report.Updated++
			}
		case errors.Is(err, store.ErrNotFound):
			err = h.Products.Insert(ctx, &product)
			if err == nil {
				report.Created++
			}
		}
		if err != nil {
			slog.Warn("catalog import row failed", "line", row.Line, "title", product.Title, "error", err)
			report.Skipped = append(report.Skipped, importFailure{Line: row.Line, Title: product.Title, Reason: "could not be saved"})
			continue
		}
		if err := h.Search.Put(ctx, &product); err != nil {
			slog.Error("search index update failed", "product", product.ID.Hex(), "error", err)
		}
	}
	if report.Created+report.Updated > 0 {
		h.invalidateProducts(ctx)
	}
	slog.Info("catalog import finished", "created", report.Created, "updated", report.Updated, "skipped", len(report.Skipped))
	success(c, http.StatusOK, report)
}
