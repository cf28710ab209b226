// Package search answers keyword product searches.
package search

import (
	"context"

	"storefront-backend/internal/models"
)

// Index is a product search backend that is kept in step with admin writes.
type Index interface {
	Search(ctx context.Context, keyword string) ([]models.Product, error)
	Put(ctx context.Context, product *models.Product) error
	Remove(ctx context.Context, id string) error
}

// Searcher is satisfied by the Mongo product repository.
type Searcher interface {
	Search(ctx context.Context, keyword string) ([]models.Product, error)
}

// StoreIndex queries the document store directly. The store is always
// current, so writes are no-ops.
type StoreIndex struct {
	Products Searcher
}

func (s StoreIndex) Search(ctx context.Context, keyword string) ([]models.Product, error) {
	return s.Products.Search(ctx, keyword)
}

func (StoreIndex) Put(context.Context, *models.Product) error { return nil }

func (StoreIndex) Remove(context.Context, string) error { return nil }
