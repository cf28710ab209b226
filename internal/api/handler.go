// Package api implements the storefront REST controllers.
package api

import (
	"context"
	"io"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/auth"
	"storefront-backend/internal/cache"
	"storefront-backend/internal/events"
	"storefront-backend/internal/models"
	"storefront-backend/internal/pricing"
	"storefront-backend/internal/search"
	"storefront-backend/internal/storage"
	"storefront-backend/internal/store"
)

type ProductStore interface {
	List(ctx context.Context, q store.ProductQuery) ([]models.Product, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByTitle(ctx context.Context, title string) (*models.Product, error)
	Insert(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	SetAverageReview(ctx context.Context, id primitive.ObjectID, avg float64) error
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
	RestoreStock(ctx context.Context, id primitive.ObjectID, qty int) error
	Count(ctx context.Context) (int64, error)
}

type UserStore interface {
	Insert(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id primitive.ObjectID, role models.Role) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type CartStore interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Clear(ctx context.Context, userID primitive.ObjectID) error
}

type AddressStore interface {
	Insert(ctx context.Context, addr *models.Address) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error)
	Get(ctx context.Context, userID, id primitive.ObjectID) (*models.Address, error)
	Update(ctx context.Context, addr *models.Address) error
	Delete(ctx context.Context, userID, id primitive.ObjectID) error
}

type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) error
	MarkPaid(ctx context.Context, id primitive.ObjectID, paymentID, payerID string) error
	HasConfirmedPurchase(ctx context.Context, userID, productID primitive.ObjectID) (bool, error)
}

type ReviewStore interface {
	Insert(ctx context.Context, review *models.Review) error
	ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error)
	Exists(ctx context.Context, productID, userID primitive.ObjectID) (bool, error)
}

type FeatureStore interface {
	Insert(ctx context.Context, img *models.FeatureImage) error
	List(ctx context.Context) ([]models.FeatureImage, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ImageStore interface {
	Upload(ctx context.Context, r io.Reader) (*storage.Result, error)
}

type Deps struct {
	Products  ProductStore
	Users     UserStore
	Carts     CartStore
	Addresses AddressStore
	Orders    OrderStore
	Reviews   ReviewStore
	Features  FeatureStore

	Issuer  *auth.Issuer
	Pricing pricing.Calculator

	// Optional collaborators; New substitutes no-op versions when nil.
	Search search.Index
	Images ImageStore
	Cache  cache.Cache
	Events events.Publisher
	Health func(ctx context.Context) error

	MaxUploadBytes int64
	CookieSecure   bool
}

type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	if d.Search == nil {
		d.Search = search.StoreIndex{Products: productSearcher{d.Products}}
	}
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	if d.Health == nil {
		d.Health = func(context.Context) error { return nil }
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 5 << 20
	}
	return &Handler{Deps: d}
}

// productSearcher adapts a ProductStore that can also search.
type productSearcher struct {
	products ProductStore
}

func (p productSearcher) Search(ctx context.Context, keyword string) ([]models.Product, error) {
	if s, ok := p.products.(search.Searcher); ok {
		return s.Search(ctx, keyword)
	}
	return []models.Product{}, nil
}

// publish never fails the request; events are best effort.
func (h *Handler) publish(ctx context.Context, ev events.Event) {
	if err := h.Events.Publish(ctx, ev); err != nil {
		slog.Error("publish event failed", "type", ev.Type, "key", ev.Key, "error", err)
	}
}

func (h *Handler) invalidateProducts(ctx context.Context) {
	if err := h.Cache.InvalidateProducts(ctx); err != nil {
		slog.Warn("product cache invalidation failed", "error", err)
	}
}
