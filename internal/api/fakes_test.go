package api

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/cache"
	"storefront-backend/internal/events"
	"storefront-backend/internal/models"
	"storefront-backend/internal/storage"
	"storefront-backend/internal/store"
)

type memProducts struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Product
}

func newMemProducts(products ...*models.Product) *memProducts {
	m := &memProducts{items: map[primitive.ObjectID]*models.Product{}}
	for _, p := range products {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		m.items[p.ID] = p
	}
	return m
}

func (m *memProducts) List(_ context.Context, q store.ProductQuery) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in := func(values []string, v string) bool {
		if len(values) == 0 {
			return true
		}
		for _, x := range values {
			if x == v {
				return true
			}
		}
		return false
	}
	out := []models.Product{}
	for _, p := range m.items {
		if in(q.Categories, p.Category) && in(q.Brands, p.Brand) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		switch q.SortBy {
		case store.SortPriceHighToLow:
			return out[i].Price > out[j].Price
		case store.SortTitleAToZ:
			return out[i].Title < out[j].Title
		case store.SortTitleZToA:
			return out[i].Title > out[j].Title
		default:
			return out[i].Price < out[j].Price
		}
	})
	return out, nil
}

func (m *memProducts) Search(_ context.Context, keyword string) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keyword = strings.ToLower(keyword)
	out := []models.Product{}
	for _, p := range m.items {
		if strings.Contains(strings.ToLower(p.Title+" "+p.Description+" "+p.Category+" "+p.Brand), keyword) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProducts) Get(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("products.get: %w", store.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) FindByTitle(_ context.Context, title string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.Title == title {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("products.findByTitle: %w", store.ErrNotFound)
}

func (m *memProducts) Insert(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *memProducts) Update(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.ID]; !ok {
		return fmt.Errorf("products.update: %w", store.ErrNotFound)
	}
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *memProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("products.delete: %w", store.ErrNotFound)
	}
	delete(m.items, id)
	return nil
}

func (m *memProducts) SetAverageReview(_ context.Context, id primitive.ObjectID, avg float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.items[id]; ok {
		p.AverageReview = avg
	}
	return nil
}

func (m *memProducts) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return fmt.Errorf("products.decrementStock: %w", store.ErrNotFound)
	}
	if p.TotalStock < qty {
		return store.ErrInsufficientStock
	}
	p.TotalStock -= qty
	return nil
}

func (m *memProducts) RestoreStock(_ context.Context, id primitive.ObjectID, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.items[id]; ok {
		p.TotalStock += qty
	}
	return nil
}

func (m *memProducts) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.items)), nil
}

func (m *memProducts) stock(id primitive.ObjectID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].TotalStock
}

type memUsers struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{items: map[primitive.ObjectID]*models.User{}}
}

func (m *memUsers) Insert(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Email == u.Email {
			return fmt.Errorf("users.insert: %w", store.ErrDuplicate)
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	cp := *u
	m.items[u.ID] = &cp
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("users.findByEmail: %w", store.ErrNotFound)
}

func (m *memUsers) Get(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("users.get: %w", store.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) List(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.items {
		cp := *u
		cp.Password = ""
		out = append(out, cp)
	}
	return out, nil
}

func (m *memUsers) UpdateRole(_ context.Context, id primitive.ObjectID, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return fmt.Errorf("users.updateRole: %w", store.ErrNotFound)
	}
	u.Role = role
	return nil
}

func (m *memUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("users.delete: %w", store.ErrNotFound)
	}
	delete(m.items, id)
	return nil
}

type memCarts struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Cart
}

func newMemCarts() *memCarts {
	return &memCarts{items: map[primitive.ObjectID]models.Cart{}}
}

func (m *memCarts) Get(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.items[userID]
	if !ok {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	cart.Items = append([]models.CartItem{}, cart.Items...)
	return &cart, nil
}

func (m *memCarts) Save(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *cart
	cp.Items = append([]models.CartItem{}, cart.Items...)
	m.items[cart.UserID] = cp
	return nil
}

func (m *memCarts) Clear(_ context.Context, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart := m.items[userID]
	cart.Items = []models.CartItem{}
	m.items[userID] = cart
	return nil
}

func (m *memCarts) lines(userID primitive.ObjectID) []models.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[userID].Items
}

type memAddresses struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Address
}

func newMemAddresses() *memAddresses {
	return &memAddresses{items: map[primitive.ObjectID]models.Address{}}
}

func (m *memAddresses) Insert(_ context.Context, a *models.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = primitive.NewObjectID()
	m.items[a.ID] = *a
	return nil
}

func (m *memAddresses) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Address{}
	for _, a := range m.items {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAddresses) Get(_ context.Context, userID, id primitive.ObjectID) (*models.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok || a.UserID != userID {
		return nil, fmt.Errorf("addresses.get: %w", store.ErrNotFound)
	}
	return &a, nil
}

func (m *memAddresses) Update(_ context.Context, a *models.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[a.ID]
	if !ok || existing.UserID != a.UserID {
		return fmt.Errorf("addresses.update: %w", store.ErrNotFound)
	}
	m.items[a.ID] = *a
	return nil
}

func (m *memAddresses) Delete(_ context.Context, userID, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[id]
	if !ok || existing.UserID != userID {
		return fmt.Errorf("addresses.delete: %w", store.ErrNotFound)
	}
	delete(m.items, id)
	return nil
}

type memOrders struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Order
}

func newMemOrders(orders ...models.Order) *memOrders {
	m := &memOrders{items: map[primitive.ObjectID]models.Order{}}
	for _, o := range orders {
		if o.ID.IsZero() {
			o.ID = primitive.NewObjectID()
		}
		m.items[o.ID] = o
	}
	return m
}

func (m *memOrders) Insert(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = primitive.NewObjectID()
	m.items[o.ID] = *o
	return nil
}

func (m *memOrders) Get(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("orders.get: %w", store.ErrNotFound)
	}
	return &o, nil
}

func (m *memOrders) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.items {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOrders) ListAll(context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.items {
		out = append(out, o)
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return fmt.Errorf("orders.updateStatus: %w", store.ErrNotFound)
	}
	o.OrderStatus = status
	m.items[id] = o
	return nil
}

func (m *memOrders) MarkPaid(_ context.Context, id primitive.ObjectID, paymentID, payerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.items[id]
	if !ok {
		return fmt.Errorf("orders.markPaid: %w", store.ErrNotFound)
	}
	if o.OrderStatus != models.OrderPending || o.PaymentStatus != models.PaymentPending {
		return fmt.Errorf("orders.markPaid: %w", store.ErrConflict)
	}
	o.PaymentStatus = models.PaymentPaid
	o.OrderStatus = models.OrderConfirmed
	o.PaymentID, o.PayerID = paymentID, payerID
	m.items[id] = o
	return nil
}

func (m *memOrders) HasConfirmedPurchase(_ context.Context, userID, productID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.items {
		if o.UserID == userID && o.OrderStatus == models.OrderConfirmed && orderHas(o, productID) {
			return true, nil
		}
	}
	return false, nil
}

type memReviews struct {
	mu    sync.Mutex
	items []models.Review
}

func (m *memReviews) Insert(_ context.Context, r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = primitive.NewObjectID()
	m.items = append(m.items, *r)
	return nil
}

func (m *memReviews) ListByProduct(_ context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Review{}
	for _, r := range m.items {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReviews) Exists(_ context.Context, productID, userID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.ProductID == productID && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type memFeatures struct {
	mu    sync.Mutex
	items []models.FeatureImage
}

func (m *memFeatures) Insert(_ context.Context, img *models.FeatureImage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	img.ID = primitive.NewObjectID()
	m.items = append(m.items, *img)
	return nil
}

func (m *memFeatures) List(context.Context) ([]models.FeatureImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.FeatureImage{}, m.items...), nil
}

func (m *memFeatures) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, img := range m.items {
		if img.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("features.delete: %w", store.ErrNotFound)
}

// memCache records invalidations and rejects requests once limit is reached.
type memCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	invalidated int
	limit       int
	hits        map[string]int
}

func newMemCache(limit int) *memCache {
	return &memCache{data: map[string][]byte{}, hits: map[string]int{}, limit: limit}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return data, nil
}

func (m *memCache) Set(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return nil
}

func (m *memCache) InvalidateProducts(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated++
	m.data = map[string][]byte{}
	return nil
}

func (m *memCache) Allow(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[key]++
	return m.limit <= 0 || m.hits[key] <= m.limit
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

type recordingIndex struct {
	mu      sync.Mutex
	put     []string
	removed []string
	docs    map[primitive.ObjectID]models.Product
}

// doc returns the last indexed version of a product.
func (r *recordingIndex) doc(id primitive.ObjectID) (models.Product, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.docs[id]
	return p, ok
}

func (r *recordingIndex) Search(context.Context, string) ([]models.Product, error) {
	return []models.Product{}, nil
}

func (r *recordingIndex) Put(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put = append(r.put, p.Title)
	if r.docs == nil {
		r.docs = map[primitive.ObjectID]models.Product{}
	}
	r.docs[p.ID] = *p
	return nil
}

func (r *recordingIndex) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, id)
	return nil
}

type fakeImages struct {
	err  error
	body []byte
}

func (f *fakeImages) Upload(_ context.Context, r io.Reader) (*storage.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.body = data
	if f.err != nil {
		return nil, f.err
	}
	return &storage.Result{URL: "https://cdn.example.com/products/a.png", Key: "products/a.png", ContentType: "image/png"}, nil
}

func orderHas(o models.Order, productID primitive.ObjectID) bool {
	for _, item := range o.CartItems {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}
