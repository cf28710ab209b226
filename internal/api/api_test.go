package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/auth"
	"storefront-backend/internal/models"
	"storefront-backend/internal/pricing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	products  *memProducts
	users     *memUsers
	carts     *memCarts
	addresses *memAddresses
	orders    *memOrders
	reviews   *memReviews
	features  *memFeatures
	cache     *memCache
	events    *recordingPublisher
	index     *recordingIndex
	images    *fakeImages
	issuer    *auth.Issuer

	router *gin.Engine
}

type envOption func(*Deps)

func newTestEnv(t *testing.T, products []*models.Product, opts ...envOption) *testEnv {
	t.Helper()
	env := &testEnv{
		products:  newMemProducts(products...),
		users:     newMemUsers(),
		carts:     newMemCarts(),
		addresses: newMemAddresses(),
		orders:    newMemOrders(),
		reviews:   &memReviews{},
		features:  &memFeatures{},
		cache:     newMemCache(0),
		events:    &recordingPublisher{},
		index:     &recordingIndex{},
		images:    &fakeImages{},
		issuer:    auth.NewIssuer("test-secret", time.Hour),
	}
	d := Deps{
		Products:  env.products,
		Users:     env.users,
		Carts:     env.carts,
		Addresses: env.addresses,
		Orders:    env.orders,
		Reviews:   env.reviews,
		Features:  env.features,
		Issuer:    env.issuer,
		Pricing:   pricing.Default(),
		Search:    env.index,
		Images:    env.images,
		Cache:     env.cache,
		Events:    env.events,
	}
	for _, opt := range opts {
		opt(&d)
	}
	env.router = NewRouter(New(d), RouterOptions{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	return env
}

// login registers a user directly in the store and returns a bearer token.
func (e *testEnv) login(t *testing.T, role models.Role) (primitive.ObjectID, string) {
	t.Helper()
	user := &models.User{
		ID:       primitive.NewObjectID(),
		UserName: "user-" + string(role),
		Email:    primitive.NewObjectID().Hex() + "@example.com",
		Role:     role,
	}
	require.NoError(t, e.users.Insert(t.Context(), user))
	token, err := e.issuer.Issue(user)
	require.NoError(t, err)
	return user.ID, token
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.serve(t, req)
}

func (e *testEnv) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	var resp apiResponse
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "application/yaml" {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func shirt(stock int) *models.Product {
	return &models.Product{
		ID:         primitive.NewObjectID(),
		Title:      "Linen Shirt",
		Category:   "men",
		Brand:      "nike",
		Images:     []string{"https://cdn.example.com/shirt.png"},
		Price:      100,
		SalePrice:  80,
		TotalStock: stock,
		Sizes:      []string{"M", "L"},
	}
}
