// Package models holds the documents stored in MongoDB and returned over the API.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserName  string             `bson:"userName" json:"userName"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password,omitempty" json:"-"`
	Role      Role               `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Images        []string           `bson:"images" json:"images"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Category      string             `bson:"category" json:"category"`
	Brand         string             `bson:"brand" json:"brand"`
	Price         float64            `bson:"price" json:"price"`
	SalePrice     float64            `bson:"salePrice" json:"salePrice"`
	TotalStock    int                `bson:"totalStock" json:"totalStock"`
	AverageReview float64            `bson:"averageReview" json:"averageReview"`
	Sizes         []string           `bson:"sizes" json:"sizes"`
	Colors        []string           `bson:"colors" json:"colors"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// EffectivePrice is the price a customer pays: the sale price when one is set.
func (p Product) EffectivePrice() float64 {
	if p.SalePrice > 0 {
		return p.SalePrice
	}
	return p.Price
}

type CartItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Size      string             `bson:"size,omitempty" json:"size,omitempty"`
}

// Matches reports whether the line is for the given product and size.
func (i CartItem) Matches(productID primitive.ObjectID, size string) bool {
	return i.ProductID == productID && i.Size == size
}

type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Items     []CartItem         `bson:"items" json:"items"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Find returns the index of the line for productID and size, or -1.
func (c *Cart) Find(productID primitive.ObjectID, size string) int {
	for i, item := range c.Items {
		if item.Matches(productID, size) {
			return i
		}
	}
	return -1
}

type Address struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID  primitive.ObjectID `bson:"userId" json:"userId"`
	Address string             `bson:"address" json:"address"`
	City    string             `bson:"city" json:"city"`
	Pincode string             `bson:"pincode" json:"pincode"`
	Phone   string             `bson:"phone" json:"phone"`
	Notes   string             `bson:"notes" json:"notes"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderRejected  OrderStatus = "rejected"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderRejected:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type OrderItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Title     string             `bson:"title" json:"title"`
	Image     string             `bson:"image" json:"image"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Size      string             `bson:"size,omitempty" json:"size,omitempty"`
}

// AddressInfo is the address copied onto an order at checkout.
type AddressInfo struct {
	AddressID primitive.ObjectID `bson:"addressId,omitempty" json:"addressId"`
	Address   string             `bson:"address" json:"address" binding:"required"`
	City      string             `bson:"city" json:"city" binding:"required"`
	Pincode   string             `bson:"pincode" json:"pincode" binding:"required"`
	Phone     string             `bson:"phone" json:"phone" binding:"required"`
	Notes     string             `bson:"notes" json:"notes"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	CartItems       []OrderItem        `bson:"cartItems" json:"cartItems"`
	AddressInfo     AddressInfo        `bson:"addressInfo" json:"addressInfo"`
	OrderStatus     OrderStatus        `bson:"orderStatus" json:"orderStatus"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus   PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	Subtotal        float64            `bson:"subtotal" json:"subtotal"`
	GSTAmount       float64            `bson:"gstAmount" json:"gstAmount"`
	HandlingAmount  float64            `bson:"handlingAmount" json:"handlingAmount"`
	DeliveryAmount  float64            `bson:"deliveryAmount" json:"deliveryAmount"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	OrderDate       time.Time          `bson:"orderDate" json:"orderDate"`
	OrderUpdateDate time.Time          `bson:"orderUpdateDate" json:"orderUpdateDate"`
	PaymentID       string             `bson:"paymentId" json:"paymentId"`
	PayerID         string             `bson:"payerId" json:"payerId"`
}

type Review struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ProductID     primitive.ObjectID `bson:"productId" json:"productId"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	UserName      string             `bson:"userName" json:"userName"`
	ReviewMessage string             `bson:"reviewMessage" json:"reviewMessage"`
	ReviewValue   int                `bson:"reviewValue" json:"reviewValue"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// AverageReview is the mean review value, 0 when there are no reviews.
func AverageReview(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.ReviewValue
	}
	return float64(sum) / float64(len(reviews))
}

// FeatureImage is a storefront banner managed from the admin panel.
type FeatureImage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Image     string             `bson:"image" json:"image"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
