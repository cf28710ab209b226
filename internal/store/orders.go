package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-backend/internal/models"
)

type Orders struct {
	coll *mongo.Collection
}

func (o *Orders) Insert(ctx context.Context, order *models.Order) error {
	order.ID = primitive.NewObjectID()
	_, err := o.coll.InsertOne(ctx, order)
	return wrap("orders.insert", err)
}

func (o *Orders) Get(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := o.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, wrap("orders.get", err)
	}
	return &order, nil
}

func (o *Orders) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return o.find(ctx, "orders.listByUser", bson.M{"userId": userID})
}

func (o *Orders) ListAll(ctx context.Context) ([]models.Order, error) {
	return o.find(ctx, "orders.listAll", bson.M{})
}

func (o *Orders) find(ctx context.Context, op string, filter bson.M) ([]models.Order, error) {
	cur, err := o.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "orderDate", Value: -1}}))
	if err != nil {
		return nil, wrap(op, err)
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, wrap(op, err)
	}
	return orders, nil
}

func (o *Orders) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) error {
	return o.set(ctx, "orders.updateStatus", id, bson.M{"orderStatus": status})
}

// MarkPaid records the payment provider ids and confirms the order. Only an
// order still pending on both status and payment matches; any other existing
// order yields ErrConflict.
func (o *Orders) MarkPaid(ctx context.Context, id primitive.ObjectID, paymentID, payerID string) error {
	res, err := o.coll.UpdateOne(ctx, markPaidFilter(id), bson.M{"$set": bson.M{
		"paymentStatus":   models.PaymentPaid,
		"orderStatus":     models.OrderConfirmed,
		"paymentId":       paymentID,
		"payerId":         payerID,
		"orderUpdateDate": time.Now().UTC(),
	}})
	if err != nil {
		return wrap("orders.markPaid", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := o.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return wrap("orders.markPaid", err)
	}
	if n == 0 {
		return wrap("orders.markPaid", mongo.ErrNoDocuments)
	}
	return fmt.Errorf("orders.markPaid: %w", ErrConflict)
}

func markPaidFilter(id primitive.ObjectID) bson.M {
	return bson.M{
		"_id":           id,
		"paymentStatus": models.PaymentPending,
		"orderStatus":   models.OrderPending,
	}
}

func (o *Orders) set(ctx context.Context, op string, id primitive.ObjectID, fields bson.M) error {
	fields["orderUpdateDate"] = time.Now().UTC()
	res, err := o.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return wrap(op, err)
	}
	if res.MatchedCount == 0 {
		return wrap(op, mongo.ErrNoDocuments)
	}
	return nil
}

// HasConfirmedPurchase reports whether the user has a confirmed order that
// contains the product.
func (o *Orders) HasConfirmedPurchase(ctx context.Context, userID, productID primitive.ObjectID) (bool, error) {
	n, err := o.coll.CountDocuments(ctx, bson.M{
		"userId":              userID,
		"orderStatus":         models.OrderConfirmed,
		"cartItems.productId": productID,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, wrap("orders.hasConfirmedPurchase", err)
	}
	return n > 0, nil
}
