package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-backend/internal/models"
)

type Reviews struct {
	coll *mongo.Collection
}

func (r *Reviews) Insert(ctx context.Context, review *models.Review) error {
	review.ID = primitive.NewObjectID()
	review.CreatedAt = time.Now().UTC()
	_, err := r.coll.InsertOne(ctx, review)
	return wrap("reviews.insert", err)
}

func (r *Reviews) ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Review, error) {
	cur, err := r.coll.Find(ctx, bson.M{"productId": productID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, wrap("reviews.list", err)
	}
	reviews := []models.Review{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, wrap("reviews.list", err)
	}
	return reviews, nil
}

func (r *Reviews) Exists(ctx context.Context, productID, userID primitive.ObjectID) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"productId": productID, "userId": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, wrap("reviews.exists", err)
	}
	return n > 0, nil
}
