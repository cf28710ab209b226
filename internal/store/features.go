package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront-backend/internal/models"
)

type Features struct {
	coll *mongo.Collection
}

func (f *Features) Insert(ctx context.Context, img *models.FeatureImage) error {
	img.ID = primitive.NewObjectID()
	img.CreatedAt = time.Now().UTC()
	_, err := f.coll.InsertOne(ctx, img)
	return wrap("features.insert", err)
}

func (f *Features) List(ctx context.Context) ([]models.FeatureImage, error) {
	cur, err := f.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, wrap("features.list", err)
	}
	imgs := []models.FeatureImage{}
	if err := cur.All(ctx, &imgs); err != nil {
		return nil, wrap("features.list", err)
	}
	return imgs, nil
}

func (f *Features) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := f.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap("features.delete", err)
	}
	if res.DeletedCount == 0 {
		return wrap("features.delete", mongo.ErrNoDocuments)
	}
	return nil
}
