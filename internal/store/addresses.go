package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront-backend/internal/models"
)

type Addresses struct {
	coll *mongo.Collection
}

func (a *Addresses) Insert(ctx context.Context, addr *models.Address) error {
	addr.ID = primitive.NewObjectID()
	_, err := a.coll.InsertOne(ctx, addr)
	return wrap("addresses.insert", err)
}

func (a *Addresses) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Address, error) {
	cur, err := a.coll.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, wrap("addresses.list", err)
	}
	addrs := []models.Address{}
	if err := cur.All(ctx, &addrs); err != nil {
		return nil, wrap("addresses.list", err)
	}
	return addrs, nil
}

func (a *Addresses) Get(ctx context.Context, userID, id primitive.ObjectID) (*models.Address, error) {
	var addr models.Address
	if err := a.coll.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&addr); err != nil {
		return nil, wrap("addresses.get", err)
	}
	return &addr, nil
}

func (a *Addresses) Update(ctx context.Context, addr *models.Address) error {
	res, err := a.coll.UpdateOne(ctx,
		bson.M{"_id": addr.ID, "userId": addr.UserID},
		bson.M{"$set": bson.M{
			"address": addr.Address,
			"city":    addr.City,
			"pincode": addr.Pincode,
			"phone":   addr.Phone,
			"notes":   addr.Notes,
		}},
	)
	if err != nil {
		return wrap("addresses.update", err)
	}
	if res.MatchedCount == 0 {
		return wrap("addresses.update", mongo.ErrNoDocuments)
	}
	return nil
}

func (a *Addresses) Delete(ctx context.Context, userID, id primitive.ObjectID) error {
	res, err := a.coll.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return wrap("addresses.delete", err)
	}
	if res.DeletedCount == 0 {
		return wrap("addresses.delete", mongo.ErrNoDocuments)
	}
	return nil
}
