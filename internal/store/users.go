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

type Users struct {
	coll *mongo.Collection
}

func (u *Users) Insert(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	_, err := u.coll.InsertOne(ctx, user)
	return wrap("users.insert", err)
}

func (u *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := u.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, wrap("users.findByEmail", err)
	}
	return &user, nil
}

func (u *Users) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := u.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, wrap("users.get", err)
	}
	return &user, nil
}

// List returns every user without password hashes.
func (u *Users) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().
		SetProjection(bson.M{"password": 0}).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := u.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrap("users.list", err)
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, wrap("users.list", err)
	}
	return users, nil
}

func (u *Users) UpdateRole(ctx context.Context, id primitive.ObjectID, role models.Role) error {
	res, err := u.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return wrap("users.updateRole", err)
	}
	if res.MatchedCount == 0 {
		return wrap("users.updateRole", mongo.ErrNoDocuments)
	}
	return nil
}

func (u *Users) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := u.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap("users.delete", err)
	}
	if res.DeletedCount == 0 {
		return wrap("users.delete", mongo.ErrNoDocuments)
	}
	return nil
}
