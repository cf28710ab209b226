package store

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-backend/internal/models"
)

// ProductQuery filters and orders the shop listing.
type ProductQuery struct {
	Categories []string
	Brands     []string
	SortBy     string
}

const (
	SortPriceLowToHigh = "price-lowtohigh"
	SortPriceHighToLow = "price-hightolow"
	SortTitleAToZ      = "title-atoz"
	SortTitleZToA      = "title-ztoa"
)

// Filter builds the mongo filter for the query.
func (q ProductQuery) Filter() bson.M {
	filter := bson.M{}
	if len(q.Categories) > 0 {
		filter["category"] = bson.M{"$in": q.Categories}
	}
	if len(q.Brands) > 0 {
		filter["brand"] = bson.M{"$in": q.Brands}
	}
	return filter
}

// Sort returns the sort document; unknown values fall back to lowest price first.
func (q ProductQuery) Sort() bson.D {
	switch q.SortBy {
	case SortPriceHighToLow:
		return bson.D{{Key: "price", Value: -1}}
	case SortTitleAToZ:
		return bson.D{{Key: "title", Value: 1}}
	case SortTitleZToA:
		return bson.D{{Key: "title", Value: -1}}
	default:
		return bson.D{{Key: "price", Value: 1}}
	}
}

// KeywordFilter matches keyword case-insensitively against the text fields.
func KeywordFilter(keyword string) bson.M {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(strings.TrimSpace(keyword)), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"description": pattern},
		bson.M{"category": pattern},
		bson.M{"brand": pattern},
	}}
}

type Products struct {
	coll *mongo.Collection
}

func (p *Products) List(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	return p.find(ctx, "products.list", q.Filter(), options.Find().SetSort(q.Sort()))
}

func (p *Products) Search(ctx context.Context, keyword string) ([]models.Product, error) {
	return p.find(ctx, "products.search", KeywordFilter(keyword), nil)
}

func (p *Products) find(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]models.Product, error) {
	cur, err := p.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrap(op, err)
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, wrap(op, err)
	}
	return products, nil
}

func (p *Products) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	if err := p.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, wrap("products.get", err)
	}
	return &product, nil
}

func (p *Products) FindByTitle(ctx context.Context, title string) (*models.Product, error) {
	var product models.Product
	if err := p.coll.FindOne(ctx, bson.M{"title": title}).Decode(&product); err != nil {
		return nil, wrap("products.findByTitle", err)
	}
	return &product, nil
}

func (p *Products) Insert(ctx context.Context, product *models.Product) error {
	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt, product.UpdatedAt = now, now
	_, err := p.coll.InsertOne(ctx, product)
	return wrap("products.insert", err)
}

// Update replaces the editable fields of the product. Average review is
// owned by the review flow and is left untouched.
func (p *Products) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now().UTC()
	res, err := p.coll.UpdateOne(ctx, bson.M{"_id": product.ID}, bson.M{"$set": bson.M{
		"images":      product.Images,
		"title":       product.Title,
		"description": product.Description,
		"category":    product.Category,
		"brand":       product.Brand,
		"price":       product.Price,
		"salePrice":   product.SalePrice,
		"totalStock":  product.TotalStock,
		"sizes":       product.Sizes,
		"colors":      product.Colors,
		"updatedAt":   product.UpdatedAt,
	}})
	if err != nil {
		return wrap("products.update", err)
	}
	if res.MatchedCount == 0 {
		return wrap("products.update", mongo.ErrNoDocuments)
	}
	return nil
}

func (p *Products) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := p.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrap("products.delete", err)
	}
	if res.DeletedCount == 0 {
		return wrap("products.delete", mongo.ErrNoDocuments)
	}
	return nil
}

func (p *Products) SetAverageReview(ctx context.Context, id primitive.ObjectID, avg float64) error {
	_, err := p.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"averageReview": avg}})
	return wrap("products.setAverageReview", err)
}

// DecrementStock removes qty units only when that many are in stock.
func (p *Products) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	res, err := p.coll.UpdateOne(ctx,
		bson.M{"_id": id, "totalStock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"totalStock": -qty}},
	)
	if err != nil {
		return wrap("products.decrementStock", err)
	}
	if res.MatchedCount == 0 {
		if _, err := p.Get(ctx, id); err != nil {
			return err
		}
		return ErrInsufficientStock
	}
	return nil
}

// RestoreStock puts back units taken by DecrementStock.
func (p *Products) RestoreStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	_, err := p.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"totalStock": qty}})
	return wrap("products.restoreStock", err)
}

func (p *Products) Count(ctx context.Context) (int64, error) {
	n, err := p.coll.CountDocuments(ctx, bson.M{})
	return n, wrap("products.count", err)
}
