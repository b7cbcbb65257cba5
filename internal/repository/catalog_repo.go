package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"photodoctor/internal/model"
)

// CatalogRepo is the optional MongoDB source of the product catalog
type CatalogRepo interface {
	List(ctx context.Context) ([]model.Product, error)
	ReplaceAll(ctx context.Context, products []model.Product) error
}

type catalogRepo struct {
	collection *mongo.Collection
}

// NewCatalogRepo creates a new catalog repository
func NewCatalogRepo(db *mongo.Database) CatalogRepo {
	return &catalogRepo{
		collection: db.Collection("products"),
	}
}

// List returns products in insertion order, which is the mixer's order
func (r *catalogRepo) List(ctx context.Context) ([]model.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}}).SetProjection(bson.M{"_id": 0, "order": 0})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []model.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ReplaceAll swaps the whole catalog
func (r *catalogRepo) ReplaceAll(ctx context.Context, products []model.Product) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if len(products) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(products))
	for i, p := range products {
		docs = append(docs, orderedProduct{Order: i, Product: p})
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

type orderedProduct struct {
	Order         int `bson:"order"`
	model.Product `bson:",inline"`
}
