package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/caselens/casefile-be/types"
)

type CaseRepo interface {
	Create(ctx context.Context, c *types.Case) error
	Get(ctx context.Context, id string) (*types.Case, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*types.Case, error)
	Update(ctx context.Context, c *types.Case) error
	Delete(ctx context.Context, id string) error
}

type caseRepo struct {
	collection *mongo.Collection
}

func NewCaseRepo(collection *mongo.Collection) CaseRepo {
	return &caseRepo{collection: collection}
}

func (r *caseRepo) Create(ctx context.Context, c *types.Case) error {
	_, err := r.collection.InsertOne(ctx, c)
	return err
}

func (r *caseRepo) Get(ctx context.Context, id string) (*types.Case, error) {
	var c types.Case
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepo) ListByOwner(ctx context.Context, ownerID string) ([]*types.Case, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"owner_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var cases []*types.Case
	if err := cursor.All(ctx, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

func (r *caseRepo) Update(ctx context.Context, c *types.Case) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": c.ID},
		bson.M{"$set": bson.M{
			"number":      c.Number,
			"title":       c.Title,
			"description": c.Description,
			"notes":       c.Notes,
			"status":      c.Status,
			"updated_at":  c.UpdatedAt,
		}})
	return err
}

func (r *caseRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
