package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/caselens/casefile-be/types"
)

type ConversationRepo interface {
	Create(ctx context.Context, conv *types.Conversation) error
	Get(ctx context.Context, id string) (*types.Conversation, error)
	ListByUser(ctx context.Context, userID, caseID string, skip, limit int64) ([]*types.Conversation, int64, error)
	SetTitle(ctx context.Context, id, title string) error
	Touch(ctx context.Context, id string, updatedAt int64) error
	Delete(ctx context.Context, id string) error
}

type conversationRepo struct {
	collection *mongo.Collection
}

func NewConversationRepo(collection *mongo.Collection) ConversationRepo {
	return &conversationRepo{collection: collection}
}

func (r *conversationRepo) Create(ctx context.Context, conv *types.Conversation) error {
	_, err := r.collection.InsertOne(ctx, conv)
	return err
}

func (r *conversationRepo) Get(ctx context.Context, id string) (*types.Conversation, error) {
	var conv types.Conversation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepo) ListByUser(ctx context.Context, userID, caseID string, skip, limit int64) ([]*types.Conversation, int64, error) {
	filter := bson.M{"user_id": userID}
	if caseID != "" {
		filter["case_id"] = caseID
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	if skip > 0 {
		opts = opts.SetSkip(skip)
	}
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	var convs []*types.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, 0, err
	}
	return convs, total, nil
}

func (r *conversationRepo) SetTitle(ctx context.Context, id, title string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"title": title}})
	return err
}

func (r *conversationRepo) Touch(ctx context.Context, id string, updatedAt int64) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"updated_at": updatedAt}})
	return err
}

func (r *conversationRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
