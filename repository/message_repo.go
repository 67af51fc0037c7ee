package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/caselens/casefile-be/types"
)

type MessageRepo interface {
	Create(ctx context.Context, msg *types.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]*types.Message, error)
	DeleteByConversation(ctx context.Context, conversationID string) error
}

type messageRepo struct {
	collection *mongo.Collection
}

func NewMessageRepo(collection *mongo.Collection) MessageRepo {
	return &messageRepo{collection: collection}
}

func (r *messageRepo) Create(ctx context.Context, msg *types.Message) error {
	_, err := r.collection.InsertOne(ctx, msg)
	return err
}

// ListByConversation returns messages oldest first; the nanosecond
// creation time is the total order within a conversation.
func (r *messageRepo) ListByConversation(ctx context.Context, conversationID string) ([]*types.Message, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"conversation_id": conversationID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var messages []*types.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *messageRepo) DeleteByConversation(ctx context.Context, conversationID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"conversation_id": conversationID})
	return err
}
