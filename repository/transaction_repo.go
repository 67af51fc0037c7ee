package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/caselens/casefile-be/types"
)

type TransactionRepo interface {
	CreateMany(ctx context.Context, transactions []*types.Transaction) error
	ListByCase(ctx context.Context, caseID string) ([]*types.Transaction, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

type transactionRepo struct {
	collection *mongo.Collection
}

func NewTransactionRepo(collection *mongo.Collection) TransactionRepo {
	return &transactionRepo{collection: collection}
}

func (r *transactionRepo) CreateMany(ctx context.Context, transactions []*types.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(transactions))
	for _, t := range transactions {
		docs = append(docs, t)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

func (r *transactionRepo) ListByCase(ctx context.Context, caseID string) ([]*types.Transaction, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"case_id": caseID},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var transactions []*types.Transaction
	if err := cursor.All(ctx, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *transactionRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"document_ids": documentID})
	return err
}
