package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/caselens/casefile-be/types"
)

type DocumentRepo interface {
	Create(ctx context.Context, doc *types.Document) error
	Get(ctx context.Context, id string) (*types.Document, error)
	List(ctx context.Context, caseID, docType, status string, skip, limit int64) ([]*types.Document, int64, error)
	Update(ctx context.Context, doc *types.Document) error
	SetStatus(ctx context.Context, id, status string) error
	SetProcessed(ctx context.Context, id, extractedText string) error
	SetError(ctx context.Context, id, message string) error
	StatusByIDs(ctx context.Context, ids []string) (map[string]string, error)
	Delete(ctx context.Context, id string) error
}

type documentRepo struct {
	collection *mongo.Collection
}

func NewDocumentRepo(collection *mongo.Collection) DocumentRepo {
	return &documentRepo{collection: collection}
}

func (r *documentRepo) Create(ctx context.Context, doc *types.Document) error {
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

func (r *documentRepo) Get(ctx context.Context, id string) (*types.Document, error) {
	var doc types.Document
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) List(ctx context.Context, caseID, docType, status string, skip, limit int64) ([]*types.Document, int64, error) {
	filter := bson.M{"case_id": caseID}
	if docType != "" {
		filter["type"] = docType
	}
	if status != "" {
		filter["status"] = status
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
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
	var docs []*types.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (r *documentRepo) Update(ctx context.Context, doc *types.Document) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": doc.ID},
		bson.M{"$set": bson.M{
			"type":           doc.Type,
			"title":          doc.Title,
			"description":    doc.Description,
			"participants":   doc.Participants,
			"reference_date": doc.ReferenceDate,
			"updated_at":     doc.UpdatedAt,
		}})
	return err
}

func (r *documentRepo) SetStatus(ctx context.Context, id, status string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}})
	return err
}

func (r *documentRepo) SetProcessed(ctx context.Context, id, extractedText string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":         types.DOCUMENT_STATUS_PROCESSED,
			"extracted_text": extractedText,
		}})
	return err
}

func (r *documentRepo) SetError(ctx context.Context, id, message string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":        types.DOCUMENT_STATUS_ERROR,
			"error_message": message,
		}})
	return err
}

func (r *documentRepo) StatusByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	statuses := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return statuses, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var docs []*types.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, doc := range docs {
		statuses[doc.ID] = doc.Status
	}
	return statuses, nil
}

func (r *documentRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
