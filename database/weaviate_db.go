package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.uber.org/zap"

	"github.com/caselens/casefile-be/config"
	"github.com/caselens/casefile-be/types"
)

const BATCH_SIZE = 200

var (
	FRAGMENT_CLASS        = "CaseFragment"
	FRAGMENT_CLASS_OBJECT = &models.Class{
		Class: FRAGMENT_CLASS,
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "documentId", DataType: []string{"text"}},
			{Name: "caseId", DataType: []string{"text"}},
			{Name: "position", DataType: []string{"int"}},
			{Name: "tokenCount", DataType: []string{"int"}},
			{Name: "docTitle", DataType: []string{"text"}},
			{Name: "docType", DataType: []string{"text"}},
			{Name: "participants", DataType: []string{"text[]"}},
			{Name: "referenceDate", DataType: []string{"text"}},
		},
		// Vectors are computed by the embedding batcher, never by Weaviate.
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
		VectorIndexConfig: map[string]interface{}{
			"distance": "cosine",
		},
	}
)

var fragmentFields = []graphql.Field{
	{Name: "content"},
	{Name: "documentId"},
	{Name: "caseId"},
	{Name: "position"},
	{Name: "tokenCount"},
	{Name: "docTitle"},
	{Name: "docType"},
	{Name: "participants"},
	{Name: "referenceDate"},
	{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "distance"}}},
}

// FragmentStore persists embedded fragments in Weaviate and answers
// nearest-neighbor queries over them.
type FragmentStore struct {
	client *weaviate.Client
	logger *zap.SugaredLogger
}

func NewFragmentStore(cfg config.WeaviateConfig, logger *zap.SugaredLogger) (*FragmentStore, error) {
	var scheme string
	if strings.Contains(cfg.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	clientCfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		clientCfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}

	client, err := weaviate.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	schema, err := client.Schema().Getter().Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}

	hasFragmentClass := false
	for _, class := range schema.Classes {
		if class.Class == FRAGMENT_CLASS {
			hasFragmentClass = true
			break
		}
	}
	if !hasFragmentClass {
		err = client.Schema().ClassCreator().WithClass(FRAGMENT_CLASS_OBJECT).Do(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to create %s class: %w", FRAGMENT_CLASS, err)
		}
	}
	return &FragmentStore{client: client, logger: logger}, nil
}

// ReInit drops and recreates the fragment class, losing all fragments.
func (s *FragmentStore) ReInit() error {
	err := s.client.Schema().ClassDeleter().WithClassName(FRAGMENT_CLASS).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to delete %s class: %w", FRAGMENT_CLASS, err)
	}
	err = s.client.Schema().ClassCreator().WithClass(FRAGMENT_CLASS_OBJECT).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to create %s class: %w", FRAGMENT_CLASS, err)
	}
	return nil
}

// BatchInsertFragments writes one fragment+vector pair per input, in
// batches. Fragment IDs become the Weaviate object IDs so that stored
// messages can reference the exact fragments used.
func (s *FragmentStore) BatchInsertFragments(ctx context.Context, fragments []types.Fragment, vectors [][]float32) error {
	if len(fragments) != len(vectors) {
		return fmt.Errorf("fragment/vector count mismatch: %d vs %d", len(fragments), len(vectors))
	}
	total := len(fragments)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			f := fragments[j]
			batcher = batcher.WithObjects(&models.Object{
				Class:      FRAGMENT_CLASS,
				ID:         strfmt.UUID(f.ID),
				Properties: fragmentProperties(f),
				Vector:     vectors[j],
			})
		}

		resp, err := batcher.Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %w", i, end, err)
		}
		for _, obj := range resp {
			if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
				return fmt.Errorf("failed to insert fragment %s: %s", obj.ID, obj.Result.Errors.Error[0].Message)
			}
		}
		s.logger.Debugw("inserted fragment batch", "from", i, "to", end, "total", total)
	}
	return nil
}

// DeleteByDocument removes every fragment belonging to the document.
func (s *FragmentStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(FRAGMENT_CLASS).
		WithWhere(filters.Where().
			WithPath([]string{"documentId"}).
			WithOperator(filters.Equal).
			WithValueText(documentID)).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete fragments of document %s: %w", documentID, err)
	}
	return nil
}

// FragmentsByDocument returns the document's fragments ordered by position.
func (s *FragmentStore) FragmentsByDocument(ctx context.Context, documentID string) ([]types.Fragment, error) {
	result, err := s.client.GraphQL().Get().
		WithClassName(FRAGMENT_CLASS).
		WithFields(fragmentFields...).
		WithWhere(filters.Where().
			WithPath([]string{"documentId"}).
			WithOperator(filters.Equal).
			WithValueText(documentID)).
		WithSort(graphql.Sort{Path: []string{"position"}, Order: graphql.Asc}).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fragments: %w", err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("failed to fetch fragments: %v", result.Errors[0].Message)
	}

	scored := parseFragments(result.Data)
	fragments := make([]types.Fragment, 0, len(scored))
	for _, sf := range scored {
		fragments = append(fragments, sf.Fragment)
	}
	return fragments, nil
}

// UpdateDocumentSnapshot patches the denormalized document fields on every
// fragment of the document. Content, position and vectors are untouched.
func (s *FragmentStore) UpdateDocumentSnapshot(ctx context.Context, documentID string, meta types.FragmentMetadata) error {
	fragments, err := s.FragmentsByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	participants := meta.Participants
	if participants == nil {
		participants = []string{}
	}
	for _, f := range fragments {
		err := s.client.Data().Updater().
			WithMerge().
			WithClassName(FRAGMENT_CLASS).
			WithID(f.ID).
			WithProperties(map[string]interface{}{
				"docTitle":      meta.DocTitle,
				"docType":       meta.DocType,
				"participants":  participants,
				"referenceDate": meta.ReferenceDate,
			}).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to patch fragment %s: %w", f.ID, err)
		}
	}
	return nil
}

// SearchNearVector returns the fragments nearest to the query vector,
// optionally restricted to one case, closest first. maxDistance caps the
// cosine distance server-side (similarity floor = 1 - maxDistance).
func (s *FragmentStore) SearchNearVector(ctx context.Context, vector []float32, caseID string, limit int, maxDistance float32) ([]types.ScoredFragment, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector).
		WithDistance(maxDistance)

	getBuilder := s.client.GraphQL().Get().
		WithClassName(FRAGMENT_CLASS).
		WithFields(fragmentFields...).
		WithNearVector(nearVector)
	if limit > 0 {
		getBuilder = getBuilder.WithLimit(limit)
	}
	if caseID != "" {
		getBuilder = getBuilder.WithWhere(filters.Where().
			WithPath([]string{"caseId"}).
			WithOperator(filters.Equal).
			WithValueText(caseID))
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("vector search failed: %v", result.Errors[0].Message)
	}

	return parseFragments(result.Data), nil
}

func fragmentProperties(f types.Fragment) map[string]interface{} {
	participants := f.Metadata.Participants
	if participants == nil {
		participants = []string{}
	}
	return map[string]interface{}{
		"content":       f.Content,
		"documentId":    f.DocumentID,
		"caseId":        f.CaseID,
		"position":      f.Position,
		"tokenCount":    f.TokenCount,
		"docTitle":      f.Metadata.DocTitle,
		"docType":       f.Metadata.DocType,
		"participants":  participants,
		"referenceDate": f.Metadata.ReferenceDate,
	}
}

func parseFragments(data map[string]models.JSONObject) []types.ScoredFragment {
	var out []types.ScoredFragment
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return out
	}
	items, ok := get[FRAGMENT_CLASS].([]interface{})
	if !ok {
		return out
	}
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		sf := types.ScoredFragment{
			Fragment: types.Fragment{
				Content:    asString(obj["content"]),
				DocumentID: asString(obj["documentId"]),
				CaseID:     asString(obj["caseId"]),
				Position:   int(asFloat(obj["position"])),
				TokenCount: int(asFloat(obj["tokenCount"])),
				Metadata: types.FragmentMetadata{
					DocTitle:      asString(obj["docTitle"]),
					DocType:       asString(obj["docType"]),
					Participants:  asStringArray(obj["participants"]),
					ReferenceDate: asString(obj["referenceDate"]),
				},
			},
		}
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			sf.ID = asString(additional["id"])
			sf.Similarity = 1 - asFloat(additional["distance"])
		}
		out = append(out, sf)
	}
	return out
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asFloat(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}

func asStringArray(v interface{}) []string {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}
