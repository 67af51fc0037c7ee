package types

// Chunk is a token-bounded slice of extracted text before embedding.
type Chunk struct {
	Content    string
	TokenCount int
}

// FragmentMetadata is the denormalized snapshot of the parent document's
// descriptive fields, captured at embedding time. It is patched in place
// when the document's fields change but is otherwise immutable.
type FragmentMetadata struct {
	DocTitle      string   `json:"doc_title"`
	DocType       string   `json:"doc_type"`
	Participants  []string `json:"participants,omitempty"`
	ReferenceDate string   `json:"reference_date,omitempty"`
}

// Fragment is one embedded slice of a document. It lives in the vector
// store together with its embedding; Position is 0-based and strictly
// increasing within a document.
type Fragment struct {
	ID         string           `json:"id"`
	DocumentID string           `json:"document_id"`
	CaseID     string           `json:"case_id"`
	Content    string           `json:"content"`
	Position   int              `json:"position"`
	TokenCount int              `json:"token_count"`
	Metadata   FragmentMetadata `json:"metadata"`
}

// ScoredFragment is a search hit. Similarity is 1 - cosine distance,
// so 1 means identical direction.
type ScoredFragment struct {
	Fragment
	Similarity float64 `json:"similarity"`
}
