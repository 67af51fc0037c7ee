package types

const (
	CASE_STATUS_ACTIVE   = "active"
	CASE_STATUS_ARCHIVED = "archived"
)

// Case groups the documents, fragments and conversations of one legal
// matter. Notes is free-text background fed into prompts as case context.
type Case struct {
	ID          string `bson:"_id" json:"id"`
	OwnerID     string `bson:"owner_id" json:"owner_id"`
	Number      string `bson:"number,omitempty" json:"number,omitempty"`
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Notes       string `bson:"notes,omitempty" json:"notes,omitempty"`
	Status      string `bson:"status" json:"status"`
	CreatedAt   int64  `bson:"created_at" json:"created_at"`
	UpdatedAt   int64  `bson:"updated_at" json:"updated_at"`
}
