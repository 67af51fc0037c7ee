package types

const (
	MESSAGE_ROLE_USER      = "user"
	MESSAGE_ROLE_ASSISTANT = "assistant"
)

const (
	CONVERSATION_CHANNEL_WEB = "web"
	CONVERSATION_CHANNEL_BOT = "bot"
)

// Conversation is a chat thread scoped to exactly one case and one user.
// The title may be set retroactively from the first user message.
type Conversation struct {
	ID        string `bson:"_id" json:"id"`
	CaseID    string `bson:"case_id" json:"case_id"`
	UserID    string `bson:"user_id" json:"user_id"`
	Channel   string `bson:"channel" json:"channel"`
	Title     string `bson:"title,omitempty" json:"title,omitempty"`
	CreatedAt int64  `bson:"created_at" json:"created_at"`
	UpdatedAt int64  `bson:"updated_at" json:"updated_at"`
}

// Source attributes part of an answer to one retrieved fragment's document.
type Source struct {
	DocTitle   string  `bson:"doc_title" json:"doc_title"`
	DocType    string  `bson:"doc_type" json:"doc_type"`
	DocumentID string  `bson:"document_id" json:"document_id"`
	Similarity float64 `bson:"similarity" json:"similarity"`
}

// Message is an ordered entry in a conversation. For assistant messages
// the generation accounting fields (fragments used, token counts, cost,
// sources) are filled from the finalized generation result. CreatedAt is
// in nanoseconds: the two messages of one turn land within the same
// second, and the sort key must still keep the user message first.
type Message struct {
	ID             string   `bson:"_id" json:"id"`
	ConversationID string   `bson:"conversation_id" json:"conversation_id"`
	Role           string   `bson:"role" json:"role"`
	Content        string   `bson:"content" json:"content"`
	FragmentsUsed  []string `bson:"fragments_used,omitempty" json:"fragments_used,omitempty"`
	TokensInput    int      `bson:"tokens_input,omitempty" json:"tokens_input,omitempty"`
	TokensOutput   int      `bson:"tokens_output,omitempty" json:"tokens_output,omitempty"`
	EstimatedCost  float64  `bson:"estimated_cost,omitempty" json:"estimated_cost,omitempty"`
	Sources        []Source `bson:"sources,omitempty" json:"sources,omitempty"`
	CreatedAt      int64    `bson:"created_at" json:"created_at"`
}

// PromptMessage is one turn handed to a generation provider.
type PromptMessage struct {
	Role    string
	Content string
}
