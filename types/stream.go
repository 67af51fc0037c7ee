package types

// Stream event types, emitted strictly in this order:
// status(searching) -> status(generating) -> token* -> sources -> done.
const (
	STREAM_EVENT_STATUS  = "status"
	STREAM_EVENT_TOKEN   = "token"
	STREAM_EVENT_SOURCES = "sources"
	STREAM_EVENT_DONE    = "done"
	STREAM_EVENT_ERROR   = "error"
)

const (
	STREAM_STATUS_SEARCHING  = "searching"
	STREAM_STATUS_GENERATING = "generating"
)

// StreamEvent is one unit of the streaming chat protocol. Exactly one of
// the payload fields is set, according to Type.
type StreamEvent struct {
	Type    string     `json:"type"`
	Status  string     `json:"status,omitempty"`
	Token   string     `json:"token,omitempty"`
	Sources []Source   `json:"sources,omitempty"`
	Result  *RAGResult `json:"result,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// RAGResult is the finalized outcome of one generation, identical for the
// blocking and streaming modes. Only this payload is ever persisted as an
// assistant message.
type RAGResult struct {
	Answer        string   `json:"answer"`
	FragmentsUsed []string `json:"fragments_used"`
	Sources       []Source `json:"sources"`
	TokensInput   int      `json:"tokens_input"`
	TokensOutput  int      `json:"tokens_output"`
	EstimatedCost float64  `json:"estimated_cost"`
}

// Generation is a provider's raw answer plus token accounting, already
// normalized to plain text at the provider boundary.
type Generation struct {
	Content      string
	TokensInput  int
	TokensOutput int
}

// StreamHandler receives partial answer text in arrival order.
type StreamHandler func(delta string)
