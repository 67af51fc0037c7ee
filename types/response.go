package types

type DataResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ChatMessageResponse struct {
	UserMessage      *Message `json:"user_message"`
	AssistantMessage *Message `json:"assistant_message"`
	Sources          []Source `json:"sources"`
}

type DocumentListResponse struct {
	Documents []*Document `json:"documents"`
	Total     int64       `json:"total"`
}

type SearchFragmentsResponse struct {
	Fragments []ScoredFragment `json:"fragments"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
