package types

// UploadRequest is the metadata form accompanying an uploaded file.
type UploadRequest struct {
	CaseID        string   `json:"case_id"`
	Type          string   `json:"type"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Participants  []string `json:"participants,omitempty"`
	ReferenceDate string   `json:"reference_date,omitempty"`
}

// UpdateDocumentRequest patches a document's descriptive fields. Nil
// pointers mean "leave unchanged".
type UpdateDocumentRequest struct {
	Type          *string   `json:"type,omitempty"`
	Title         *string   `json:"title,omitempty"`
	Description   *string   `json:"description,omitempty"`
	Participants  *[]string `json:"participants,omitempty"`
	ReferenceDate *string   `json:"reference_date,omitempty"`
}

// CaseRequest creates or updates a case; on update empty fields other
// than Title are written as-is.
type CaseRequest struct {
	Number      string `json:"number,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Status      string `json:"status,omitempty"`
}

type CreateConversationRequest struct {
	CaseID string `json:"case_id"`
	Title  string `json:"title,omitempty"`
}

type ChatMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

type SearchFragmentsRequest struct {
	Query  string  `json:"query"`
	CaseID string  `json:"case_id,omitempty"`
	TopK   int     `json:"top_k,omitempty"`
	Floor  float64 `json:"floor,omitempty"`
}

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
