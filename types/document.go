package types

const (
	DOCUMENT_STATUS_UPLOADED   = "uploaded"
	DOCUMENT_STATUS_PROCESSING = "processing"
	DOCUMENT_STATUS_PROCESSED  = "processed"
	DOCUMENT_STATUS_ERROR      = "error"
)

const (
	DOCUMENT_TYPE_CONTRACT        = "contract"
	DOCUMENT_TYPE_COURT_FILING    = "court_filing"
	DOCUMENT_TYPE_EMAIL           = "email"
	DOCUMENT_TYPE_WHATSAPP_EXPORT = "whatsapp_export"
	DOCUMENT_TYPE_WHATSAPP_AUDIO  = "whatsapp_audio"
	DOCUMENT_TYPE_AUDIO           = "audio"
	DOCUMENT_TYPE_BANK_STATEMENT  = "bank_statement"
	DOCUMENT_TYPE_RECEIPT         = "receipt"
	DOCUMENT_TYPE_PHOTO           = "photo"
	DOCUMENT_TYPE_OTHER           = "other"
)

// Document is one uploaded artifact belonging to a case. Status moves
// uploaded -> processing -> processed|error and never leaves a terminal
// state; re-ingestion means uploading a new document.
type Document struct {
	ID            string   `bson:"_id" json:"id"`
	CaseID        string   `bson:"case_id" json:"case_id"`
	UserID        string   `bson:"user_id" json:"user_id"`
	Type          string   `bson:"type" json:"type"`
	Title         string   `bson:"title" json:"title"`
	Description   string   `bson:"description,omitempty" json:"description,omitempty"`
	Participants  []string `bson:"participants,omitempty" json:"participants,omitempty"`
	ReferenceDate string   `bson:"reference_date,omitempty" json:"reference_date,omitempty"`
	StoragePath   string   `bson:"storage_path" json:"-"`
	FileName      string   `bson:"file_name" json:"file_name"`
	MimeType      string   `bson:"mime_type,omitempty" json:"mime_type,omitempty"`
	FileSize      int64    `bson:"file_size,omitempty" json:"file_size,omitempty"`
	Status        string   `bson:"status" json:"status"`
	ExtractedText string   `bson:"extracted_text,omitempty" json:"-"`
	ErrorMessage  string   `bson:"error_message,omitempty" json:"error_message,omitempty"`
	CreatedAt     int64    `bson:"created_at" json:"created_at"`
	UpdatedAt     int64    `bson:"updated_at" json:"updated_at"`
}

// FinancialDocumentTypes are the categories that trigger the financial
// transaction extractor after ingestion completes.
var FinancialDocumentTypes = map[string]bool{
	DOCUMENT_TYPE_BANK_STATEMENT: true,
	DOCUMENT_TYPE_RECEIPT:        true,
}

var documentTypes = map[string]bool{
	DOCUMENT_TYPE_CONTRACT:        true,
	DOCUMENT_TYPE_COURT_FILING:    true,
	DOCUMENT_TYPE_EMAIL:           true,
	DOCUMENT_TYPE_WHATSAPP_EXPORT: true,
	DOCUMENT_TYPE_WHATSAPP_AUDIO:  true,
	DOCUMENT_TYPE_AUDIO:           true,
	DOCUMENT_TYPE_BANK_STATEMENT:  true,
	DOCUMENT_TYPE_RECEIPT:         true,
	DOCUMENT_TYPE_PHOTO:           true,
	DOCUMENT_TYPE_OTHER:           true,
}

func IsValidDocumentType(t string) bool {
	return documentTypes[t]
}
