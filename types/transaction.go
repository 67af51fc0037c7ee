package types

// TransactionCategories is the fixed category set the financial extractor
// may assign; anything else is normalized to "other".
var TransactionCategories = []string{
	"education",
	"health",
	"housing",
	"food",
	"transport",
	"leisure",
	"clothing",
	"services",
	"taxes",
	"other",
}

// Transaction is one financial movement extracted by the LLM from a
// financial document's fragments. Confidence is the model's own 0..1
// estimate; Evidence keeps the fragment excerpt the extraction came from.
type Transaction struct {
	ID          string   `bson:"_id" json:"id"`
	CaseID      string   `bson:"case_id" json:"case_id"`
	Description string   `bson:"description" json:"description"`
	Amount      float64  `bson:"amount,omitempty" json:"amount,omitempty"`
	Date        string   `bson:"date,omitempty" json:"date,omitempty"`
	Payer       string   `bson:"payer,omitempty" json:"payer,omitempty"`
	Beneficiary string   `bson:"beneficiary,omitempty" json:"beneficiary,omitempty"`
	Category    string   `bson:"category,omitempty" json:"category,omitempty"`
	Confidence  float64  `bson:"confidence,omitempty" json:"confidence,omitempty"`
	FragmentIDs []string `bson:"fragment_ids,omitempty" json:"fragment_ids,omitempty"`
	DocumentIDs []string `bson:"document_ids,omitempty" json:"document_ids,omitempty"`
	Evidence    string   `bson:"evidence,omitempty" json:"evidence,omitempty"`
	CreatedAt   int64    `bson:"created_at" json:"created_at"`
}
