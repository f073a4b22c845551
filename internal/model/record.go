package model

// VerificationState is the review state attached to every freshly persisted
// record. The pipeline always writes Pending; a record is never created in a
// verified state.
type VerificationState string

const (
	VerificationPending VerificationState = "pending"
)

// ExtractionRecord is the typed field set pulled out of a validated OCR
// response. DateOfIssue may be the empty string until normalization replaces
// it with the null-date sentinel.
type ExtractionRecord struct {
	Age         int    `json:"age"`
	DateOfBirth string `json:"date_of_birth"`
	DateOfIssue string `json:"date_of_issue"`
	FathersName string `json:"fathers_name"`
	IDNumber    string `json:"id_number"`
	IsScanned   bool   `json:"is_scanned"`
	Minor       bool   `json:"minor"`
	NameOnCard  string `json:"name_on_card"`
	PANType     string `json:"pan_type"`
}

// NormalizedRecord is the exact shape handed to the store: booleans coerced
// to 0/1 flags, the null-date sentinel in place of an empty issue date, a
// generated identifier and the initial verification state. Each backend maps
// Verification onto its own column or attribute.
type NormalizedRecord struct {
	ID           string            `json:"id"`
	Age          int               `json:"age"`
	DateOfBirth  string            `json:"date_of_birth"`
	DateOfIssue  string            `json:"date_of_issue"`
	FathersName  string            `json:"fathers_name"`
	IDNumber     string            `json:"id_number"`
	IsScanned    int               `json:"is_scanned"`
	Minor        int               `json:"minor"`
	NameOnCard   string            `json:"name_on_card"`
	PANType      string            `json:"pan_type"`
	Verification VerificationState `json:"verification"`
	SourceFile   string            `json:"source_file"`
}
