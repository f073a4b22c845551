// Package normalize coerces a validated extraction record into the exact
// shape the store writes.
package normalize

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/rvasanth/cardpipe/internal/model"
)

// NullDate is stored when the card carries no issue date. Kept as the
// literal string the downstream consumers already expect.
const NullDate = "0000-00-00"

// IDLength is the size of the generated record identifier. gonanoid's
// default alphabet (A-Za-z0-9_-) at 12 characters keeps collision odds
// negligible for this volume.
const IDLength = 12

// Normalize maps a validated extraction record to the persisted shape:
// boolean fields become 0/1 flags, an empty issue date becomes NullDate, a
// fresh identifier is attached and verification starts pending. It never
// rejects a record that passed validation.
func Normalize(rec model.ExtractionRecord, sourceFile string) (model.NormalizedRecord, error) {
	id, err := gonanoid.New(IDLength)
	if err != nil {
		return model.NormalizedRecord{}, fmt.Errorf("generate record id: %w", err)
	}

	issued := rec.DateOfIssue
	if issued == "" {
		issued = NullDate
	}

	return model.NormalizedRecord{
		ID:           id,
		Age:          rec.Age,
		DateOfBirth:  rec.DateOfBirth,
		DateOfIssue:  issued,
		FathersName:  rec.FathersName,
		IDNumber:     rec.IDNumber,
		IsScanned:    flag(rec.IsScanned),
		Minor:        flag(rec.Minor),
		NameOnCard:   rec.NameOnCard,
		PANType:      rec.PANType,
		Verification: model.VerificationPending,
		SourceFile:   sourceFile,
	}, nil
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
