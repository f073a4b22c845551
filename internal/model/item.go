// Package model contains the struct definitions shared across the pipeline
// packages.
package model

import "fmt"

// Stage names one step of the per-item pipeline.
type Stage string

const (
	StageDiscover  Stage = "discover"
	StageConvert   Stage = "convert"
	StageExtract   Stage = "extract"
	StageValidate  Stage = "validate"
	StageNormalize Stage = "normalize"
	StagePersist   Stage = "persist"
	StageArchive   Stage = "archive"
)

// ItemStatus describes where an item is in its lifecycle. Failed and Archived
// are terminal within one run.
type ItemStatus string

const (
	StatusDiscovered ItemStatus = "discovered"
	StatusConverted  ItemStatus = "converted"
	StatusExtracted  ItemStatus = "extracted"
	StatusValidated  ItemStatus = "validated"
	StatusNormalized ItemStatus = "normalized"
	StatusPersisted  ItemStatus = "persisted"
	StatusArchived   ItemStatus = "archived"
	StatusFailed     ItemStatus = "failed"
)

// ImageItem is one unit of work: a single card image moving through the
// pipeline. Raw and Encoded are transient; Encoded stays empty when
// conversion failed. Each stage owns the item while it runs, nothing is
// shared across items.
type ImageItem struct {
	Path    string
	Raw     []byte
	Encoded string
	Status  ItemStatus
	Failure *StageError
}

// Fail marks the item failed at the given stage. The item never advances
// past a recorded failure.
func (it *ImageItem) Fail(stage Stage, err error) {
	it.Status = StatusFailed
	it.Failure = &StageError{Stage: stage, Err: err}
}

// StageError tags an error with the pipeline stage that produced it so the
// orchestrator can log and skip without inspecting error strings.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
