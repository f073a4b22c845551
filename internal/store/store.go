// Package store contains the persistence backends for normalized card
// records. Two real backends exist, a relational one on Postgres and a
// document one on S3-compatible object storage; the memory store backs tests.
package store

import (
	"context"

	"github.com/rvasanth/cardpipe/internal/model"
)

// Store is what the pipeline needs from a backend: one atomic write per
// record, and a delete so a failed archive can be compensated without
// leaving a duplicate for the next run.
type Store interface {
	Save(ctx context.Context, rec model.NormalizedRecord) error
	Delete(ctx context.Context, id string) error
	Close()
}
