// Package pipeline drives one sequential pass over the watch directory:
// discover, convert, extract, validate, normalize, persist, archive. Failure
// at any stage is confined to the item that hit it; sibling items are never
// blocked or corrupted by it.
package pipeline

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/rvasanth/cardpipe/internal/archive"
	"github.com/rvasanth/cardpipe/internal/config"
	"github.com/rvasanth/cardpipe/internal/convert"
	"github.com/rvasanth/cardpipe/internal/discovery"
	"github.com/rvasanth/cardpipe/internal/model"
	"github.com/rvasanth/cardpipe/internal/normalize"
	"github.com/rvasanth/cardpipe/internal/ocr"
	"github.com/rvasanth/cardpipe/internal/store"
	"github.com/rvasanth/cardpipe/internal/validate"
)

// Pipeline holds the collaborators shared read-only across all items in a
// run. No item mutates any of them.
type Pipeline struct {
	cfg       *config.Config
	extractor ocr.Extractor
	store     store.Store
	log       zerolog.Logger
}

// Summary aggregates terminal item states for the run report. The process
// exit status never depends on these counts.
type Summary struct {
	Discovered    int
	Archived      int
	Failed        int
	FailedByStage map[model.Stage]int
}

// New wires a Pipeline.
func New(cfg *config.Config, extractor ocr.Extractor, st store.Store, log zerolog.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, extractor: extractor, store: st, log: log}
}

// Run discovers candidate images once and pushes each through the full stage
// sequence before the next begins. An empty directory is a successful no-op.
// The returned error is non-nil only for run-level preconditions (the source
// directory becoming unreadable), never for per-item failures.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	summary := Summary{FailedByStage: make(map[model.Stage]int)}

	paths, err := discovery.List(p.cfg.SourceDir, p.cfg.ImageExt)
	if err != nil {
		return summary, err
	}
	if len(paths) == 0 {
		p.log.Info().Str("dir", p.cfg.SourceDir).Msg("no new images")
		return summary, nil
	}
	summary.Discovered = len(paths)

	for _, path := range paths {
		item := p.processItem(ctx, path)
		switch item.Status {
		case model.StatusArchived:
			summary.Archived++
		case model.StatusFailed:
			summary.Failed++
			summary.FailedByStage[item.Failure.Stage]++
		}
	}

	p.log.Info().
		Int("discovered", summary.Discovered).
		Int("archived", summary.Archived).
		Int("failed", summary.Failed).
		Msg("run complete")
	return summary, nil
}

// processItem advances one item through the state machine until it is
// archived or fails. The item is owned by exactly one stage at a time.
func (p *Pipeline) processItem(ctx context.Context, path string) *model.ImageItem {
	item := &model.ImageItem{Path: path, Status: model.StatusDiscovered}
	log := p.log.With().Str("file", filepath.Base(path)).Logger()
	log.Debug().Str("stage", string(model.StageDiscover)).Msg("processing image")

	raw, err := convert.ReadFile(path)
	if err != nil {
		return p.fail(log, item, model.StageConvert, err)
	}
	item.Raw = raw
	encoded, err := convert.Encode(raw)
	if err != nil {
		// Encoded stays empty; the item never reaches the extractor.
		return p.fail(log, item, model.StageConvert, err)
	}
	item.Encoded = encoded
	p.advance(log, item, model.StatusConverted, model.StageConvert)

	doc, err := p.extractor.Extract(ctx, item.Encoded)
	if err != nil {
		return p.fail(log, item, model.StageExtract, err)
	}
	p.advance(log, item, model.StatusExtracted, model.StageExtract)

	rec, err := validate.Validate(doc)
	if err != nil {
		return p.fail(log, item, model.StageValidate, err)
	}
	p.advance(log, item, model.StatusValidated, model.StageValidate)

	norm, err := normalize.Normalize(rec, filepath.Base(path))
	if err != nil {
		return p.fail(log, item, model.StageNormalize, err)
	}
	p.advance(log, item, model.StatusNormalized, model.StageNormalize)

	if err := p.store.Save(ctx, norm); err != nil {
		return p.fail(log, item, model.StagePersist, err)
	}
	p.advance(log, item, model.StatusPersisted, model.StagePersist)

	if _, err := archive.Move(path, p.cfg.ArchiveDir); err != nil {
		// Compensating delete: without it the file would be rediscovered on
		// the next run and persisted again under a fresh identifier.
		if delErr := p.store.Delete(ctx, norm.ID); delErr != nil {
			log.Error().Err(delErr).Str("id", norm.ID).Msg("compensating delete failed, record may duplicate on next run")
		}
		return p.fail(log, item, model.StageArchive, err)
	}
	item.Status = model.StatusArchived
	log.Info().Str("id", norm.ID).Msg("image archived")
	return item
}

func (p *Pipeline) advance(log zerolog.Logger, item *model.ImageItem, status model.ItemStatus, stage model.Stage) {
	item.Status = status
	log.Debug().Str("stage", string(stage)).Msg("stage complete")
}

func (p *Pipeline) fail(log zerolog.Logger, item *model.ImageItem, stage model.Stage, err error) *model.ImageItem {
	item.Fail(stage, err)
	log.Warn().Err(err).Str("stage", string(stage)).Msg("image skipped")
	return item
}
