package pipeline

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvasanth/cardpipe/internal/config"
	"github.com/rvasanth/cardpipe/internal/model"
	"github.com/rvasanth/cardpipe/internal/store"
)

type stubExtractor struct {
	fn func(ctx context.Context, payload string) (map[string]interface{}, error)
}

func (s stubExtractor) Extract(ctx context.Context, payload string) (map[string]interface{}, error) {
	return s.fn(ctx, payload)
}

type failingStore struct {
	*store.MemoryStore
	saveErr error
}

func (f *failingStore) Save(ctx context.Context, rec model.NormalizedRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryStore.Save(ctx, rec)
}

// validDoc builds the response shape the OCR service returns for a clean
// un-scanned adult card with no issue date.
func validDoc(t *testing.T) map[string]interface{} {
	t.Helper()
	const body = `{
		"action": "extract", "status": "completed", "type": "pan",
		"task_id": "task-1", "request_id": "req-1",
		"created_at": 1712000000, "completed_at": 1712000004,
		"result": { "extraction_output": {
			"age": 34, "date_of_birth": "1990-01-15", "date_of_issue": "",
			"fathers_name": "R Sharma", "id_number": "ABCDE1234F",
			"is_scanned": false, "minor": false,
			"name_on_card": "A Sharma", "pan_type": "Individual"
		} }
	}`
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	return doc
}

func testConfig(srcDir, dstDir string) *config.Config {
	return &config.Config{SourceDir: srcDir, ArchiveDir: dstDir, ImageExt: ".jpeg"}
}

func writeImage(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRunEndToEnd(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeImage(t, src, "card1.jpeg", "jpeg-bytes")
	mem := store.NewMemoryStore()
	extractor := stubExtractor{fn: func(ctx context.Context, payload string) (map[string]interface{}, error) {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		require.NoError(t, err)
		assert.Equal(t, "jpeg-bytes", string(decoded))
		return validDoc(t), nil
	}}

	summary, err := New(testConfig(src, dst), extractor, mem, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Discovered)
	assert.Equal(t, 1, summary.Archived)
	assert.Equal(t, 0, summary.Failed)

	records := mem.List()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, 0, rec.IsScanned)
	assert.Equal(t, 0, rec.Minor)
	assert.Equal(t, "0000-00-00", rec.DateOfIssue)
	assert.Equal(t, model.VerificationPending, rec.Verification)
	assert.Equal(t, "card1.jpeg", rec.SourceFile)

	_, err = os.Stat(filepath.Join(dst, "card1.jpeg"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(src, "card1.jpeg"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunEmptyDirectoryIsNoOp(t *testing.T) {
	mem := store.NewMemoryStore()
	extractor := stubExtractor{fn: func(context.Context, string) (map[string]interface{}, error) {
		t.Fatal("extractor must not be called for an empty directory")
		return nil, nil
	}}

	summary, err := New(testConfig(t.TempDir(), t.TempDir()), extractor, mem, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{FailedByStage: map[model.Stage]int{}}, summary)
	assert.Empty(t, mem.List())
}

func TestRunIsolatesFailuresToTheirItem(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeImage(t, src, "a.jpeg", "good-a")
	writeImage(t, src, "b.jpeg", "bad")
	writeImage(t, src, "c.jpeg", "good-c")
	mem := store.NewMemoryStore()
	extractor := stubExtractor{fn: func(_ context.Context, payload string) (map[string]interface{}, error) {
		decoded, _ := base64.StdEncoding.DecodeString(payload)
		if string(decoded) == "bad" {
			return nil, fmt.Errorf("ocr request: connection timed out")
		}
		return validDoc(t), nil
	}}

	summary, err := New(testConfig(src, dst), extractor, mem, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Discovered)
	assert.Equal(t, 2, summary.Archived)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.FailedByStage[model.StageExtract])

	assert.Len(t, mem.List(), 2)
	// The failed item stays in the source directory, the rest moved.
	_, err = os.Stat(filepath.Join(src, "b.jpeg"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dst, "a.jpeg"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dst, "c.jpeg"))
	assert.NoError(t, err)
}

func TestRunValidationFailureNeverPersists(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeImage(t, src, "card.jpeg", "jpeg-bytes")
	mem := store.NewMemoryStore()
	extractor := stubExtractor{fn: func(context.Context, string) (map[string]interface{}, error) {
		doc := validDoc(t)
		out := doc["result"].(map[string]interface{})["extraction_output"].(map[string]interface{})
		delete(out, "id_number")
		return doc, nil
	}}

	summary, err := New(testConfig(src, dst), extractor, mem, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FailedByStage[model.StageValidate])
	assert.Empty(t, mem.List())
	_, err = os.Stat(filepath.Join(src, "card.jpeg"))
	assert.NoError(t, err)
}

func TestRunConvertFailureSkipsExtractor(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeImage(t, src, "empty.jpeg", "")
	mem := store.NewMemoryStore()
	extractor := stubExtractor{fn: func(context.Context, string) (map[string]interface{}, error) {
		t.Fatal("extractor must not be called when conversion failed")
		return nil, nil
	}}

	summary, err := New(testConfig(src, dst), extractor, mem, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FailedByStage[model.StageConvert])
	assert.Empty(t, mem.List())
}

func TestRunPersistFailureKeepsFile(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeImage(t, src, "card.jpeg", "jpeg-bytes")
	st := &failingStore{MemoryStore: store.NewMemoryStore(), saveErr: fmt.Errorf("table not active")}
	extractor := stubExtractor{fn: func(context.Context, string) (map[string]interface{}, error) {
		return validDoc(t), nil
	}}

	summary, err := New(testConfig(src, dst), extractor, st, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FailedByStage[model.StagePersist])
	assert.Empty(t, st.List())
	_, err = os.Stat(filepath.Join(src, "card.jpeg"))
	assert.NoError(t, err)
}

func TestRunArchiveFailureDeletesPersistedRecord(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "archive")
	require.NoError(t, os.Mkdir(dst, 0o755))
	writeImage(t, src, "card.jpeg", "jpeg-bytes")
	mem := store.NewMemoryStore()
	extractor := stubExtractor{fn: func(context.Context, string) (map[string]interface{}, error) {
		return validDoc(t), nil
	}}
	// Removing the archive directory after preflight makes the move fail.
	require.NoError(t, os.Remove(dst))

	summary, err := New(testConfig(src, dst), extractor, mem, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FailedByStage[model.StageArchive])

	// The compensating delete keeps the store free of a record whose file is
	// still in the watch directory.
	assert.Empty(t, mem.List())
	_, err = os.Stat(filepath.Join(src, "card.jpeg"))
	assert.NoError(t, err)
}
