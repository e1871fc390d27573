package corpus

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	docs := writeFile(t, dir, "docs.txt", "a.txt\n  b.txt\tc.txt\n\n")
	noise := writeFile(t, dir, "noise.txt", "the a\nan\n")
	writeFile(t, dir, "a.txt", "Apple pie.")
	writeFile(t, dir, "b.txt", "")

	src := NewFileSource(config.CorpusConfig{DocsFile: docs, NoiseWordsFile: noise, BaseDir: dir})
	ctx := context.Background()

	ids, err := src.DocumentIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, ids)

	words, err := src.NoiseWords(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"the", "a", "an"}, words)

	text, err := src.Content(ctx, "a.txt")
	require.NoError(t, err)
	require.Equal(t, "Apple pie.", text)

	text, err = src.Content(ctx, "b.txt")
	require.NoError(t, err)
	require.Empty(t, text)

	_, err = src.Content(ctx, "c.txt")
	require.True(t, apperrors.IsNotFound(err))
}

func TestFileSourceMissingLists(t *testing.T) {
	dir := t.TempDir()
	src := NewFileSource(config.CorpusConfig{
		DocsFile:       filepath.Join(dir, "missing-docs.txt"),
		NoiseWordsFile: filepath.Join(dir, "missing-noise.txt"),
	})
	_, err := src.DocumentIDs(context.Background())
	require.True(t, apperrors.IsNotFound(err))
	_, err = src.NoiseWords(context.Background())
	require.True(t, apperrors.IsNotFound(err))
}

func TestFileSourceEmptyDocList(t *testing.T) {
	dir := t.TempDir()
	src := NewFileSource(config.CorpusConfig{DocsFile: writeFile(t, dir, "docs.txt", "")})
	ids, err := src.DocumentIDs(context.Background())
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestMemorySource(t *testing.T) {
	src := NewMemorySource([]string{"the"}, Document{ID: "d1", Text: "one"}, Document{ID: "d2", Text: "two"})
	ctx := context.Background()

	ids, err := src.DocumentIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"d1", "d2"}, ids)

	ids[0] = "mutated"
	again, _ := src.DocumentIDs(ctx)
	require.Equal(t, "d1", again[0])

	text, err := src.Content(ctx, "d2")
	require.NoError(t, err)
	require.Equal(t, "two", text)

	_, err = src.Content(ctx, "d3")
	require.True(t, apperrors.IsNotFound(err))

	missing := &MemorySource{}
	_, err = missing.DocumentIDs(ctx)
	require.True(t, apperrors.IsNotFound(err))
	_, err = missing.NoiseWords(ctx)
	require.True(t, apperrors.IsNotFound(err))
}

func TestOpen(t *testing.T) {
	src, err := Open(config.CorpusConfig{Source: config.SourceFile, DocsFile: "docs.txt"}, nil)
	require.NoError(t, err)
	require.IsType(t, &FileSource{}, src)

	_, err = Open(config.CorpusConfig{Source: config.SourcePostgres}, nil)
	require.ErrorContains(t, err, "requires a database connection")

	_, err = Open(config.CorpusConfig{Source: "s3"}, nil)
	require.ErrorContains(t, err, `unknown corpus source "s3"`)
}

type countingTx struct {
	calls int
	err   error
}

func (c *countingTx) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	c.calls++
	return c.err
}

func TestSeedReadsSourceBeforeTransaction(t *testing.T) {
	db := &countingTx{}
	src := NewMemorySource([]string{"the"}, Document{ID: "d1", Text: "one"})
	src.IDs = append(src.IDs, "ghost")

	_, err := Seed(context.Background(), db, src)
	require.ErrorContains(t, err, "reading document ghost")
	require.True(t, apperrors.IsNotFound(err))
	require.Zero(t, db.calls)
}

func TestSeedTransactionError(t *testing.T) {
	db := &countingTx{err: errors.New("connection reset")}
	src := NewMemorySource(nil, Document{ID: "d1", Text: "one"})

	n, err := Seed(context.Background(), db, src)
	require.ErrorContains(t, err, "connection reset")
	require.Zero(t, n)
	require.Equal(t, 1, db.calls)
}

type execCall struct {
	query string
	args  []any
}

type recordingExec struct {
	calls []execCall
}

func (r *recordingExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	r.calls = append(r.calls, execCall{query: query, args: args})
	return nil, nil
}

func TestSeedTablesKeepsDuplicateDocuments(t *testing.T) {
	src := NewMemorySource([]string{"the"},
		Document{ID: "a", Text: "apple"},
		Document{ID: "b", Text: "banana"},
	)
	src.IDs = []string{"a", "b", "a"}
	snap, err := load(context.Background(), src)
	require.NoError(t, err)

	ex := &recordingExec{}
	require.NoError(t, seedTables(context.Background(), ex, snap))

	var docs [][]any
	for _, c := range ex.calls {
		if strings.HasPrefix(c.query, "INSERT INTO documents") {
			require.NotContains(t, c.query, "ON CONFLICT")
			docs = append(docs, c.args)
		}
	}
	require.Equal(t, [][]any{
		{0, "a", "apple"},
		{1, "b", "banana"},
		{2, "a", "apple"},
	}, docs)
	require.Contains(t, ex.calls[0].query, "DROP TABLE")
}
