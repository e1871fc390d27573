package corpus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/little-search-engine/pkg/errors"
)

// FileSource reads the corpus from plain text files. The document list and
// the noise-word list hold whitespace-separated entries; document
// identifiers are file names resolved against BaseDir.
type FileSource struct {
	docsFile       string
	noiseWordsFile string
	baseDir        string
}

func NewFileSource(cfg config.CorpusConfig) *FileSource {
	return &FileSource{
		docsFile:       cfg.DocsFile,
		noiseWordsFile: cfg.NoiseWordsFile,
		baseDir:        cfg.BaseDir,
	}
}

func (s *FileSource) DocumentIDs(ctx context.Context) ([]string, error) {
	return readWords(ctx, "document list", s.docsFile)
}

func (s *FileSource) NoiseWords(ctx context.Context) ([]string, error) {
	return readWords(ctx, "noise-word list", s.noiseWordsFile)
}

func (s *FileSource) Content(ctx context.Context, docID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.resolve(docID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperrors.NotFound("document", docID)
		}
		return "", fmt.Errorf("reading document %s: %w", docID, err)
	}
	return string(data), nil
}

func (s *FileSource) resolve(docID string) string {
	if s.baseDir == "" || filepath.IsAbs(docID) {
		return docID
	}
	return filepath.Join(s.baseDir, docID)
}

// readWords returns every whitespace-separated word of the file at path.
func readWords(ctx context.Context, kind, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NotFound(kind, path)
		}
		return nil, fmt.Errorf("opening %s %s: %w", kind, path, err)
	}
	defer f.Close()

	words := make([]string, 0, 64)
	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		words = append(words, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s %s: %w", kind, path, err)
	}
	return words, nil
}
