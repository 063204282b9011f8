// Package seed bulk-loads vocabulary into the store from word list files.
//
// Supported formats, chosen by file extension:
//
//	.csv  word,translation[,word_type]   header row and # comments allowed
//	.tsv  same columns, tab separated
//	.json the document produced by store.Export
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kittclouds/tenwords/internal/store"
)

// ErrUnsupportedFormat is returned for unknown file extensions.
var ErrUnsupportedFormat = errors.New("seed: unsupported file format")

// Loader is the part of the store that accepts new items.
type Loader interface {
	InsertItems(ctx context.Context, items []*store.Item) (int, error)
	Import(ctx context.Context, data []byte) (int, error)
}

// ReadDelimited parses word rows separated by comma.
// Rows need a word and a translation; the word type is optional.
func ReadDelimited(r io.Reader, comma rune) ([]*store.Item, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var items []*store.Item
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "word") {
			continue
		}
		if len(rec) < 2 || len(rec) > 3 {
			row, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("row %d: want word,translation[,word_type], got %d fields", row, len(rec))
		}

		it := &store.Item{
			Word:        strings.TrimSpace(rec[0]),
			Translation: strings.TrimSpace(rec[1]),
		}
		if len(rec) == 3 {
			it.WordType = strings.TrimSpace(rec[2])
		}
		if it.Word == "" || it.Translation == "" {
			row, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("row %d: word and translation are required", row)
		}
		items = append(items, it)
	}
	return items, nil
}

// LoadFile inserts every word in path. Words already present are skipped.
// Returns the number of new words.
func LoadFile(ctx context.Context, l Loader, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := io.ReadAll(f)
		if err != nil {
			return 0, err
		}
		return l.Import(ctx, data)
	case ".csv":
		return load(ctx, l, f, ',')
	case ".tsv":
		return load(ctx, l, f, '\t')
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func load(ctx context.Context, l Loader, r io.Reader, comma rune) (int, error) {
	items, err := ReadDelimited(r, comma)
	if err != nil {
		return 0, err
	}
	return l.InsertItems(ctx, items)
}
