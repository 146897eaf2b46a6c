// Package seed fills a store with the default books and with books read
// from YAML seed files.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/htol/bookshelf/book"
	"github.com/htol/bookshelf/config"
	"github.com/htol/bookshelf/logger"
	"github.com/htol/bookshelf/repo"
	"github.com/htol/bookshelf/validator"
	"golang.org/x/net/html/charset"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Inserter is the part of a store the seeder writes to
type Inserter interface {
	Insert(ctx context.Context, f book.Fields) (string, error)
}

// Defaults are inserted on startup unless disabled
var Defaults = []book.Fields{
	{Title: "On the Road", Author: "Jack Kerouac", Read: true},
	{Title: "Harry Potter and the Philosopher's Stone", Author: "J. K. Rowling", Read: false},
	{Title: "Green Eggs and Ham", Author: "Dr. Seuss", Read: true},
}

// maxParallel bounds concurrently parsed seed files
const maxParallel = 4

type seedFile struct {
	Books []book.Fields `yaml:"books"`
}

// Run inserts the default books (if enabled) followed by the books found at
// cfg.Path. Stores implementing repo.BulkInserter get all books in one step.
// It returns the number of inserted books.
func Run(ctx context.Context, store Inserter, cfg config.SeedConfig) (int, error) {
	var entries []book.Fields
	if cfg.Defaults {
		entries = append(entries, Defaults...)
	}
	if cfg.Path != "" {
		loaded, err := Load(ctx, cfg.Path, cfg.Charset)
		if err != nil {
			return 0, err
		}
		entries = append(entries, loaded...)
	}

	if bulk, ok := store.(repo.BulkInserter); ok {
		if _, err := bulk.InsertMany(ctx, entries); err != nil {
			return 0, fmt.Errorf("bulk insert: %w", err)
		}
	} else {
		for i, f := range entries {
			if _, err := store.Insert(ctx, f); err != nil {
				return i, fmt.Errorf("insert %q: %w", f.Title, err)
			}
		}
	}
	logger.Info("Store seeded", "books", len(entries), "path", cfg.Path)
	return len(entries), nil
}

// Load reads books from path, which is either a YAML file or a directory
// scanned recursively for *.yaml and *.yml. Files are decoded from the
// named charset. Books come back in file path order, then file order;
// entries without a title are skipped.
func Load(ctx context.Context, path, charsetLabel string) ([]book.Fields, error) {
	files, err := collectFiles(path)
	if err != nil {
		return nil, err
	}
	if charsetLabel == "" {
		charsetLabel = "utf-8"
	}

	results := make([][]book.Fields, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			books, err := parseFile(file, charsetLabel)
			if err != nil {
				return err
			}
			results[i] = books
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []book.Fields
	for i, books := range results {
		for _, b := range books {
			if err := validator.ValidateNonEmpty(b.Title); err != nil {
				logger.Warn("Skipping seed entry", "file", files[i], "author", b.Author, "error", err)
				continue
			}
			out = append(out, b)
		}
	}
	return out, nil
}

func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat seed path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(p) {
		case ".yaml", ".yml":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk seed dir %s: %w", path, err)
	}
	slices.Sort(files)
	return files, nil
}

func parseFile(path, charsetLabel string) ([]book.Fields, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r, err := charset.NewReaderLabel(charsetLabel, f)
	if err != nil {
		return nil, fmt.Errorf("charset %s: %w", charsetLabel, err)
	}

	var sf seedFile
	if err := yaml.NewDecoder(r).Decode(&sf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return sf.Books, nil
}
