package emit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	rberrors "patchrebase.dev/patchrebase/internal/errors"
	"patchrebase.dev/patchrebase/internal/git"
	"patchrebase.dev/patchrebase/internal/patch"
)

// SeriesFile lists the emitted documents in queue order
const SeriesFile = "series"

// Source provides the diffs documents are rendered from
type Source interface {
	Diff(ctx context.Context, from, to string, opts git.DiffOptions) (string, error)
	DiffOf(ctx context.Context, commit string, opts git.DiffOptions) (string, error)
}

// Item is one processed patch handed to the emitter
type Item struct {
	Patch     patch.Patch
	Outcome   patch.Outcome
	OldCommit string
	// Pre and Post are the new lineage tips around the patch's commit
	Pre  string
	Post string
}

// Document is an emitted patch file
type Document struct {
	Patch      patch.Patch
	Outcome    patch.Outcome
	Path       string
	StripLevel int
	Content    string
	// Delta is set for modified patches
	Delta *Delta
}

// Emitter writes patch documents for a finished session
type Emitter struct {
	source    Source
	outputDir string
	author    git.Identity
	clock     clock.Clock
}

// New creates an Emitter. A nil clock means the wall clock.
func New(source Source, outputDir string, author git.Identity, clk clock.Clock) *Emitter {
	if clk == nil {
		clk = clock.New()
	}
	return &Emitter{
		source:    source,
		outputDir: outputDir,
		author:    author,
		clock:     clk,
	}
}

// Emit writes one document per item whose outcome is emitted, in the order
// given, and then the series file. Documents of deleted patches left over
// from an earlier run are removed. On a write failure the documents
// already written stay on disk and are returned with the error.
func (e *Emitter) Emit(ctx context.Context, items []Item) ([]Document, error) {
	if err := os.MkdirAll(e.outputDir, 0750); err != nil {
		return nil, rberrors.NewEmissionError(e.outputDir, err)
	}

	date := e.clock.Now()
	var docs []Document
	for _, item := range items {
		path := filepath.Join(e.outputDir, item.Patch.FileName)
		if !item.Outcome.Emitted() {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				return docs, rberrors.NewEmissionError(item.Patch.FileName, err)
			}
			continue
		}

		doc, err := e.render(ctx, item, date)
		if err != nil {
			return docs, err
		}
		doc.Path = path
		if err := os.WriteFile(path, []byte(doc.Content), 0644); err != nil { //nolint:gosec // patch files are meant to be shared
			return docs, rberrors.NewEmissionError(item.Patch.FileName, err)
		}
		docs = append(docs, doc)
	}

	if err := e.writeSeries(docs); err != nil {
		return docs, err
	}
	return docs, nil
}

func (e *Emitter) render(ctx context.Context, item Item, date time.Time) (Document, error) {
	opts := git.DiffOptions{NoPrefix: item.Patch.StripLevel == 0}
	stripLevel := 1
	if opts.NoPrefix {
		stripLevel = 0
	}

	header := Header{
		Author:  e.author.String(),
		Date:    date,
		Subject: item.Patch.Name,
	}

	var body string
	var err error
	if item.Outcome == patch.Inapplicable {
		header.Commit = item.OldCommit
		header.Outcome = item.Outcome.String()
		body, err = e.source.DiffOf(ctx, item.OldCommit, opts)
	} else {
		header.Commit = item.Post
		body, err = e.source.Diff(ctx, item.Pre, item.Post, opts)
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to compute diff for %s: %w", item.Patch.Name, err)
	}

	doc := Document{
		Patch:      item.Patch,
		Outcome:    item.Outcome,
		StripLevel: stripLevel,
	}
	if item.Outcome == patch.Modified {
		original, err := e.source.DiffOf(ctx, item.OldCommit, opts)
		if err != nil {
			return Document{}, fmt.Errorf("failed to compute original diff for %s: %w", item.Patch.Name, err)
		}
		delta := Compare(original, body)
		doc.Delta = &delta
	}

	doc.Content, err = Render(header, body)
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (e *Emitter) writeSeries(docs []Document) error {
	var b strings.Builder
	for _, doc := range docs {
		b.WriteString(doc.Patch.FileName)
		if doc.StripLevel != 1 {
			fmt.Fprintf(&b, " -p%d", doc.StripLevel)
		}
		b.WriteString("\n")
	}
	path := filepath.Join(e.outputDir, SeriesFile)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil { //nolint:gosec // read by quilt
		return rberrors.NewEmissionError(SeriesFile, err)
	}
	return nil
}
