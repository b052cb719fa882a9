package webexport

import (
	"context"
	"fmt"

	"github.com/marque-app/marque/internal/domain"
	"github.com/marque-app/marque/internal/logger"
	"github.com/marque-app/marque/internal/store"
)

// Importer replays export file entries into the store for a single owner.
// Entries whose URL already exists for that owner are skipped, so repeated
// imports of the same file are idempotent.
type Importer struct {
	store  store.Store
	owner  string
	logger logger.Logger
}

// NewImporter creates a new importer writing on behalf of owner.
func NewImporter(st store.Store, owner string, log logger.Logger) *Importer {
	return &Importer{
		store:  st,
		owner:  owner,
		logger: log,
	}
}

// ImportFile loads path and inserts every valid, previously unseen entry.
// It returns the number of bookmarks created.
func (i *Importer) ImportFile(ctx context.Context, path string) (int, error) {
	entries, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		i.logger.Warn("export file contains no entries", logger.String("path", path))
		return 0, nil
	}

	existing, err := i.store.List(ctx, i.owner)
	if err != nil {
		return 0, fmt.Errorf("failed to list existing bookmarks: %w", err)
	}

	seen := make(map[string]bool, len(existing))
	for _, b := range existing {
		seen[b.URL] = true
	}

	imported := 0
	for _, e := range entries {
		if seen[e.URL] {
			continue
		}

		in := domain.CreateInput{Title: e.Title, URL: e.URL}
		if err := in.Validate(); err != nil {
			i.logger.Warn("skipping invalid entry",
				logger.String("title", e.Title),
				logger.String("url", e.URL),
				logger.Error(err))
			continue
		}

		if _, err := i.store.Insert(ctx, i.owner, in); err != nil {
			return imported, fmt.Errorf("failed to import %q: %w", e.URL, err)
		}
		seen[e.URL] = true
		imported++
	}

	i.logger.Info("import complete",
		logger.String("path", path),
		logger.Int("entries", len(entries)),
		logger.Int("imported", imported))

	return imported, nil
}
