package importer

import (
	"encoding/json"
	"os"

	"github.com/inkdesk/inkdesk/client"
	"github.com/inkdesk/inkdesk/model"
	"github.com/inkdesk/inkdesk/sync"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// jsonBook is one book entry in an import file: the catalogue book shape
// plus taxonomy names grouped by type, for files written by hand rather
// than exported with vocabulary ids.
type jsonBook struct {
	client.BookPayload
	GenreNames    []string `json:"genre_names,omitempty"`
	SubgenreNames []string `json:"subgenre_names,omitempty"`
	ThemeNames    []string `json:"theme_names,omitempty"`
	TropeNames    []string `json:"trope_names,omitempty"`
}

// ImportJSON reads a JSON array of books. Taxonomies attach either by
// vocabulary id (genreTaxonomies) or by name (genre_names and friends);
// ids win when both are present.
func (im *Importer) ImportJSON(path string) (*sync.BatchResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	var entries []jsonBook
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	job := im.recordJobStart()
	result := sync.NewBatchResult()

	for i := range entries {
		entry := &entries[i]
		ref := entry.Title
		if ref == "" {
			ref = "entry"
		}

		bookID, err := im.ImportBook(payloadToRecord(&entry.BookPayload), entry.AuthorName)
		if err != nil {
			im.logger.Warn("Failed to import JSON entry",
				zap.String("title", entry.Title),
				zap.Error(err))
			result.AddFailure(ref, err)
			continue
		}

		if len(entry.GenreTaxonomies) > 0 {
			if _, err := im.genres.ProcessBookTaxonomies(entry.GenreTaxonomies, bookID); err != nil {
				result.AddFailure(ref, errors.Wrap(err, "taxonomies"))
				continue
			}
		} else {
			names := map[string][]string{
				model.TaxonomyGenre:    entry.GenreNames,
				model.TaxonomySubgenre: entry.SubgenreNames,
				model.TaxonomyTheme:    entry.ThemeNames,
				model.TaxonomyTrope:    entry.TropeNames,
			}
			if err := im.attachTaxonomies(bookID, names); err != nil {
				result.AddFailure(ref, errors.Wrap(err, "taxonomies"))
				continue
			}
		}
		result.AddSuccess(ref)
	}

	im.logger.Info("JSON import completed",
		zap.String("path", path),
		zap.String("summary", result.Summary()))
	im.finishJob(job, result)
	return result, nil
}
