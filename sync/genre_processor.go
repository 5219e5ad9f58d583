package sync

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/inkdesk/inkdesk/client"
	"github.com/inkdesk/inkdesk/model"
	"github.com/inkdesk/inkdesk/store"
	"github.com/inkdesk/inkdesk/taxonomy"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// GenreProcessor keeps the shared taxonomy vocabulary current and
// materializes per-book taxonomy associations.
type GenreProcessor struct {
	store  *store.Store
	client *client.Client
	logger *zap.Logger
}

func NewGenreProcessor(s *store.Store, c *client.Client, logger *zap.Logger) *GenreProcessor {
	return &GenreProcessor{store: s, client: c, logger: logger}
}

// SyncGenres refreshes the vocabulary from the remote service, falling back
// to the cached copy when the fetch fails. The returned error is non-nil
// only when no vocabulary could be made available at all.
func (p *GenreProcessor) SyncGenres() error {
	genres, err := p.client.FetchGenres()
	if err == nil {
		if _, importErr := p.ImportGenres(genres); importErr != nil {
			return importErr
		}
		p.cacheVocabulary(genres)
		return nil
	}
	p.logger.Warn("Unable to fetch genre vocabulary, trying cache", zap.Error(err))

	cached, cacheErr := p.store.GetSetting(model.SettingCachedGenres, "")
	if cacheErr != nil || cached == "" {
		return errors.Wrap(err, "no cached genre vocabulary available")
	}
	var cachedGenres []client.GenrePayload
	if err := json.Unmarshal([]byte(cached), &cachedGenres); err != nil {
		return errors.Wrap(err, "cached genre vocabulary is corrupt")
	}
	_, importErr := p.ImportGenres(cachedGenres)
	return importErr
}

// cacheVocabulary stores the fetched vocabulary for offline fallback. Only
// a fresh remote fetch goes through here: replaying the cache must not
// move the last-updated timestamp.
func (p *GenreProcessor) cacheVocabulary(genres []client.GenrePayload) {
	raw, err := json.Marshal(genres)
	if err != nil {
		return
	}
	if err := p.store.SetSetting(model.SettingCachedGenres, string(raw)); err != nil {
		p.logger.Warn("Failed to cache genre vocabulary", zap.Error(err))
	}
	if err := p.store.SetSetting(model.SettingGenresLastUpdated, time.Now().Format(time.RFC3339)); err != nil {
		p.logger.Warn("Failed to record genre cache timestamp", zap.Error(err))
	}
}

// ImportGenres upserts every vocabulary entry. An empty input reports
// failure without touching anything; it is a recoverable condition, not a
// crash.
func (p *GenreProcessor) ImportGenres(genres []client.GenrePayload) (*BatchResult, error) {
	result := NewBatchResult()
	if len(genres) == 0 {
		return result, errors.New("no genre vocabulary supplied")
	}

	for _, payload := range genres {
		genre := &model.Genre{
			ID:          payload.ID,
			Name:        payload.Name,
			Description: payload.Description,
			Type:        payload.Type,
			ParentID:    payload.ParentID,
		}
		if _, err := p.store.UpsertGenre(genre); err != nil {
			p.logger.Error("Failed to upsert genre",
				zap.Int("genre_id", payload.ID),
				zap.String("name", payload.Name),
				zap.Error(err))
			result.AddFailure(payload.Name, err)
			continue
		}
		result.AddSuccess(payload.Name)
	}

	return result, nil
}

// ProcessBookTaxonomies replaces a book's association set with the given
// taxonomies. Unknown vocabulary entries are created on the fly. Per-entry
// failures are collected and the loop keeps going; a partial set is an
// accepted degraded outcome.
func (p *GenreProcessor) ProcessBookTaxonomies(taxonomies []client.TaxonomyPayload, bookID int) (*BatchResult, error) {
	result := NewBatchResult()
	if len(taxonomies) == 0 || bookID == 0 {
		return result, errors.New("no taxonomies or no book id supplied")
	}

	if err := p.store.RemoveBookTaxonomies(bookID); err != nil {
		return result, errors.Wrapf(err, "failed to clear taxonomies for book %d", bookID)
	}

	for _, tax := range taxonomies {
		ref := fmt.Sprintf("taxonomy %d", tax.TaxonomyID)
		if tax.TaxonomyID == 0 {
			p.logger.Warn("Taxonomy without id", zap.Int("book_id", bookID))
			result.AddFailure(ref, errors.New("taxonomy has no id"))
			continue
		}

		if !p.store.CheckGenre(tax.TaxonomyID) {
			genre := &model.Genre{
				ID:          tax.TaxonomyID,
				Name:        tax.Name,
				Description: tax.Description,
				Type:        tax.Type,
			}
			if _, err := p.store.UpsertGenre(genre); err != nil {
				p.logger.Error("Failed to add taxonomy to vocabulary",
					zap.Int("taxonomy_id", tax.TaxonomyID),
					zap.Error(err))
				result.AddFailure(ref, err)
				continue
			}
		}

		importance := tax.Importance
		if importance == 0 {
			importance = taxonomy.Importance(tax.Rank)
		}
		assoc := &model.BookTaxonomy{
			BookID:     bookID,
			TaxonomyID: tax.TaxonomyID,
			Rank:       tax.Rank,
			Importance: importance,
		}
		if err := p.store.AddBookTaxonomy(assoc); err != nil {
			p.logger.Error("Failed to associate taxonomy with book",
				zap.Int("taxonomy_id", tax.TaxonomyID),
				zap.Int("book_id", bookID),
				zap.Error(err))
			result.AddFailure(ref, err)
			continue
		}
		result.AddSuccess(ref)
	}

	return result, nil
}

// SaveSelection persists a user-edited taxonomy selection for a book. The
// completeness gate runs first; a rejected save leaves the stored set
// untouched.
func (p *GenreProcessor) SaveSelection(sel *taxonomy.Selection, bookID int) (*BatchResult, error) {
	if err := sel.Validate(); err != nil {
		return NewBatchResult(), err
	}

	taxonomies := make([]client.TaxonomyPayload, 0, sel.Len())
	for _, item := range sel.Items() {
		taxonomies = append(taxonomies, client.TaxonomyPayload{
			TaxonomyID:  item.TaxonomyID,
			Rank:        item.Rank,
			Importance:  item.Importance,
			Name:        item.Name,
			Type:        item.Type,
			Description: item.Description,
		})
	}
	return p.ProcessBookTaxonomies(taxonomies, bookID)
}
