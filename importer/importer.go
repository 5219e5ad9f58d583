// Package importer loads books from local CSV or JSON files into the
// library. Imported records go through the same validation and
// deduplication as pulled ones, but they carry no remote ids: the first
// push uploads them as new entities.
package importer

import (
	"strings"

	"github.com/google/uuid"
	"github.com/inkdesk/inkdesk/client"
	"github.com/inkdesk/inkdesk/model"
	"github.com/inkdesk/inkdesk/store"
	"github.com/inkdesk/inkdesk/sync"
	"github.com/inkdesk/inkdesk/taxonomy"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Importer struct {
	store  *store.Store
	genres *sync.GenreProcessor
	logger *zap.Logger
}

func NewImporter(s *store.Store, genres *sync.GenreProcessor, logger *zap.Logger) *Importer {
	return &Importer{store: s, genres: genres, logger: logger}
}

// ImportBook validates and upserts one book record, resolving its author by
// name. Returns the local book id.
func (im *Importer) ImportBook(record *model.Book, authorName string) (int, error) {
	if err := record.Validate(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(authorName) == "" {
		return 0, errors.New("book must have an author")
	}

	authorID, err := im.resolveAuthor(authorName)
	if err != nil {
		return 0, err
	}
	record.Author = authorName
	record.AuthorID = &authorID

	existing, err := im.store.GetBook(&model.FindBook{Title: &record.Title, AuthorID: &authorID})
	if err != nil {
		return 0, errors.Wrap(err, "failed to look up book")
	}
	if existing != nil {
		record.ID = existing.ID
		if err := im.store.UpdateBook(record); err != nil {
			return 0, errors.Wrapf(err, "failed to update book %d", existing.ID)
		}
		return existing.ID, nil
	}

	added, err := im.store.AddBook(record)
	if err != nil {
		return 0, errors.Wrap(err, "failed to add book")
	}
	return added.ID, nil
}

func (im *Importer) resolveAuthor(name string) (int, error) {
	if id, ok := im.store.CheckAuthor(name); ok {
		return id, nil
	}
	added, err := im.store.AddAuthor(&model.Author{Name: name})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to add author %q", name)
	}
	return added.ID, nil
}

// attachTaxonomies resolves taxonomy names against the vocabulary and
// replaces the book's association set. Names the vocabulary does not know
// are skipped; the vocabulary is owned by the catalogue service and local
// imports cannot extend it.
func (im *Importer) attachTaxonomies(bookID int, names map[string][]string) error {
	sel := taxonomy.NewSelection()
	for _, taxonomyType := range []string{
		model.TaxonomyGenre, model.TaxonomySubgenre, model.TaxonomyTheme, model.TaxonomyTrope,
	} {
		for _, name := range names[taxonomyType] {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			entry, err := im.store.GetGenre(&model.FindGenre{Name: &name, Type: &taxonomyType})
			if err != nil {
				return errors.Wrapf(err, "failed to look up %s %q", taxonomyType, name)
			}
			if entry == nil {
				im.logger.Warn("Unknown taxonomy name in import",
					zap.String("type", taxonomyType),
					zap.String("name", name))
				continue
			}
			if err := sel.Add(entry); err != nil {
				im.logger.Warn("Skipping taxonomy over selection cap",
					zap.String("name", name),
					zap.Error(err))
			}
		}
	}

	if sel.Len() == 0 {
		return nil
	}
	_, err := im.genres.SaveSelection(sel, bookID)
	return err
}

func (im *Importer) recordJobStart() *model.SyncJob {
	job, err := im.store.AddSyncJob(&model.SyncJob{
		UUID:   uuid.New().String(),
		Kind:   model.JobKindImport,
		Status: model.JobStatusRunning,
	})
	if err != nil {
		im.logger.Warn("Failed to record import job", zap.Error(err))
		return nil
	}
	return job
}

func (im *Importer) finishJob(job *model.SyncJob, result *sync.BatchResult) {
	if job == nil {
		return
	}
	status := model.JobStatusDone
	if !result.Ok() && len(result.Succeeded) == 0 {
		status = model.JobStatusFailed
	}
	if err := im.store.FinishSyncJob(job.ID, status, result.Summary()); err != nil {
		im.logger.Warn("Failed to finish import job", zap.Int("job_id", job.ID), zap.Error(err))
	}
}

// payloadToRecord maps a file-level book payload onto the local record
// shape shared with the pull path.
func payloadToRecord(payload *client.BookPayload) *model.Book {
	return &model.Book{
		Title:           payload.Title,
		Description:     payload.Description,
		PageCount:       payload.PageCount,
		Formats:         payload.Formats,
		PublishDate:     payload.PublishedDate,
		Awards:          payload.Awards,
		OriginalTitle:   payload.OriginalTitle,
		Series:          payload.Series,
		Setting:         payload.Setting,
		Characters:      payload.Characters,
		ISBN:            payload.ISBN,
		ASIN:            payload.ASIN,
		Language:        payload.Language,
		ReferralLinks:   payload.ReferralLinks,
		InternalDetails: payload.InternalDetails,
	}
}
