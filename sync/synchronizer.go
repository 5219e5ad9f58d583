// Package sync pulls the remote catalogue into the local library and
// pushes local edits back. Remote and local ids live in separate spaces;
// the identity mappings in the settings table are the only bridge between
// them.
package sync

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/inkdesk/inkdesk/client"
	"github.com/inkdesk/inkdesk/model"
	"github.com/inkdesk/inkdesk/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PullResult aggregates the outcome of one pull run, phase by phase.
type PullResult struct {
	Authors      *BatchResult `json:"authors"`
	Books        *BatchResult `json:"books"`
	Genres       *BatchResult `json:"genres"`
	Taxonomies   *BatchResult `json:"taxonomies"`
	Images       *BatchResult `json:"images"`
	AuthorImages *Tally       `json:"author_images"`
	BookImages   *Tally       `json:"book_images"`
}

func newPullResult() *PullResult {
	return &PullResult{
		Authors:      NewBatchResult(),
		Books:        NewBatchResult(),
		Genres:       NewBatchResult(),
		Taxonomies:   NewBatchResult(),
		Images:       NewBatchResult(),
		AuthorImages: &Tally{},
		BookImages:   &Tally{},
	}
}

func (r *PullResult) summary() string {
	return fmt.Sprintf("authors %s, books %s, taxonomies %s, images %d/%d",
		r.Authors.Summary(),
		r.Books.Summary(),
		r.Taxonomies.Summary(),
		r.AuthorImages.Success+r.BookImages.Success,
		r.AuthorImages.Success+r.AuthorImages.Failed+r.BookImages.Success+r.BookImages.Failed)
}

// Synchronizer orchestrates a pull: catalogue download, per-record upserts,
// vocabulary refresh, then image downloads. One record failing never stops
// the run; failures are collected in the result.
type Synchronizer struct {
	store  *store.Store
	client *client.Client
	logger *zap.Logger

	identity *Identity
	authors  *AuthorProcessor
	books    *BookProcessor
	genres   *GenreProcessor
	images   *ImageProcessor
}

func NewSynchronizer(s *store.Store, c *client.Client, dataDir string, downloadTimeout time.Duration, logger *zap.Logger) *Synchronizer {
	identity := NewIdentity(s, logger)
	images := NewImageProcessor(s, logger, c.BaseURL(), dataDir, downloadTimeout)
	return &Synchronizer{
		store:    s,
		client:   c,
		logger:   logger,
		identity: identity,
		authors:  NewAuthorProcessor(s, identity, images, logger),
		books:    NewBookProcessor(s, identity, logger),
		genres:   NewGenreProcessor(s, c, logger),
		images:   images,
	}
}

// Images exposes the image processor for callers that download outside a
// full pull.
func (s *Synchronizer) Images() *ImageProcessor {
	return s.images
}

// Genres exposes the genre processor for vocabulary and selection work.
func (s *Synchronizer) Genres() *GenreProcessor {
	return s.genres
}

// Identity exposes the id mapper, shared with the push side.
func (s *Synchronizer) Identity() *Identity {
	return s.identity
}

// StoredRole reports whether a previous run recorded the account as a
// publisher. The setting is a cache of the caller-declared role, not its
// source of truth.
func (s *Synchronizer) StoredRole() bool {
	isPublisher, _ := s.store.GetSetting(model.SettingIsPublisher, "false")
	return isPublisher == "true"
}

// Pull downloads the account's catalogue and reconciles it into the local
// library. The caller declares the account role, which decides the
// catalogue shape: publishers get the nested publisher catalogue, everyone
// else the flat author one. Callers without a declared role pass
// StoredRole().
func (s *Synchronizer) Pull(asPublisher bool) (*PullResult, error) {
	if !s.client.HasSession() {
		return nil, errors.New("not logged in")
	}

	job := s.recordJobStart(model.JobKindPull)
	result := newPullResult()

	var fetchErr error
	if asPublisher {
		fetchErr = s.pullPublisherCatalogue(result)
	} else {
		fetchErr = s.pullAuthorCatalogue(result)
	}
	if fetchErr != nil {
		s.finishJob(job, model.JobStatusFailed, fetchErr.Error())
		return result, fetchErr
	}
	if asPublisher {
		// Cache the declared role so role-less callers keep pulling the
		// publisher catalogue.
		if err := s.store.SetSetting(model.SettingIsPublisher, "true"); err != nil {
			s.logger.Warn("Failed to cache publisher role", zap.Error(err))
		}
	}

	// The vocabulary refresh runs even when the catalogue carried complete
	// taxonomy data; a stale cache is worse than a redundant fetch.
	if err := s.genres.SyncGenres(); err != nil {
		s.logger.Error("Genre vocabulary sync failed", zap.Error(err))
		result.Genres.AddFailure("vocabulary", err)
	} else {
		result.Genres.AddSuccess("vocabulary")
	}

	result.AuthorImages, result.BookImages = s.images.DownloadAll()

	s.logger.Info("Pull completed", zap.String("summary", result.summary()))
	s.finishJob(job, model.JobStatusDone, result.summary())
	return result, nil
}

func (s *Synchronizer) pullAuthorCatalogue(result *PullResult) error {
	entries, err := s.client.FetchAuthorCatalogue()
	if err != nil {
		return errors.Wrap(err, "failed to fetch author catalogue")
	}
	for i := range entries {
		s.processEntry(&entries[i], result)
	}
	return nil
}

func (s *Synchronizer) pullPublisherCatalogue(result *PullResult) error {
	entries, err := s.client.FetchPublisherCatalogue()
	if err != nil {
		return errors.Wrap(err, "failed to fetch publisher catalogue")
	}
	for i := range entries {
		s.storePublisherInfo(&entries[i].Publisher)
		for j := range entries[i].Catalogue {
			s.processEntry(&entries[i].Catalogue[j], result)
		}
	}
	return nil
}

// processEntry reconciles one author with their books. A failed author
// skips the whole entry since the books would have nothing to hang off.
func (s *Synchronizer) processEntry(entry *client.CatalogueEntry, result *PullResult) {
	authorRef := entry.Author.Name
	if authorRef == "" {
		authorRef = fmt.Sprintf("author %d", entry.Author.ID)
	}

	authorLocalID, err := s.authors.Process(&entry.Author)
	if err != nil {
		s.logger.Error("Failed to process author",
			zap.String("author", authorRef),
			zap.Error(err))
		result.Authors.AddFailure(authorRef, err)
		for _, book := range entry.Books {
			result.Books.AddFailure(book.Title, errors.New("author could not be processed"))
		}
		return
	}
	result.Authors.AddSuccess(authorRef)

	for i := range entry.Books {
		book := &entry.Books[i]
		// Catalogue books may omit the denormalized author fields; fill
		// them from the entry so the local row stays self-describing.
		if book.AuthorName == "" {
			book.AuthorName = entry.Author.Name
		}
		if book.AuthorImageURL == "" {
			book.AuthorImageURL = entry.Author.ImageURL
		}

		bookLocalID, err := s.books.Process(book, authorLocalID)
		if err != nil {
			s.logger.Error("Failed to process book",
				zap.String("title", book.Title),
				zap.Error(err))
			result.Books.AddFailure(book.Title, err)
			continue
		}
		result.Books.AddSuccess(book.Title)

		if len(book.Images) > 0 {
			result.Images.Merge(s.images.ProcessBookImages(book.Images, bookLocalID))
		}

		taxonomies := book.GenreTaxonomies
		if len(taxonomies) == 0 {
			taxonomies = book.Genres
		}
		if len(taxonomies) > 0 {
			batch, err := s.genres.ProcessBookTaxonomies(taxonomies, bookLocalID)
			if err != nil {
				result.Taxonomies.AddFailure(book.Title, err)
			} else {
				result.Taxonomies.Merge(batch)
			}
		}
	}
}

// storePublisherInfo captures the account's publisher identity both as a
// publisher row and as settings, so the push side knows the role without a
// join.
func (s *Synchronizer) storePublisherInfo(publisher *client.PublisherPayload) {
	if publisher == nil || publisher.Name == "" {
		return
	}

	if _, err := s.store.AddPublisher(&model.Publisher{
		UserID:      publisher.UserID,
		Name:        publisher.Name,
		Description: publisher.Description,
		Email:       publisher.Email,
		Phone:       publisher.Phone,
		Address:     publisher.Address,
		Website:     publisher.Website,
		LogoURL:     publisher.LogoURL,
	}); err != nil {
		s.logger.Warn("Failed to store publisher record",
			zap.String("publisher", publisher.Name),
			zap.Error(err))
	}

	settings := map[string]string{
		model.SettingIsPublisher:      "true",
		model.SettingPublisherID:      strconv.Itoa(publisher.ID),
		model.SettingPublisherName:    publisher.Name,
		model.SettingPublisherDesc:    publisher.Description,
		model.SettingPublisherEmail:   publisher.Email,
		model.SettingPublisherWebsite: publisher.Website,
	}
	for key, value := range settings {
		if err := s.store.SetSetting(key, value); err != nil {
			s.logger.Warn("Failed to store publisher setting",
				zap.String("key", key),
				zap.Error(err))
		}
	}
}

func (s *Synchronizer) recordJobStart(kind string) *model.SyncJob {
	job, err := s.store.AddSyncJob(&model.SyncJob{
		UUID:   uuid.New().String(),
		Kind:   kind,
		Status: model.JobStatusRunning,
	})
	if err != nil {
		s.logger.Warn("Failed to record sync job", zap.String("kind", kind), zap.Error(err))
		return nil
	}
	return job
}

func (s *Synchronizer) finishJob(job *model.SyncJob, status, detail string) {
	if job == nil {
		return
	}
	if err := s.store.FinishSyncJob(job.ID, status, detail); err != nil {
		s.logger.Warn("Failed to finish sync job", zap.Int("job_id", job.ID), zap.Error(err))
	}
}

// Snapshot is a fresh read of every synced entity, taken straight from the
// database rather than any cache.
type Snapshot struct {
	Authors []*model.Author `json:"authors"`
	Books   []*model.Book   `json:"books"`
	Genres  []*model.Genre  `json:"genres"`
	Images  []*model.Image  `json:"images"`
}

// Snapshot re-reads all entities after a sync so callers present current
// state instead of whatever they held before the run.
func (s *Synchronizer) Snapshot() (*Snapshot, error) {
	authors, err := s.store.ListAuthors(&model.FindAuthor{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list authors")
	}
	books, err := s.store.ListBooks(&model.FindBook{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list books")
	}
	genres, err := s.store.ListGenres(&model.FindGenre{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list genres")
	}
	images, err := s.store.ListImages(&model.FindImage{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list images")
	}
	return &Snapshot{Authors: authors, Books: books, Genres: genres, Images: images}, nil
}
