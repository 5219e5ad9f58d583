package sync

import (
	"fmt"
	"sync"

	"github.com/inkdesk/inkdesk/client"
	"github.com/inkdesk/inkdesk/model"
	"github.com/inkdesk/inkdesk/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PushResult aggregates the outcome of one push run. Pull is set only when
// every book uploaded and the reconciling pull actually ran.
type PushResult struct {
	Authors *BatchResult `json:"authors"`
	Books   *BatchResult `json:"books"`
	Pull    *PullResult  `json:"pull,omitempty"`
}

// Pusher uploads local edits to the catalogue service. Pushes are strictly
// ordered: every author must upload before any book is attempted, and only
// a fully successful book phase triggers the reconciling pull. A mutex
// keeps concurrent push attempts out; the second caller gets an error, not
// a queue slot.
type Pusher struct {
	store  *store.Store
	client *client.Client
	logger *zap.Logger
	syncer *Synchronizer

	mu        sync.Mutex
	isSyncing bool
}

func NewPusher(s *store.Store, c *client.Client, syncer *Synchronizer, logger *zap.Logger) *Pusher {
	return &Pusher{store: s, client: c, logger: logger, syncer: syncer}
}

// IsSyncing reports whether a push is currently in flight.
func (p *Pusher) IsSyncing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isSyncing
}

func (p *Pusher) acquire() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isSyncing {
		return errors.New("a sync is already running")
	}
	p.isSyncing = true
	return nil
}

func (p *Pusher) release() {
	p.mu.Lock()
	p.isSyncing = false
	p.mu.Unlock()
}

// Push uploads all local authors, then all local books, then pulls the
// catalogue back to reconcile server-assigned state. A failure in the
// author phase stops the run before any book upload.
func (p *Pusher) Push() (*PushResult, error) {
	if err := p.acquire(); err != nil {
		return nil, err
	}
	defer p.release()

	if !p.client.HasSession() {
		return nil, errors.New("not logged in")
	}

	job := p.syncer.recordJobStart(model.JobKindPush)
	result := &PushResult{
		Authors: NewBatchResult(),
		Books:   NewBatchResult(),
	}

	p.pushAuthors(result.Authors)
	if !result.Authors.Ok() {
		first := result.Authors.FirstFailure()
		err := errors.Errorf("author push failed (%s): %s", result.Authors.Summary(), first.Err)
		p.syncer.finishJob(job, model.JobStatusFailed, err.Error())
		return result, err
	}

	p.pushBooks(result.Books)
	if !result.Books.Ok() {
		first := result.Books.FirstFailure()
		err := errors.Errorf("book push failed (%s): %s", result.Books.Summary(), first.Err)
		p.syncer.finishJob(job, model.JobStatusFailed, err.Error())
		return result, err
	}

	detail := fmt.Sprintf("authors %s, books %s", result.Authors.Summary(), result.Books.Summary())
	p.logger.Info("Push completed", zap.String("summary", detail))

	// Server-assigned ids and normalized fields come back via a pull.
	pull, err := p.syncer.Pull(p.syncer.StoredRole())
	if err != nil {
		p.logger.Error("Reconciling pull after push failed", zap.Error(err))
		p.syncer.finishJob(job, model.JobStatusDone, detail+", reconcile failed")
		return result, errors.Wrap(err, "push succeeded but reconciling pull failed")
	}
	result.Pull = pull

	p.syncer.finishJob(job, model.JobStatusDone, detail)
	return result, nil
}

func (p *Pusher) pushAuthors(result *BatchResult) {
	authors, err := p.store.ListAuthors(&model.FindAuthor{})
	if err != nil {
		result.AddFailure("authors", errors.Wrap(err, "failed to list authors"))
		return
	}

	identity := p.syncer.Identity()
	for _, author := range authors {
		payload := &client.AuthorPayload{
			Name:      author.Name,
			ImageURL:  author.ImageURL,
			BirthDate: author.BirthDate,
			DeathDate: author.DeathDate,
			Website:   author.Website,
			Bio:       author.Bio,
		}
		// A known remote id makes this an update on the server side; a
		// locally created author uploads with id zero and gets one assigned.
		if remoteID, ok := identity.ResolveRemote(EntityAuthor, author.ID); ok {
			payload.ID = remoteID
		}

		if err := p.client.PushAuthor(payload); err != nil {
			p.logger.Error("Failed to push author",
				zap.String("author", author.Name),
				zap.Error(err))
			result.AddFailure(author.Name, err)
			continue
		}
		result.AddSuccess(author.Name)
	}
}

func (p *Pusher) pushBooks(result *BatchResult) {
	books, err := p.store.ListBooks(&model.FindBook{})
	if err != nil {
		result.AddFailure("books", errors.Wrap(err, "failed to list books"))
		return
	}

	identity := p.syncer.Identity()
	for _, book := range books {
		payload := &client.BookPayload{
			Title:              book.Title,
			Description:        book.Description,
			PageCount:          book.PageCount,
			PublishedDate:      book.PublishDate,
			ISBN:               book.ISBN,
			ASIN:               book.ASIN,
			AuthorName:         book.Author,
			AuthorImageURL:     book.AuthorImageURL,
			Promoted:           book.Promoted,
			Awards:             book.Awards,
			Setting:            book.Setting,
			Formats:            book.Formats,
			OriginalTitle:      book.OriginalTitle,
			Series:             book.Series,
			Characters:         book.Characters,
			Language:           book.Language,
			ReferralLinks:      book.ReferralLinks,
			ImpressionCount:    book.ImpressionCount,
			ClickThroughCount:  book.ClickThroughCount,
			LastImpressionAt:   book.LastImpressionAt,
			LastClickThroughAt: book.LastClickThroughAt,
			InternalDetails:    book.InternalDetails,
		}
		if remoteID, ok := identity.ResolveRemote(EntityBook, book.ID); ok {
			payload.ID = remoteID
		}
		if book.AuthorID != nil {
			if remoteAuthorID, ok := identity.ResolveRemote(EntityAuthor, *book.AuthorID); ok {
				payload.AuthorID = remoteAuthorID
			}
		}

		taxonomies, err := p.store.ListBookTaxonomies(book.ID)
		if err != nil {
			p.logger.Warn("Failed to load taxonomies for push",
				zap.String("title", book.Title),
				zap.Error(err))
		}
		for _, tax := range taxonomies {
			payload.GenreTaxonomies = append(payload.GenreTaxonomies, client.TaxonomyPayload{
				TaxonomyID:  tax.TaxonomyID,
				Rank:        tax.Rank,
				Importance:  tax.Importance,
				Name:        tax.Name,
				Type:        tax.Type,
				Description: tax.Description,
			})
		}

		if err := p.client.PushBook(payload); err != nil {
			p.logger.Error("Failed to push book",
				zap.String("title", book.Title),
				zap.Error(err))
			result.AddFailure(book.Title, err)
			continue
		}
		result.AddSuccess(book.Title)
	}
}
