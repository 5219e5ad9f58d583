package sync

import (
	"strings"

	"github.com/inkdesk/inkdesk/client"
	"github.com/inkdesk/inkdesk/model"
	"github.com/inkdesk/inkdesk/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// BookProcessor normalizes one remote book payload into the local schema.
// The list- and object-valued fields land as the record's typed fields and
// are serialized to text by the store at the write boundary.
type BookProcessor struct {
	store    *store.Store
	identity *Identity
	logger   *zap.Logger
}

func NewBookProcessor(s *store.Store, identity *Identity, logger *zap.Logger) *BookProcessor {
	return &BookProcessor{store: s, identity: identity, logger: logger}
}

// Process upserts one remote book linked to an already-resolved local
// author and returns the local book id.
func (p *BookProcessor) Process(book *client.BookPayload, authorLocalID int) (int, error) {
	if book == nil {
		return 0, errors.New("book payload cannot be nil")
	}
	if strings.TrimSpace(book.Title) == "" {
		return 0, errors.New("book must have a title")
	}

	record := &model.Book{
		Title:              book.Title,
		Author:             book.AuthorName,
		Description:        book.Description,
		AuthorImageURL:     book.AuthorImageURL,
		Promoted:           book.Promoted,
		PageCount:          book.PageCount,
		Formats:            book.Formats,
		PublishDate:        book.PublishedDate,
		Awards:             book.Awards,
		OriginalTitle:      book.OriginalTitle,
		Series:             book.Series,
		Setting:            book.Setting,
		Characters:         book.Characters,
		ISBN:               book.ISBN,
		ASIN:               book.ASIN,
		Language:           book.Language,
		ReferralLinks:      book.ReferralLinks,
		ImpressionCount:    book.ImpressionCount,
		ClickThroughCount:  book.ClickThroughCount,
		LastImpressionAt:   book.LastImpressionAt,
		LastClickThroughAt: book.LastClickThroughAt,
		InternalDetails:    book.InternalDetails,
	}
	if authorLocalID != 0 {
		record.AuthorID = &authorLocalID
	}

	// Identity first, then the (title, author) pair for books that were
	// created locally before their first pull.
	if localID, ok := p.identity.Resolve(EntityBook, book.ID); ok {
		record.ID = localID
		if err := p.store.UpdateBook(record); err != nil {
			return 0, errors.Wrapf(err, "failed to update book %d", localID)
		}
		return localID, nil
	}

	find := &model.FindBook{Title: &record.Title}
	if record.AuthorID != nil {
		find.AuthorID = record.AuthorID
	}
	existing, err := p.store.GetBook(find)
	if err != nil {
		return 0, errors.Wrap(err, "failed to look up book by title and author")
	}
	if existing != nil {
		record.ID = existing.ID
		if err := p.store.UpdateBook(record); err != nil {
			return 0, errors.Wrapf(err, "failed to update book %d", existing.ID)
		}
		if book.ID != 0 {
			p.identity.Record(EntityBook, book.ID, existing.ID)
		}
		return existing.ID, nil
	}

	added, err := p.store.AddBook(record)
	if err != nil {
		return 0, errors.Wrap(err, "failed to add book")
	}
	if book.ID != 0 {
		p.identity.Record(EntityBook, book.ID, added.ID)
	}
	p.logger.Debug("Added book",
		zap.Int("local_id", added.ID),
		zap.Int("remote_id", book.ID),
		zap.String("title", book.Title))
	return added.ID, nil
}
