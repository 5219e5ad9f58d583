package sync

import (
	"strings"

	"github.com/inkdesk/inkdesk/client"
	"github.com/inkdesk/inkdesk/model"
	"github.com/inkdesk/inkdesk/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// AuthorProcessor normalizes one remote author payload into the local
// schema.
type AuthorProcessor struct {
	store    *store.Store
	identity *Identity
	images   *ImageProcessor
	logger   *zap.Logger
}

func NewAuthorProcessor(s *store.Store, identity *Identity, images *ImageProcessor, logger *zap.Logger) *AuthorProcessor {
	return &AuthorProcessor{store: s, identity: identity, images: images, logger: logger}
}

// Process upserts one remote author and returns the local id. A missing
// remote id or name is a validation error; the caller skips the record.
func (p *AuthorProcessor) Process(author *client.AuthorPayload) (int, error) {
	if author == nil {
		return 0, errors.New("author payload cannot be nil")
	}
	if author.ID == 0 {
		return 0, errors.New("author must have an id")
	}
	if strings.TrimSpace(author.Name) == "" {
		return 0, errors.New("author must have a name")
	}

	// The nested user goes in first so the author row can reference it. A
	// missing user reference is not fatal to the author itself.
	var userID *int
	if author.User != nil && author.User.ID != 0 {
		if _, err := p.store.UpsertUser(&model.User{
			ID:          author.User.ID,
			Username:    author.User.Username,
			Email:       author.User.Email,
			DisplayName: author.User.DisplayName,
		}); err != nil {
			p.logger.Warn("Failed to upsert user for author",
				zap.Int("user_id", author.User.ID),
				zap.String("author", author.Name),
				zap.Error(err))
		} else {
			uid := author.User.ID
			userID = &uid
		}
	}

	record := &model.Author{
		UserID:    userID,
		Name:      author.Name,
		ImageURL:  author.ImageURL,
		BirthDate: author.BirthDate,
		DeathDate: author.DeathDate,
		Website:   author.Website,
		Bio:       author.Bio,
	}

	localID, err := p.upsert(author.ID, record)
	if err != nil {
		return 0, err
	}

	if author.ImageURL != "" && localID != 0 {
		// Best effort; a failed download never fails the author.
		if _, err := p.images.DownloadAuthorImage(localID, author.ImageURL); err != nil {
			p.logger.Warn("Failed to download author image",
				zap.Int("author_id", localID),
				zap.String("url", author.ImageURL),
				zap.Error(err))
		}
	}

	return localID, nil
}

// upsert decides insert vs. update: the identity mapping wins, then an
// exact name match. Only a fresh insert records a new mapping.
func (p *AuthorProcessor) upsert(remoteID int, record *model.Author) (int, error) {
	if localID, ok := p.identity.Resolve(EntityAuthor, remoteID); ok {
		record.ID = localID
		if err := p.store.UpdateAuthor(record); err != nil {
			return 0, errors.Wrapf(err, "failed to update author %d", localID)
		}
		return localID, nil
	}

	if existing, err := p.store.GetAuthor(&model.FindAuthor{Name: &record.Name}); err != nil {
		return 0, errors.Wrap(err, "failed to look up author by name")
	} else if existing != nil {
		record.ID = existing.ID
		if err := p.store.UpdateAuthor(record); err != nil {
			return 0, errors.Wrapf(err, "failed to update author %d", existing.ID)
		}
		p.identity.Record(EntityAuthor, remoteID, existing.ID)
		return existing.ID, nil
	}

	added, err := p.store.AddAuthor(record)
	if err != nil {
		return 0, errors.Wrap(err, "failed to add author")
	}
	p.identity.Record(EntityAuthor, remoteID, added.ID)
	return added.ID, nil
}
