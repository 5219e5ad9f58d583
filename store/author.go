package store

import (
	"database/sql"
	"strings"

	"github.com/inkdesk/inkdesk/log"
	"github.com/inkdesk/inkdesk/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (s *Store) GetAuthor(find *model.FindAuthor) (*model.Author, error) {
	if find.ID != nil {
		if cache, ok := s.AuthorCache.Load(*find.ID); ok {
			return cache.(*model.Author), nil
		}
	}

	list, err := s.ListAuthors(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	author := list[0]
	s.AuthorCache.Store(author.ID, author)
	return author, nil
}

func (s *Store) ListAuthors(find *model.FindAuthor) ([]*model.Author, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.Name; v != nil {
		where, args = append(where, "author_name = ?"), append(args, *v)
	}
	if find.NeedsImage {
		where = append(where, "author_image_url IS NOT NULL AND author_image_url != ''")
		where = append(where, "(local_image_path IS NULL OR local_image_path = '')")
	}

	query := `
        SELECT
            id,
            user_id,
            author_name,
            author_image_url,
            birth_date,
            death_date,
            website,
            bio,
            local_image_path
        FROM authors
        WHERE ` + strings.Join(where, " AND ") + ` ORDER BY author_name`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Error("Failed to query authors", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Author, 0)
	for rows.Next() {
		var author model.Author
		var userID sql.NullInt64
		var imageURL, birthDate, deathDate, website, bio, localPath sql.NullString
		if err := rows.Scan(
			&author.ID,
			&userID,
			&author.Name,
			&imageURL,
			&birthDate,
			&deathDate,
			&website,
			&bio,
			&localPath,
		); err != nil {
			log.Error("Failed to scan author", zap.Error(err))
			return nil, err
		}
		if userID.Valid {
			uid := int(userID.Int64)
			author.UserID = &uid
		}
		author.ImageURL = imageURL.String
		author.BirthDate = birthDate.String
		author.DeathDate = deathDate.String
		author.Website = website.String
		author.Bio = bio.String
		author.LocalImagePath = localPath.String
		list = append(list, &author)
	}
	return list, rows.Err()
}

func (s *Store) AddAuthor(author *model.Author) (*model.Author, error) {
	stmt := `
        INSERT INTO authors (
            user_id,
            author_name,
            author_image_url,
            birth_date,
            death_date,
            website,
            bio
        ) VALUES (?,?,?,?,?,?,?)
        RETURNING id`
	args := []any{
		author.UserID,
		author.Name,
		author.ImageURL,
		author.BirthDate,
		author.DeathDate,
		author.Website,
		author.Bio,
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := tx.QueryRow(stmt, args...).Scan(&author.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.AuthorCache.Store(author.ID, author)
	return author, nil
}

func (s *Store) UpdateAuthor(author *model.Author) error {
	stmt := `
        UPDATE authors SET
            user_id = ?,
            author_name = ?,
            author_image_url = ?,
            birth_date = ?,
            death_date = ?,
            website = ?,
            bio = ?
        WHERE id = ?`
	args := []any{
		author.UserID,
		author.Name,
		author.ImageURL,
		author.BirthDate,
		author.DeathDate,
		author.Website,
		author.Bio,
		author.ID,
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(stmt, args...); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.AuthorCache.Delete(author.ID)
	return nil
}

func (s *Store) UpdateAuthorImagePath(authorID int, localPath string) error {
	stmt := `UPDATE authors SET local_image_path = ? WHERE id = ?`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	if _, err := s.db.Exec(stmt, localPath, authorID); err != nil {
		return err
	}
	s.AuthorCache.Delete(authorID)
	return nil
}

// RemoveAuthor deletes an author. The delete is refused while any book still
// references the author.
func (s *Store) RemoveAuthor(authorID int) error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM books WHERE author_id = ?`, authorID).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return errors.Errorf("author %d still has %d book(s)", authorID, count)
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	if _, err := s.db.Exec(`DELETE FROM authors WHERE id = ?`, authorID); err != nil {
		return err
	}
	s.AuthorCache.Delete(authorID)
	return nil
}

func (s *Store) CheckAuthor(name string) (int, bool) {
	stmt := `SELECT id FROM authors WHERE author_name = ?`

	var authorID int
	if err := s.db.QueryRow(stmt, name).Scan(&authorID); err != nil {
		return 0, false
	}
	return authorID, true
}

func (s *Store) UpsertUser(user *model.User) (*model.User, error) {
	stmt := `
        INSERT INTO users (
            id, username, email, display_name
        ) VALUES (?,?,?,?)
        ON CONFLICT(id) DO UPDATE
        SET
            username = EXCLUDED.username,
            email = EXCLUDED.email,
            display_name = EXCLUDED.display_name`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	if _, err := s.db.Exec(stmt, user.ID, user.Username, user.Email, user.DisplayName); err != nil {
		return nil, err
	}
	return user, nil
}
