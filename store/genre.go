package store

import (
	"database/sql"
	"strings"

	"github.com/inkdesk/inkdesk/log"
	"github.com/inkdesk/inkdesk/model"
	"go.uber.org/zap"
)

// UpsertGenre inserts or replaces a vocabulary entry by its remote id.
func (s *Store) UpsertGenre(genre *model.Genre) (*model.Genre, error) {
	if genre.Type == "" {
		genre.Type = model.TaxonomyGenre
	}
	stmt := `
        INSERT INTO genres (
            id, name, description, type, parent_id
        ) VALUES (?,?,?,?,?)
        ON CONFLICT(id) DO UPDATE
        SET
            name = EXCLUDED.name,
            description = EXCLUDED.description,
            type = EXCLUDED.type,
            parent_id = EXCLUDED.parent_id`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	if _, err := s.db.Exec(stmt, genre.ID, genre.Name, genre.Description, genre.Type, genre.ParentID); err != nil {
		return nil, err
	}
	return genre, nil
}

func (s *Store) GetGenre(find *model.FindGenre) (*model.Genre, error) {
	list, err := s.ListGenres(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListGenres(find *model.FindGenre) ([]*model.Genre, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.Type; v != nil {
		where, args = append(where, "type = ?"), append(args, *v)
	}
	if v := find.Name; v != nil {
		where, args = append(where, "name = ? COLLATE NOCASE"), append(args, *v)
	}

	query := `
        SELECT
            id,
            name,
            description,
            type,
            parent_id
        FROM genres
        WHERE ` + strings.Join(where, " AND ") + ` ORDER BY type, name`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Error("Failed to query genres", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Genre, 0)
	for rows.Next() {
		var genre model.Genre
		var description, genreType sql.NullString
		var parentID sql.NullInt64
		if err := rows.Scan(&genre.ID, &genre.Name, &description, &genreType, &parentID); err != nil {
			log.Error("Failed to scan genre", zap.Error(err))
			return nil, err
		}
		genre.Description = description.String
		genre.Type = genreType.String
		if parentID.Valid {
			pid := int(parentID.Int64)
			genre.ParentID = &pid
		}
		list = append(list, &genre)
	}
	return list, rows.Err()
}

func (s *Store) CheckGenre(genreID int) bool {
	stmt := `SELECT EXISTS(SELECT 1 FROM genres WHERE id = ?)`

	var exists bool
	if err := s.db.QueryRow(stmt, genreID).Scan(&exists); err != nil {
		return false
	}
	return exists
}

// RemoveBookTaxonomies deletes every association for the book, the first
// half of a replace-all write.
func (s *Store) RemoveBookTaxonomies(bookID int) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	_, err := s.db.Exec(`DELETE FROM book_genres WHERE book_id = ?`, bookID)
	return err
}

func (s *Store) AddBookTaxonomy(assoc *model.BookTaxonomy) error {
	stmt := `
        INSERT INTO book_genres (
            book_id, genre_id, rank, importance
        ) VALUES (?,?,?,?)`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	if _, err := s.db.Exec(stmt, assoc.BookID, assoc.TaxonomyID, assoc.Rank, assoc.Importance); err != nil {
		return err
	}
	return nil
}

// ListBookTaxonomies returns a book's associations joined with the
// vocabulary, ordered by rank. This is the shape the push path exports.
func (s *Store) ListBookTaxonomies(bookID int) ([]*model.BookTaxonomy, error) {
	query := `
        SELECT
            bg.book_id,
            g.id,
            bg.rank,
            bg.importance,
            g.name,
            g.type,
            g.description
        FROM book_genres bg
        JOIN genres g ON bg.genre_id = g.id
        WHERE bg.book_id = ?
        ORDER BY bg.rank`

	rows, err := s.db.Query(query, bookID)
	if err != nil {
		log.Error("Failed to query book taxonomies", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.BookTaxonomy, 0)
	for rows.Next() {
		var assoc model.BookTaxonomy
		var description sql.NullString
		if err := rows.Scan(
			&assoc.BookID,
			&assoc.TaxonomyID,
			&assoc.Rank,
			&assoc.Importance,
			&assoc.Name,
			&assoc.Type,
			&description,
		); err != nil {
			log.Error("Failed to scan book taxonomy", zap.Error(err))
			return nil, err
		}
		assoc.Description = description.String
		list = append(list, &assoc)
	}
	return list, rows.Err()
}

func (s *Store) CountBookTaxonomies(bookID int) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM book_genres WHERE book_id = ?`, bookID).Scan(&count)
	return count, err
}
