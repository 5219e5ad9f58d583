package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/inkdesk/inkdesk/log"
	"github.com/inkdesk/inkdesk/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const bookColumns = `
            id,
            title,
            author,
            author_id,
            description,
            author_image_url,
            promoted,
            page_count,
            formats,
            publish_date,
            awards,
            original_title,
            series,
            setting,
            characters,
            isbn,
            asin,
            language,
            referral_links,
            impression_count,
            click_through_count,
            last_impression_at,
            last_click_through_at,
            internal_details`

func (s *Store) GetBook(find *model.FindBook) (*model.Book, error) {
	if find.ID != nil {
		if cache, ok := s.BookCache.Load(*find.ID); ok {
			return cache.(*model.Book), nil
		}
	}

	list, err := s.ListBooks(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	book := list[0]
	s.BookCache.Store(book.ID, book)
	return book, nil
}

func (s *Store) ListBooks(find *model.FindBook) ([]*model.Book, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.Title; v != nil {
		where, args = append(where, "title = ?"), append(args, *v)
	}
	if v := find.AuthorID; v != nil {
		where, args = append(where, "author_id = ?"), append(args, *v)
	}

	orderBy := []string{"title"}
	if find.OrderBy != nil {
		orderBy = append(orderBy, *find.OrderBy)
	}

	query := `SELECT` + bookColumns + `
        FROM books
        WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + strings.Join(orderBy, ", ")
	if v := find.Limit; v != nil {
		query += fmt.Sprintf(" LIMIT %d", *v)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Error("Failed to query books", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			log.Error("Failed to scan book", zap.Error(err))
			return nil, err
		}
		list = append(list, book)
	}
	return list, rows.Err()
}

// scanBook maps one books row into a record, restoring the list-valued
// fields from their stored text encoding.
func scanBook(rows *sql.Rows) (*model.Book, error) {
	var book model.Book
	var authorID sql.NullInt64
	var author, description, authorImageURL, formats, publishDate, awards sql.NullString
	var originalTitle, series, setting, characters, isbn, asin, language sql.NullString
	var referralLinks, lastImpressionAt, lastClickThroughAt, internalDetails sql.NullString
	if err := rows.Scan(
		&book.ID,
		&book.Title,
		&author,
		&authorID,
		&description,
		&authorImageURL,
		&book.Promoted,
		&book.PageCount,
		&formats,
		&publishDate,
		&awards,
		&originalTitle,
		&series,
		&setting,
		&characters,
		&isbn,
		&asin,
		&language,
		&referralLinks,
		&book.ImpressionCount,
		&book.ClickThroughCount,
		&lastImpressionAt,
		&lastClickThroughAt,
		&internalDetails,
	); err != nil {
		return nil, err
	}
	if authorID.Valid {
		aid := int(authorID.Int64)
		book.AuthorID = &aid
	}
	book.Author = author.String
	book.Description = description.String
	book.AuthorImageURL = authorImageURL.String
	book.Formats = model.DecodeList(formats.String)
	book.PublishDate = publishDate.String
	book.Awards = model.DecodeList(awards.String)
	book.OriginalTitle = originalTitle.String
	book.Series = series.String
	book.Setting = setting.String
	book.Characters = model.DecodeList(characters.String)
	book.ISBN = isbn.String
	book.ASIN = asin.String
	book.Language = language.String
	book.ReferralLinks = model.DecodeList(referralLinks.String)
	book.LastImpressionAt = lastImpressionAt.String
	book.LastClickThroughAt = lastClickThroughAt.String
	book.InternalDetails = model.DecodeDetails(internalDetails.String)
	return &book, nil
}

func bookArgs(book *model.Book) []any {
	return []any{
		book.Title,
		book.Author,
		book.AuthorID,
		book.Description,
		book.AuthorImageURL,
		book.Promoted,
		book.PageCount,
		model.EncodeList(book.Formats),
		book.PublishDate,
		model.EncodeList(book.Awards),
		book.OriginalTitle,
		book.Series,
		book.Setting,
		model.EncodeList(book.Characters),
		book.ISBN,
		book.ASIN,
		book.Language,
		model.EncodeList(book.ReferralLinks),
		book.ImpressionCount,
		book.ClickThroughCount,
		book.LastImpressionAt,
		book.LastClickThroughAt,
		model.EncodeDetails(book.InternalDetails),
	}
}

func (s *Store) AddBook(book *model.Book) (*model.Book, error) {
	stmt := `
        INSERT INTO books (
            title,
            author,
            author_id,
            description,
            author_image_url,
            promoted,
            page_count,
            formats,
            publish_date,
            awards,
            original_title,
            series,
            setting,
            characters,
            isbn,
            asin,
            language,
            referral_links,
            impression_count,
            click_through_count,
            last_impression_at,
            last_click_through_at,
            internal_details
        ) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
        RETURNING id`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := tx.QueryRow(stmt, bookArgs(book)...).Scan(&book.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.BookCache.Store(book.ID, book)
	return book, nil
}

func (s *Store) UpdateBook(book *model.Book) error {
	stmt := `
        UPDATE books SET
            title = ?,
            author = ?,
            author_id = ?,
            description = ?,
            author_image_url = ?,
            promoted = ?,
            page_count = ?,
            formats = ?,
            publish_date = ?,
            awards = ?,
            original_title = ?,
            series = ?,
            setting = ?,
            characters = ?,
            isbn = ?,
            asin = ?,
            language = ?,
            referral_links = ?,
            impression_count = ?,
            click_through_count = ?,
            last_impression_at = ?,
            last_click_through_at = ?,
            internal_details = ?
        WHERE id = ?`
	args := append(bookArgs(book), book.ID)

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
	s.BookCache.Delete(book.ID)
	return nil
}

// RemoveBook deletes a book. The delete is refused while taxonomy
// associations or images still reference the book.
func (s *Store) RemoveBook(bookID int) error {
	var genreCount, imageCount int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM book_genres WHERE book_id = ?`, bookID).Scan(&genreCount); err != nil {
		return err
	}
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM images WHERE book_id = ?`, bookID).Scan(&imageCount); err != nil {
		return err
	}
	if genreCount > 0 || imageCount > 0 {
		return errors.Errorf("book %d still has %d taxonomy association(s) and %d image(s)", bookID, genreCount, imageCount)
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	if _, err := s.db.Exec(`DELETE FROM books WHERE id = ?`, bookID); err != nil {
		return err
	}
	s.BookCache.Delete(bookID)
	return nil
}

func (s *Store) CheckBook(bookID int) bool {
	stmt := `SELECT EXISTS(SELECT 1 FROM books WHERE id = ?)`

	var exists bool
	if err := s.db.QueryRow(stmt, bookID).Scan(&exists); err != nil {
		return false
	}
	return exists
}
