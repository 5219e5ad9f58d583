package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/inkdesk/inkdesk/log"
	"github.com/inkdesk/inkdesk/model"
	"go.uber.org/zap"
)

func (s *Store) GetImage(find *model.FindImage) (*model.Image, error) {
	list, err := s.ListImages(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) ListImages(find *model.FindImage) ([]*model.Image, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.BookID; v != nil {
		where, args = append(where, "book_id = ?"), append(args, *v)
	}
	if v := find.URL; v != nil {
		where, args = append(where, "image_url = ?"), append(args, *v)
	}
	if find.NeedsDownload {
		where = append(where, "image_url IS NOT NULL AND image_url != ''")
		where = append(where, "(local_file_path IS NULL OR local_file_path = '')")
	}

	query := `
        SELECT
            id,
            book_id,
            image_url,
            width,
            height,
            size_kb,
            local_file_path,
            created_ts,
            updated_ts
        FROM images
        WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Error("Failed to query images", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Image, 0)
	for rows.Next() {
		var image model.Image
		var url, localPath sql.NullString
		var createdTs, updatedTs sql.NullInt64
		if err := rows.Scan(
			&image.ID,
			&image.BookID,
			&url,
			&image.Width,
			&image.Height,
			&image.SizeKb,
			&localPath,
			&createdTs,
			&updatedTs,
		); err != nil {
			log.Error("Failed to scan image", zap.Error(err))
			return nil, err
		}
		image.URL = url.String
		image.LocalFilePath = localPath.String
		image.CreatedTs = createdTs.Int64
		image.UpdatedTs = updatedTs.Int64
		list = append(list, &image)
	}
	return list, rows.Err()
}

func (s *Store) AddImage(image *model.Image) (*model.Image, error) {
	now := time.Now().Unix()
	stmt := `
        INSERT INTO images (
            book_id, image_url, width, height, size_kb, local_file_path, created_ts, updated_ts
        ) VALUES (?,?,?,?,?,?,?,?)
        RETURNING id`
	args := []any{
		image.BookID,
		image.URL,
		image.Width,
		image.Height,
		image.SizeKb,
		image.LocalFilePath,
		now,
		now,
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := tx.QueryRow(stmt, args...).Scan(&image.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	image.CreatedTs = now
	image.UpdatedTs = now
	return image, nil
}

func (s *Store) UpdateImage(image *model.Image) error {
	now := time.Now().Unix()
	stmt := `
        UPDATE images SET
            image_url = ?,
            width = ?,
            height = ?,
            size_kb = ?,
            local_file_path = ?,
            updated_ts = ?
        WHERE id = ?`
	args := []any{
		image.URL,
		image.Width,
		image.Height,
		image.SizeKb,
		image.LocalFilePath,
		now,
		image.ID,
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	if _, err := s.db.Exec(stmt, args...); err != nil {
		return err
	}
	image.UpdatedTs = now
	return nil
}

func (s *Store) RemoveImage(imageID int) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	_, err := s.db.Exec(`DELETE FROM images WHERE id = ?`, imageID)
	return err
}
