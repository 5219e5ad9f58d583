package store

import (
	"database/sql"

	"github.com/inkdesk/inkdesk/log"
	"github.com/inkdesk/inkdesk/model"
	"go.uber.org/zap"
)

func (s *Store) AddPublisher(publisher *model.Publisher) (*model.Publisher, error) {
	if pID, ok := s.CheckPublisher(publisher.Name); ok {
		publisher.ID = pID
		return publisher, s.updatePublisher(publisher)
	}

	stmt := `
        INSERT INTO publishers (
            user_id, name, description, business_email, business_phone, business_address, website, logo_url
        ) VALUES (?,?,?,?,?,?,?,?)
        RETURNING id`
	args := []any{
		publisher.UserID,
		publisher.Name,
		publisher.Description,
		publisher.Email,
		publisher.Phone,
		publisher.Address,
		publisher.Website,
		publisher.LogoURL,
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := tx.QueryRow(stmt, args...).Scan(&publisher.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return publisher, nil
}

func (s *Store) updatePublisher(publisher *model.Publisher) error {
	stmt := `
        UPDATE publishers SET
            user_id = ?,
            description = ?,
            business_email = ?,
            business_phone = ?,
            business_address = ?,
            website = ?,
            logo_url = ?
        WHERE id = ?`
	args := []any{
		publisher.UserID,
		publisher.Description,
		publisher.Email,
		publisher.Phone,
		publisher.Address,
		publisher.Website,
		publisher.LogoURL,
		publisher.ID,
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	_, err := s.db.Exec(stmt, args...)
	return err
}

func (s *Store) ListPublishers() ([]*model.Publisher, error) {
	query := `
        SELECT
            id, user_id, name, description, business_email, business_phone, business_address, website, logo_url
        FROM publishers
        ORDER BY name`

	rows, err := s.db.Query(query)
	if err != nil {
		log.Error("Failed to query publishers", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Publisher, 0)
	for rows.Next() {
		var publisher model.Publisher
		var userID sql.NullInt64
		var name, description, email, phone, address, website, logoURL sql.NullString
		if err := rows.Scan(
			&publisher.ID,
			&userID,
			&name,
			&description,
			&email,
			&phone,
			&address,
			&website,
			&logoURL,
		); err != nil {
			log.Error("Failed to scan publisher", zap.Error(err))
			return nil, err
		}
		if userID.Valid {
			uid := int(userID.Int64)
			publisher.UserID = &uid
		}
		publisher.Name = name.String
		publisher.Description = description.String
		publisher.Email = email.String
		publisher.Phone = phone.String
		publisher.Address = address.String
		publisher.Website = website.String
		publisher.LogoURL = logoURL.String
		list = append(list, &publisher)
	}
	return list, rows.Err()
}

func (s *Store) CheckPublisher(name string) (int, bool) {
	stmt := `SELECT id FROM publishers WHERE name = ?`

	var publisherID int
	if err := s.db.QueryRow(stmt, name).Scan(&publisherID); err != nil {
		return 0, false
	}
	return publisherID, true
}
