package store

import (
	"database/sql"
	"time"

	"github.com/inkdesk/inkdesk/model"
	"github.com/pkg/errors"
)

// GetSetting returns the stored value for key, or def when the key is
// absent.
func (s *Store) GetSetting(key, def string) (string, error) {
	if cache, ok := s.SettingCache.Load(key); ok {
		return cache.(*model.Setting).Value, nil
	}

	stmt := `SELECT value FROM user_settings WHERE key = ?`
	var value string
	if err := s.db.QueryRow(stmt, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return def, nil
		}
		return def, errors.Wrapf(err, "failed to get setting %q", key)
	}

	s.SettingCache.Store(key, &model.Setting{Key: key, Value: value})
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	if key == "" {
		return errors.New("setting key cannot be empty")
	}

	stmt := `
        INSERT INTO user_settings (
            key, value, updated_ts
        ) VALUES (?,?,?)
        ON CONFLICT(key) DO UPDATE
        SET
            value = EXCLUDED.value,
            updated_ts = EXCLUDED.updated_ts`

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	if _, err := s.db.Exec(stmt, key, value, time.Now().Unix()); err != nil {
		return errors.Wrapf(err, "failed to set setting %q", key)
	}
	s.SettingCache.Store(key, &model.Setting{Key: key, Value: value})
	return nil
}

func (s *Store) ListSettings() ([]*model.Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM user_settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Setting, 0)
	for rows.Next() {
		var setting model.Setting
		if err := rows.Scan(&setting.Key, &setting.Value); err != nil {
			return nil, err
		}
		list = append(list, &setting)
	}
	return list, rows.Err()
}
