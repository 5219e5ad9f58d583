package store // import "github.com/inkdesk/inkdesk/store"

import (
	"database/sql"
	"sync"
)

type Store struct {
	db           *sql.DB
	dbLock       sync.Mutex // dbLock serializes write transactions
	AuthorCache  sync.Map   // map[int]*model.Author
	BookCache    sync.Map   // map[int]*model.Book
	SettingCache sync.Map   // map[string]*model.Setting
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db: db,
	}
}

func (s *Store) DBStats() sql.DBStats {
	return s.db.Stats()
}

func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) Close() error {
	return s.db.Close()
}
