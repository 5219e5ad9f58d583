package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/inkdesk/inkdesk/config"
	"github.com/inkdesk/inkdesk/log"
	"github.com/inkdesk/inkdesk/store/db"
)

// Initialize the logger and config
func init() {
	config.Opts = config.GetDefaultOptions()
	config.Opts.Data = os.TempDir()
	log.Logger = log.NewLogger()
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	d, err := db.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Migrate(context.Background(), d); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	s := NewStore(d)
	t.Cleanup(func() { s.Close() })
	return s
}
