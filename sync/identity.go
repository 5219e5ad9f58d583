package sync

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inkdesk/inkdesk/store"
	"go.uber.org/zap"
)

// Entity types with identity mappings.
const (
	EntityAuthor = "author"
	EntityBook   = "book"
)

// Identity bridges remote API ids and local primary keys. The two id spaces
// are assigned independently; the mapping is what keeps an entity pinned to
// the same local row across repeated pulls. Mappings are persisted as
// settings rows and never expire.
type Identity struct {
	store  *store.Store
	logger *zap.Logger
}

func NewIdentity(s *store.Store, logger *zap.Logger) *Identity {
	return &Identity{store: s, logger: logger}
}

func mappingKey(entityType string, remoteID int) string {
	return fmt.Sprintf("%s_api_id_%d", entityType, remoteID)
}

// Record persists a remote-to-local mapping. A failed write is only a
// warning: the entity may be re-inserted instead of updated on the next
// pull, which duplicates rather than loses data.
func (i *Identity) Record(entityType string, remoteID, localID int) {
	key := mappingKey(entityType, remoteID)
	if err := i.store.SetSetting(key, strconv.Itoa(localID)); err != nil {
		i.logger.Warn("Failed to store identity mapping",
			zap.String("key", key),
			zap.Int("local_id", localID),
			zap.Error(err))
	}
}

// Resolve looks up the local id recorded for a remote id.
func (i *Identity) Resolve(entityType string, remoteID int) (int, bool) {
	if remoteID == 0 {
		return 0, false
	}
	key := mappingKey(entityType, remoteID)
	value, err := i.store.GetSetting(key, "")
	if err != nil || value == "" {
		return 0, false
	}
	localID, err := strconv.Atoi(value)
	if err != nil {
		i.logger.Error("Invalid local id in identity mapping",
			zap.String("key", key),
			zap.String("value", value))
		return 0, false
	}
	return localID, true
}

// ResolveRemote walks the mappings backwards, answering which remote id a
// local row was pulled from. Locally created rows have none.
func (i *Identity) ResolveRemote(entityType string, localID int) (int, bool) {
	settings, err := i.store.ListSettings()
	if err != nil {
		return 0, false
	}
	prefix := entityType + "_api_id_"
	want := strconv.Itoa(localID)
	for _, setting := range settings {
		if !strings.HasPrefix(setting.Key, prefix) || setting.Value != want {
			continue
		}
		remoteID, err := strconv.Atoi(strings.TrimPrefix(setting.Key, prefix))
		if err != nil {
			continue
		}
		return remoteID, true
	}
	return 0, false
}
