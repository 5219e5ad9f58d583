package model

// Well-known settings keys. Identity mappings share the same table under
// keys built by the sync package.
const (
	SettingCachedGenres      = "cached_genres"
	SettingGenresLastUpdated = "genres_last_updated"
	SettingIsPublisher       = "is_publisher"
	SettingPublisherID       = "publisher_id"
	SettingPublisherName     = "publisher_name"
	SettingPublisherDesc     = "publisher_description"
	SettingPublisherEmail    = "publisher_email"
	SettingPublisherWebsite  = "publisher_website"
)

type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
