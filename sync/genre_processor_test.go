package sync

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inkdesk/inkdesk/client"
	"github.com/inkdesk/inkdesk/model"
	"github.com/inkdesk/inkdesk/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestImportGenresUpsertsVocabulary(t *testing.T) {
	s := newTestStore(t)
	p := NewGenreProcessor(s, nil, zap.NewNop())

	result, err := p.ImportGenres(testVocabulary())
	require.NoError(t, err)
	assert.True(t, result.Ok())

	genres, err := s.ListGenres(&model.FindGenre{})
	require.NoError(t, err)
	assert.Len(t, genres, 3)
}

func TestSyncGenresRefreshesCache(t *testing.T) {
	s := newTestStore(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, testVocabulary())
	}))
	t.Cleanup(srv.Close)

	p := NewGenreProcessor(s, newSessionClient(t, srv.URL), zap.NewNop())
	require.NoError(t, p.SyncGenres())

	cached, err := s.GetSetting(model.SettingCachedGenres, "")
	require.NoError(t, err)
	var cachedGenres []client.GenrePayload
	require.NoError(t, json.Unmarshal([]byte(cached), &cachedGenres))
	assert.Len(t, cachedGenres, 3)

	stamp, err := s.GetSetting(model.SettingGenresLastUpdated, "")
	require.NoError(t, err)
	assert.NotEmpty(t, stamp)
}

func TestImportGenresRejectsEmptyInput(t *testing.T) {
	s := newTestStore(t)
	p := NewGenreProcessor(s, nil, zap.NewNop())

	_, err := p.ImportGenres(nil)
	require.Error(t, err)

	// An empty response never clobbers the cache.
	cached, err := s.GetSetting(model.SettingCachedGenres, "unset")
	require.NoError(t, err)
	assert.Equal(t, "unset", cached)
}

func TestSyncGenresFallsBackToCache(t *testing.T) {
	s := newTestStore(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	raw, err := json.Marshal(testVocabulary())
	require.NoError(t, err)
	require.NoError(t, s.SetSetting(model.SettingCachedGenres, string(raw)))
	require.NoError(t, s.SetSetting(model.SettingGenresLastUpdated, "2024-01-02T03:04:05Z"))

	p := NewGenreProcessor(s, newSessionClient(t, srv.URL), zap.NewNop())
	require.NoError(t, p.SyncGenres())

	genres, err := s.ListGenres(&model.FindGenre{})
	require.NoError(t, err)
	assert.Len(t, genres, 3)

	// Replaying the cache is not a fetch; the stamp stays where it was.
	stamp, err := s.GetSetting(model.SettingGenresLastUpdated, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02T03:04:05Z", stamp)
}

func TestSyncGenresFailsWithoutCache(t *testing.T) {
	s := newTestStore(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	p := NewGenreProcessor(s, newSessionClient(t, srv.URL), zap.NewNop())
	err := p.SyncGenres()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cached genre vocabulary")
}

func TestProcessBookTaxonomiesReplacesSet(t *testing.T) {
	s := newTestStore(t)
	p := NewGenreProcessor(s, nil, zap.NewNop())

	author, err := s.AddAuthor(&model.Author{Name: "Jane Doe"})
	require.NoError(t, err)
	book, err := s.AddBook(&model.Book{Title: "Dunes of Glass", AuthorID: &author.ID})
	require.NoError(t, err)
	_, err = p.ImportGenres(testVocabulary())
	require.NoError(t, err)

	first := []client.TaxonomyPayload{
		{TaxonomyID: 1, Rank: 1, Name: "Fantasy", Type: model.TaxonomyGenre},
		{TaxonomyID: 2, Rank: 1, Name: "Betrayal", Type: model.TaxonomyTheme},
	}
	result, err := p.ProcessBookTaxonomies(first, book.ID)
	require.NoError(t, err)
	assert.True(t, result.Ok())

	second := []client.TaxonomyPayload{
		{TaxonomyID: 3, Rank: 1, Name: "Found family", Type: model.TaxonomyTrope},
	}
	_, err = p.ProcessBookTaxonomies(second, book.ID)
	require.NoError(t, err)

	list, err := s.ListBookTaxonomies(book.ID)
	require.NoError(t, err)
	require.Len(t, list, 1, "a new set replaces the old one")
	assert.Equal(t, 3, list[0].TaxonomyID)
}

func TestProcessBookTaxonomiesCreatesUnknownVocabulary(t *testing.T) {
	s := newTestStore(t)
	p := NewGenreProcessor(s, nil, zap.NewNop())

	author, err := s.AddAuthor(&model.Author{Name: "Jane Doe"})
	require.NoError(t, err)
	book, err := s.AddBook(&model.Book{Title: "Dunes of Glass", AuthorID: &author.ID})
	require.NoError(t, err)

	payload := []client.TaxonomyPayload{
		{TaxonomyID: 77, Rank: 2, Name: "Slow burn", Type: model.TaxonomyTrope},
	}
	result, err := p.ProcessBookTaxonomies(payload, book.ID)
	require.NoError(t, err)
	assert.True(t, result.Ok())

	id := 77
	entry, err := s.GetGenre(&model.FindGenre{ID: &id})
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Slow burn", entry.Name)

	// Importance was absent in the payload, so it derives from the rank.
	list, err := s.ListBookTaxonomies(book.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.InDelta(t, taxonomy.Importance(2), list[0].Importance, 1e-9)
}

func TestProcessBookTaxonomiesIsolatesFailures(t *testing.T) {
	s := newTestStore(t)
	p := NewGenreProcessor(s, nil, zap.NewNop())

	author, err := s.AddAuthor(&model.Author{Name: "Jane Doe"})
	require.NoError(t, err)
	book, err := s.AddBook(&model.Book{Title: "Dunes of Glass", AuthorID: &author.ID})
	require.NoError(t, err)

	payload := []client.TaxonomyPayload{
		{TaxonomyID: 0, Rank: 1}, // no id, skipped
		{TaxonomyID: 5, Rank: 1, Name: "Fantasy", Type: model.TaxonomyGenre},
	}
	result, err := p.ProcessBookTaxonomies(payload, book.ID)
	require.NoError(t, err)
	assert.Len(t, result.Failed, 1)
	assert.Len(t, result.Succeeded, 1)

	list, err := s.ListBookTaxonomies(book.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSaveSelectionAppliesCompletenessGate(t *testing.T) {
	s := newTestStore(t)
	p := NewGenreProcessor(s, nil, zap.NewNop())

	author, err := s.AddAuthor(&model.Author{Name: "Jane Doe"})
	require.NoError(t, err)
	book, err := s.AddBook(&model.Book{Title: "Dunes of Glass", AuthorID: &author.ID})
	require.NoError(t, err)
	_, err = p.ImportGenres(testVocabulary())
	require.NoError(t, err)

	sel := taxonomy.NewSelection()
	require.NoError(t, sel.Add(&model.Genre{ID: 1, Name: "Fantasy", Type: model.TaxonomyGenre}))

	_, err = p.SaveSelection(sel, book.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 1 theme")

	// Nothing persisted while the gate holds.
	count, err := s.CountBookTaxonomies(book.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, sel.Add(&model.Genre{ID: 2, Name: "Betrayal", Type: model.TaxonomyTheme}))
	require.NoError(t, sel.Add(&model.Genre{ID: 3, Name: "Found family", Type: model.TaxonomyTrope}))

	result, err := p.SaveSelection(sel, book.ID)
	require.NoError(t, err)
	assert.True(t, result.Ok())

	count, err = s.CountBookTaxonomies(book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
