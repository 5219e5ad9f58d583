package sync

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/inkdesk/inkdesk/client"
	"github.com/inkdesk/inkdesk/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPushUploadsAuthorsThenBooks(t *testing.T) {
	s := newTestStore(t)

	author, err := s.AddAuthor(&model.Author{Name: "Jane Doe"})
	require.NoError(t, err)
	_, err = s.AddBook(&model.Book{Title: "Dunes of Glass", AuthorID: &author.ID})
	require.NoError(t, err)

	var authorUploads, bookUploads int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/publisher/author", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&authorUploads, 1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/publisher/book", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, int32(1), atomic.LoadInt32(&authorUploads), "books must not upload before authors")
		atomic.AddInt32(&bookUploads, 1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/catalogue/author", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, testCatalogue())
	})
	mux.HandleFunc("/api/genres", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, testVocabulary())
	})
	mux.HandleFunc("/media/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(onePixelPNG)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newSessionClient(t, srv.URL)
	syncer := NewSynchronizer(s, c, t.TempDir(), 5*time.Second, zap.NewNop())
	pusher := NewPusher(s, c, syncer, zap.NewNop())

	result, err := pusher.Push()
	require.NoError(t, err)
	assert.True(t, result.Authors.Ok())
	assert.True(t, result.Books.Ok())
	assert.Equal(t, int32(1), atomic.LoadInt32(&authorUploads))
	assert.Equal(t, int32(1), atomic.LoadInt32(&bookUploads))

	// The reconciling pull ran and recorded identity mappings.
	require.NotNil(t, result.Pull)
	_, ok := syncer.Identity().Resolve(EntityAuthor, 7)
	assert.True(t, ok)

	assert.False(t, pusher.IsSyncing())
}

func TestPushAuthorFailureStopsBooks(t *testing.T) {
	s := newTestStore(t)

	author, err := s.AddAuthor(&model.Author{Name: "Jane Doe"})
	require.NoError(t, err)
	_, err = s.AddBook(&model.Book{Title: "Dunes of Glass", AuthorID: &author.ID})
	require.NoError(t, err)

	var bookUploads int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/publisher/author", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"message": "author bio is too long",
			"status":  "invalid",
		})
	})
	mux.HandleFunc("/api/publisher/book", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&bookUploads, 1)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newSessionClient(t, srv.URL)
	syncer := NewSynchronizer(s, c, t.TempDir(), time.Second, zap.NewNop())
	pusher := NewPusher(s, c, syncer, zap.NewNop())

	result, err := pusher.Push()
	require.Error(t, err)
	// The server's own message surfaces in the failure.
	assert.Contains(t, err.Error(), "author bio is too long")
	assert.False(t, result.Authors.Ok())
	assert.Equal(t, int32(0), atomic.LoadInt32(&bookUploads), "book phase must not start")
	assert.Nil(t, result.Pull)

	jobs, err := s.ListSyncJobs(0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, model.JobStatusFailed, jobs[0].Status)

	assert.False(t, pusher.IsSyncing(), "flag must release on the failure path")
}

func TestPushBookCarriesTaxonomies(t *testing.T) {
	s := newTestStore(t)

	author, err := s.AddAuthor(&model.Author{Name: "Jane Doe"})
	require.NoError(t, err)
	book, err := s.AddBook(&model.Book{Title: "Dunes of Glass", AuthorID: &author.ID})
	require.NoError(t, err)
	_, err = s.UpsertGenre(&model.Genre{ID: 1, Name: "Fantasy", Type: model.TaxonomyGenre})
	require.NoError(t, err)
	require.NoError(t, s.AddBookTaxonomy(&model.BookTaxonomy{
		BookID: book.ID, TaxonomyID: 1, Rank: 1, Importance: 1.0,
	}))

	var uploaded client.BookPayload
	mux := http.NewServeMux()
	mux.HandleFunc("/api/publisher/author", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/publisher/book", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&uploaded))
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/catalogue/author", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []client.CatalogueEntry{})
	})
	mux.HandleFunc("/api/genres", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, testVocabulary())
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newSessionClient(t, srv.URL)
	syncer := NewSynchronizer(s, c, t.TempDir(), time.Second, zap.NewNop())
	pusher := NewPusher(s, c, syncer, zap.NewNop())

	_, err = pusher.Push()
	require.NoError(t, err)

	require.Len(t, uploaded.GenreTaxonomies, 1)
	assert.Equal(t, 1, uploaded.GenreTaxonomies[0].TaxonomyID)
	assert.Equal(t, "Fantasy", uploaded.GenreTaxonomies[0].Name)
}

func TestPushMutualExclusion(t *testing.T) {
	s := newTestStore(t)
	srv := newCatalogueServer(t)

	c := newSessionClient(t, srv.URL)
	syncer := NewSynchronizer(s, c, t.TempDir(), time.Second, zap.NewNop())
	pusher := NewPusher(s, c, syncer, zap.NewNop())

	require.NoError(t, pusher.acquire())
	_, err := pusher.Push()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	pusher.release()
	assert.False(t, pusher.IsSyncing())
}

func TestPushRequiresSession(t *testing.T) {
	s := newTestStore(t)
	srv := newCatalogueServer(t)

	c, err := client.NewClient(srv.URL)
	require.NoError(t, err)
	syncer := NewSynchronizer(s, c, t.TempDir(), time.Second, zap.NewNop())
	pusher := NewPusher(s, c, syncer, zap.NewNop())

	_, err = pusher.Push()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
	assert.False(t, pusher.IsSyncing())
}
