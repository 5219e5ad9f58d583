package sync

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inkdesk/inkdesk/client"
	"github.com/inkdesk/inkdesk/model"
	"github.com/inkdesk/inkdesk/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newImageServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/media/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(onePixelPNG)
	})
	mux.HandleFunc("/empty.png", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestImageProcessor(t *testing.T, s *store.Store, baseURL string) (*ImageProcessor, string) {
	t.Helper()
	dir := t.TempDir()
	return NewImageProcessor(s, zap.NewNop(), baseURL, dir, 5*time.Second), dir
}

func TestDownloadImageMirrorsURLPath(t *testing.T) {
	s := newTestStore(t)
	srv := newImageServer(t)
	p, dir := newTestImageProcessor(t, s, srv.URL)

	path, err := p.DownloadImage("/media/covers/42.png", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "media", "covers", "42.png"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(onePixelPNG)), info.Size())

	// Downloading again overwrites the same file.
	again, err := p.DownloadImage("/media/covers/42.png", "")
	require.NoError(t, err)
	assert.Equal(t, path, again)
}

func TestDownloadImageFailures(t *testing.T) {
	s := newTestStore(t)
	srv := newImageServer(t)
	p, _ := newTestImageProcessor(t, s, srv.URL)

	_, err := p.DownloadImage("/missing.png", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code")

	// A 200 with no bytes is still a failure.
	_, err = p.DownloadImage("/empty.png", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content")
}

func TestDownloadAuthorImageRecordsPath(t *testing.T) {
	s := newTestStore(t)
	srv := newImageServer(t)
	p, _ := newTestImageProcessor(t, s, srv.URL)

	author, err := s.AddAuthor(&model.Author{Name: "Jane Doe", ImageURL: "/media/authors/jane.png"})
	require.NoError(t, err)

	path, err := p.DownloadAuthorImage(author.ID, author.ImageURL)
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	got, err := s.GetAuthor(&model.FindAuthor{ID: &author.ID})
	require.NoError(t, err)
	assert.Equal(t, path, got.LocalImagePath)

	_, err = p.DownloadAuthorImage(author.ID, "")
	require.Error(t, err)
}

func TestProcessBookImagesDeduplicatesByURL(t *testing.T) {
	s := newTestStore(t)
	srv := newImageServer(t)
	p, _ := newTestImageProcessor(t, s, srv.URL)

	author, err := s.AddAuthor(&model.Author{Name: "Jane Doe"})
	require.NoError(t, err)
	book, err := s.AddBook(&model.Book{Title: "Dunes of Glass", AuthorID: &author.ID})
	require.NoError(t, err)

	payload := []client.ImagePayload{{URL: "/media/covers/42.png"}}
	result := p.ProcessBookImages(payload, book.ID)
	assert.True(t, result.Ok())
	result = p.ProcessBookImages(payload, book.ID)
	assert.True(t, result.Ok())

	images, err := s.ListImages(&model.FindImage{BookID: &book.ID})
	require.NoError(t, err)
	require.Len(t, images, 1, "same URL must not create a second row")

	// Dimensions were measured from the downloaded file.
	assert.Equal(t, 1, images[0].Width)
	assert.Equal(t, 1, images[0].Height)
}

func TestBatchDownloadBookImages(t *testing.T) {
	s := newTestStore(t)
	srv := newImageServer(t)
	p, _ := newTestImageProcessor(t, s, srv.URL)

	author, err := s.AddAuthor(&model.Author{Name: "Jane Doe"})
	require.NoError(t, err)
	book, err := s.AddBook(&model.Book{Title: "Dunes of Glass", AuthorID: &author.ID})
	require.NoError(t, err)

	_, err = s.AddImage(&model.Image{BookID: book.ID, URL: "/media/covers/42.png"})
	require.NoError(t, err)
	_, err = s.AddImage(&model.Image{BookID: book.ID, URL: "/missing.png"})
	require.NoError(t, err)

	tally := p.BatchDownloadBookImages()
	assert.Equal(t, 1, tally.Success)
	assert.Equal(t, 1, tally.Failed)
	require.Len(t, tally.FailedList, 1)
	assert.NotEmpty(t, tally.FailedList[0].Err)

	// Only the failed image still needs a download.
	pending, err := s.ListImages(&model.FindImage{NeedsDownload: true})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "/missing.png", pending[0].URL)
}
