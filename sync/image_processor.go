package sync

import (
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Decoders registered for dimension measurement.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/chai2010/webp"

	"github.com/google/uuid"
	"github.com/inkdesk/inkdesk/client"
	"github.com/inkdesk/inkdesk/model"
	"github.com/inkdesk/inkdesk/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ImageProcessor resolves remote image references into image records and
// downloaded files. Downloads run sequentially with a bounded per-request
// timeout; every failure mode is reduced to an error return, never a panic
// past this boundary.
type ImageProcessor struct {
	store      *store.Store
	logger     *zap.Logger
	baseURL    string
	basePath   string
	httpClient *http.Client
}

func NewImageProcessor(s *store.Store, logger *zap.Logger, baseURL, basePath string, timeout time.Duration) *ImageProcessor {
	return &ImageProcessor{
		store:    s,
		logger:   logger,
		baseURL:  strings.TrimRight(baseURL, "/"),
		basePath: basePath,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *ImageProcessor) resolveURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return p.baseURL + "/" + strings.TrimLeft(raw, "/")
}

// savePathFor mirrors the URL's path component under the data directory so
// repeated downloads land on the same file.
func (p *ImageProcessor) savePathFor(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || strings.Trim(parsed.Path, "/") == "" {
		return filepath.Join(p.basePath, "images", uuid.New().String())
	}
	return filepath.Join(p.basePath, filepath.FromSlash(strings.TrimLeft(parsed.Path, "/")))
}

// DownloadImage streams one remote image to disk and returns the local
// path. An empty savePath derives one from the URL.
func (p *ImageProcessor) DownloadImage(rawURL, savePath string) (string, error) {
	fullURL := p.resolveURL(rawURL)
	if savePath == "" {
		savePath = p.savePathFor(fullURL)
	}

	if err := os.MkdirAll(filepath.Dir(savePath), 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create directory for %s", savePath)
	}

	resp, err := p.httpClient.Get(fullURL)
	if err != nil {
		return "", errors.Wrapf(err, "failed to download image from %s", fullURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("failed to download image, status code: %d", resp.StatusCode)
	}

	out, err := os.Create(savePath)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create file %s", savePath)
	}
	_, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		return "", errors.Wrapf(copyErr, "failed to write image to %s", savePath)
	}
	if closeErr != nil {
		return "", errors.Wrapf(closeErr, "failed to close image file %s", savePath)
	}

	info, err := os.Stat(savePath)
	if err != nil || info.Size() == 0 {
		return "", errors.Errorf("file created but has no content: %s", savePath)
	}

	p.logger.Debug("Image downloaded", zap.String("url", fullURL), zap.String("path", savePath))
	return savePath, nil
}

// measure reads the image header for dimensions and the file size in KB.
func measure(path string) (width, height, sizeKb int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, 0, errors.Wrap(err, "failed to decode image header")
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, 0, err
	}
	return cfg.Width, cfg.Height, int(info.Size() / 1024), nil
}

// DownloadAuthorImage fetches an author's profile picture and records the
// local path on the author row. The path is returned even when the row
// update fails: the file exists, the metadata write is best effort.
func (p *ImageProcessor) DownloadAuthorImage(authorID int, imageURL string) (string, error) {
	if imageURL == "" {
		return "", errors.New("no image URL provided")
	}

	localPath, err := p.DownloadImage(imageURL, "")
	if err != nil {
		return "", err
	}

	if err := p.store.UpdateAuthorImagePath(authorID, localPath); err != nil {
		p.logger.Error("Failed to record author image path",
			zap.Int("author_id", authorID),
			zap.String("path", localPath),
			zap.Error(err))
	}
	return localPath, nil
}

// DownloadBookImage fetches one book image, measures it, and updates the
// image record in place.
func (p *ImageProcessor) DownloadBookImage(img *model.Image) (string, error) {
	if img.URL == "" {
		return "", errors.New("no image URL provided")
	}

	localPath, err := p.DownloadImage(img.URL, "")
	if err != nil {
		return "", err
	}

	img.LocalFilePath = localPath
	if width, height, sizeKb, err := measure(localPath); err != nil {
		p.logger.Warn("Failed to measure image dimensions",
			zap.String("path", localPath),
			zap.Error(err))
	} else {
		img.Width = width
		img.Height = height
		img.SizeKb = sizeKb
	}

	if err := p.store.UpdateImage(img); err != nil {
		p.logger.Error("Failed to record book image path",
			zap.Int("image_id", img.ID),
			zap.String("path", localPath),
			zap.Error(err))
	}
	return localPath, nil
}

// ProcessBookImages resolves remote image references for a book into image
// rows, matching existing rows by (book, URL) so re-pulls never duplicate a
// download, then fetches each one.
func (p *ImageProcessor) ProcessBookImages(images []client.ImagePayload, bookLocalID int) *BatchResult {
	result := NewBatchResult()
	for _, payload := range images {
		ref := fmt.Sprintf("image %s", payload.URL)
		existing, err := p.store.GetImage(&model.FindImage{BookID: &bookLocalID, URL: &payload.URL})
		if err != nil {
			result.AddFailure(ref, err)
			continue
		}

		record := existing
		if record == nil {
			record, err = p.store.AddImage(&model.Image{
				BookID: bookLocalID,
				URL:    payload.URL,
				Width:  payload.Width,
				Height: payload.Height,
				SizeKb: payload.SizeKb,
			})
			if err != nil {
				result.AddFailure(ref, err)
				continue
			}
		} else {
			record.Width = payload.Width
			record.Height = payload.Height
			record.SizeKb = payload.SizeKb
			if err := p.store.UpdateImage(record); err != nil {
				result.AddFailure(ref, err)
				continue
			}
		}

		if _, err := p.DownloadBookImage(record); err != nil {
			p.logger.Warn("Failed to download book image",
				zap.Int("book_id", bookLocalID),
				zap.String("url", payload.URL),
				zap.Error(err))
			result.AddFailure(ref, err)
			continue
		}
		result.AddSuccess(ref)
	}
	return result
}

// BatchDownloadAuthorImages fetches every author image that has a remote
// URL but no local file yet. Re-running the pull is the retry mechanism for
// anything that fails here.
func (p *ImageProcessor) BatchDownloadAuthorImages() *Tally {
	tally := &Tally{}

	authors, err := p.store.ListAuthors(&model.FindAuthor{NeedsImage: true})
	if err != nil {
		p.logger.Error("Failed to list authors needing images", zap.Error(err))
		return tally
	}

	for _, author := range authors {
		detail := TallyDetail{ID: author.ID, Ref: author.Name, URL: author.ImageURL}
		localPath, err := p.DownloadAuthorImage(author.ID, author.ImageURL)
		if err != nil {
			p.logger.Error("Failed to download image for author",
				zap.String("author", author.Name),
				zap.Error(err))
			detail.Err = err.Error()
			tally.AddFailure(detail)
			continue
		}
		detail.LocalPath = localPath
		tally.AddSuccess(detail)
	}
	return tally
}

// BatchDownloadBookImages is the book-side counterpart of
// BatchDownloadAuthorImages.
func (p *ImageProcessor) BatchDownloadBookImages() *Tally {
	tally := &Tally{}

	images, err := p.store.ListImages(&model.FindImage{NeedsDownload: true})
	if err != nil {
		p.logger.Error("Failed to list images needing download", zap.Error(err))
		return tally
	}

	for _, img := range images {
		detail := TallyDetail{ID: img.ID, Ref: fmt.Sprintf("book %d", img.BookID), URL: img.URL}
		localPath, err := p.DownloadBookImage(img)
		if err != nil {
			p.logger.Error("Failed to download book image",
				zap.Int("book_id", img.BookID),
				zap.Error(err))
			detail.Err = err.Error()
			tally.AddFailure(detail)
			continue
		}
		detail.LocalPath = localPath
		tally.AddSuccess(detail)
	}
	return tally
}

// DownloadAll runs both batch phases and returns their tallies.
func (p *ImageProcessor) DownloadAll() (authors, books *Tally) {
	return p.BatchDownloadAuthorImages(), p.BatchDownloadBookImages()
}
