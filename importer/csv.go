package importer

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/inkdesk/inkdesk/model"
	"github.com/inkdesk/inkdesk/sync"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// listSeparator splits multi-valued CSV cells (formats, awards, taxonomy
// names). Semicolons keep commas free for the CSV itself.
const listSeparator = ";"

// ImportCSV reads a header-driven CSV file of books. Required columns are
// title and author; everything else is optional. Multi-valued columns hold
// semicolon-separated entries. Row failures are collected per row and the
// import continues.
func (im *Importer) ImportCSV(path string) (*sync.BatchResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	job := im.recordJobStart()
	result := sync.NewBatchResult()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		im.finishJob(job, result)
		return result, errors.Wrap(err, "failed to read CSV header")
	}
	columns := map[string]int{}
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["title"]; !ok {
		im.finishJob(job, result)
		return result, errors.New("CSV has no title column")
	}
	if _, ok := columns["author"]; !ok {
		im.finishJob(job, result)
		return result, errors.New("CSV has no author column")
	}

	rowNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		ref := "row " + strconv.Itoa(rowNum)
		if err != nil {
			result.AddFailure(ref, err)
			continue
		}

		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		cells := func(name string) []string {
			raw := cell(name)
			if raw == "" {
				return nil
			}
			parts := strings.Split(raw, listSeparator)
			out := make([]string, 0, len(parts))
			for _, part := range parts {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			return out
		}

		record := &model.Book{
			Title:         cell("title"),
			Description:   cell("description"),
			PublishDate:   cell("published_date"),
			ISBN:          cell("isbn"),
			ASIN:          cell("asin"),
			Language:      cell("language"),
			Series:        cell("series"),
			Setting:       cell("setting"),
			OriginalTitle: cell("original_title"),
			Formats:       cells("formats"),
			Awards:        cells("awards"),
			Characters:    cells("characters"),
			ReferralLinks: cells("referral_links"),
		}
		if raw := cell("page_count"); raw != "" {
			count, err := strconv.Atoi(raw)
			if err != nil {
				result.AddFailure(ref, errors.Errorf("invalid page count %q", raw))
				continue
			}
			record.PageCount = count
		}

		if record.Title != "" {
			ref = record.Title
		}
		bookID, err := im.ImportBook(record, cell("author"))
		if err != nil {
			im.logger.Warn("Failed to import CSV row",
				zap.Int("row", rowNum),
				zap.Error(err))
			result.AddFailure(ref, err)
			continue
		}

		names := map[string][]string{
			model.TaxonomyGenre:    cells("genres"),
			model.TaxonomySubgenre: cells("subgenres"),
			model.TaxonomyTheme:    cells("themes"),
			model.TaxonomyTrope:    cells("tropes"),
		}
		if err := im.attachTaxonomies(bookID, names); err != nil {
			im.logger.Warn("Failed to attach taxonomies for imported book",
				zap.String("title", record.Title),
				zap.Error(err))
			result.AddFailure(ref, errors.Wrap(err, "taxonomies"))
			continue
		}
		result.AddSuccess(ref)
	}

	im.logger.Info("CSV import completed",
		zap.String("path", path),
		zap.String("summary", result.Summary()))
	im.finishJob(job, result)
	return result, nil
}
