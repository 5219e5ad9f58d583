package model

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Book formats accepted by the catalogue.
const (
	FormatDigital   = "digital"
	FormatSoftback  = "softback"
	FormatHardback  = "hardback"
	FormatAudiobook = "audiobook"
)

var knownFormats = map[string]bool{
	FormatDigital:   true,
	FormatSoftback:  true,
	FormatHardback:  true,
	FormatAudiobook: true,
}

type Book struct {
	ID                 int            `json:"id"`
	Title              string         `json:"title"`
	Author             string         `json:"author"`
	AuthorID           *int           `json:"authorId"`
	Description        string         `json:"description"`
	AuthorImageURL     string         `json:"authorImageUrl"`
	Promoted           bool           `json:"promoted"`
	PageCount          int            `json:"pageCount"`
	Formats            []string       `json:"formats"`
	PublishDate        string         `json:"publishedDate"`
	Awards             []string       `json:"awards"`
	OriginalTitle      string         `json:"originalTitle"`
	Series             string         `json:"series"`
	Setting            string         `json:"setting"`
	Characters         []string       `json:"characters"`
	ISBN               string         `json:"isbn"`
	ASIN               string         `json:"asin"`
	Language           string         `json:"language"`
	ReferralLinks      []string       `json:"referralLinks"`
	ImpressionCount    int            `json:"impressionCount"`
	ClickThroughCount  int            `json:"clickThroughCount"`
	LastImpressionAt   string         `json:"lastImpressionAt"`
	LastClickThroughAt string         `json:"lastClickThroughAt"`
	InternalDetails    map[string]any `json:"internal_details"`
}

type FindBook struct {
	ID       *int    `json:"id"`
	Title    *string `json:"title"`
	AuthorID *int    `json:"authorId"`
	OrderBy  *string `json:"order_by"`
	Limit    *int    `json:"limit"`
}

// Validate checks the fields a manually created or imported book must carry.
// The pull path is more forgiving and only requires a title.
func (b *Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return errors.New("book must have a title")
	}
	if b.PublishDate == "" {
		return errors.New("book must have a publish date")
	}
	if len(b.Formats) == 0 {
		return errors.New("book must have at least one format")
	}
	for _, f := range b.Formats {
		if !knownFormats[f] {
			return errors.Errorf("unknown book format: %q", f)
		}
	}
	if b.PageCount < 0 {
		return errors.New("page count must not be negative")
	}
	return nil
}

// EncodeList serializes a list-valued field to the flat text encoding the
// relational layer stores.
func EncodeList(values []string) string {
	if len(values) == 0 {
		return ""
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return strings.Join(values, ",")
	}
	return string(raw)
}

// DecodeList restores a list-valued field from its stored text. Malformed
// text degrades to a comma split, then to a single-element list, never to an
// error.
func DecodeList(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err == nil {
		return values
	}
	if strings.Contains(raw, ",") {
		return strings.Split(raw, ",")
	}
	return []string{raw}
}

// EncodeDetails serializes the free-form internal_details object.
func EncodeDetails(details map[string]any) string {
	if len(details) == 0 {
		return ""
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return ""
	}
	return string(raw)
}

// DecodeDetails restores internal_details, returning an empty map when the
// stored text is blank or malformed.
func DecodeDetails(raw string) map[string]any {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}
	}
	details := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return map[string]any{}
	}
	return details
}
