package client

// Remote payload shapes. Field names follow the catalogue service's JSON;
// the sync package maps them onto local records at the boundary.

type UserPayload struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type AuthorPayload struct {
	ID        int          `json:"id"`
	Name      string       `json:"author_name"`
	ImageURL  string       `json:"author_image_url"`
	BirthDate string       `json:"birth_date"`
	DeathDate string       `json:"death_date"`
	Website   string       `json:"website"`
	Bio       string       `json:"bio"`
	User      *UserPayload `json:"user,omitempty"`
}

type ImagePayload struct {
	ID        int    `json:"id"`
	URL       string `json:"imageUrl"`
	ImageType string `json:"imageType"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeKb    int    `json:"sizeKb"`
}

type GenrePayload struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	ParentID    *int   `json:"parentId"`
}

type TaxonomyPayload struct {
	TaxonomyID  int     `json:"taxonomyId"`
	Rank        int     `json:"rank"`
	Importance  float64 `json:"importance"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
}

type BookPayload struct {
	ID                 int               `json:"id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	PageCount          int               `json:"pageCount"`
	PublishedDate      string            `json:"publishedDate"`
	ISBN               string            `json:"isbn"`
	ASIN               string            `json:"asin"`
	AuthorID           int               `json:"authorId"`
	AuthorName         string            `json:"authorName"`
	AuthorImageURL     string            `json:"authorImageUrl"`
	Promoted           bool              `json:"promoted"`
	Awards             []string          `json:"awards"`
	Setting            string            `json:"setting"`
	Formats            []string          `json:"formats"`
	OriginalTitle      string            `json:"originalTitle"`
	Series             string            `json:"series"`
	Characters         []string          `json:"characters"`
	Language           string            `json:"language"`
	ReferralLinks      []string          `json:"referralLinks"`
	ImpressionCount    int               `json:"impressionCount"`
	ClickThroughCount  int               `json:"clickThroughCount"`
	LastImpressionAt   string            `json:"lastImpressionAt"`
	LastClickThroughAt string            `json:"lastClickThroughAt"`
	InternalDetails    map[string]any    `json:"internal_details"`
	Images             []ImagePayload    `json:"images,omitempty"`
	Genres             []TaxonomyPayload `json:"genres,omitempty"`
	GenreTaxonomies    []TaxonomyPayload `json:"genreTaxonomies,omitempty"`
}

type PublisherPayload struct {
	ID          int    `json:"id"`
	UserID      *int   `json:"userId"`
	Name        string `json:"name"`
	Description string `json:"publisher_description"`
	Email       string `json:"business_email"`
	Phone       string `json:"business_phone"`
	Address     string `json:"business_address"`
	Website     string `json:"website"`
	LogoURL     string `json:"logoUrl"`
}

// CatalogueEntry is one author with their books, the author-catalogue shape.
type CatalogueEntry struct {
	Author AuthorPayload `json:"author"`
	Books  []BookPayload `json:"books"`
}

// PublisherEntry nests a publisher over its catalogue of authors.
type PublisherEntry struct {
	Publisher PublisherPayload `json:"publisher"`
	Catalogue []CatalogueEntry `json:"catalogue"`
}
