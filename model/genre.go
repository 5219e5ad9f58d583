package model

// Taxonomy types recognized in the shared vocabulary.
const (
	TaxonomyGenre    = "genre"
	TaxonomySubgenre = "subgenre"
	TaxonomyTheme    = "theme"
	TaxonomyTrope    = "trope"
)

type Genre struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	ParentID    *int   `json:"parentId"`
}

type FindGenre struct {
	ID   *int    `json:"id"`
	Type *string `json:"type"`
	Name *string `json:"name"`
}

// BookTaxonomy is one (book, genre) association with its user-assigned rank
// and the importance derived from it. Name, Type and Description are joined
// in from the genres table when the association is read back for export.
type BookTaxonomy struct {
	BookID      int     `json:"bookId"`
	TaxonomyID  int     `json:"taxonomyId"`
	Rank        int     `json:"rank"`
	Importance  float64 `json:"importance"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
}
