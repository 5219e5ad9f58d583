package store

import (
	"testing"

	"github.com/inkdesk/inkdesk/model"
)

func TestUpsertGenreKeepsRemoteID(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpsertGenre(&model.Genre{ID: 12, Name: "Fantasy", Type: model.TaxonomyGenre}); err != nil {
		t.Fatalf("Failed to upsert genre: %v", err)
	}
	// Same remote id again updates in place instead of duplicating.
	if _, err := s.UpsertGenre(&model.Genre{ID: 12, Name: "High Fantasy", Type: model.TaxonomyGenre}); err != nil {
		t.Fatalf("Failed to upsert genre twice: %v", err)
	}

	genres, err := s.ListGenres(&model.FindGenre{})
	if err != nil {
		t.Fatalf("Failed to list genres: %v", err)
	}
	if len(genres) != 1 {
		t.Fatalf("Expected 1 genre, got %d", len(genres))
	}
	if genres[0].ID != 12 || genres[0].Name != "High Fantasy" {
		t.Fatalf("Unexpected genre: %+v", genres[0])
	}
}

func TestUpsertGenreDefaultsType(t *testing.T) {
	s := newTestStore(t)

	genre, err := s.UpsertGenre(&model.Genre{ID: 5, Name: "Unclassified"})
	if err != nil {
		t.Fatalf("Failed to upsert genre: %v", err)
	}
	if genre.Type != model.TaxonomyGenre {
		t.Fatalf("Expected default type %q, got %q", model.TaxonomyGenre, genre.Type)
	}
}

func TestGetGenreByNameAndType(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.UpsertGenre(&model.Genre{ID: 1, Name: "Betrayal", Type: model.TaxonomyTheme}); err != nil {
		t.Fatalf("Failed to upsert genre: %v", err)
	}

	name, taxonomyType := "betrayal", model.TaxonomyTheme
	got, err := s.GetGenre(&model.FindGenre{Name: &name, Type: &taxonomyType})
	if err != nil {
		t.Fatalf("Failed to get genre: %v", err)
	}
	if got == nil || got.ID != 1 {
		t.Fatalf("Case-insensitive name lookup failed: %+v", got)
	}
}

func TestBookTaxonomyReplaceAndList(t *testing.T) {
	s := newTestStore(t)
	author := addTestAuthor(t, s, "Jane Doe")
	book, err := s.AddBook(&model.Book{Title: "Dunes of Glass", AuthorID: &author.ID})
	if err != nil {
		t.Fatalf("Failed to add book: %v", err)
	}

	vocab := []*model.Genre{
		{ID: 1, Name: "Fantasy", Type: model.TaxonomyGenre},
		{ID: 2, Name: "Betrayal", Type: model.TaxonomyTheme},
		{ID: 3, Name: "Found family", Type: model.TaxonomyTrope},
	}
	for _, g := range vocab {
		if _, err := s.UpsertGenre(g); err != nil {
			t.Fatalf("Failed to upsert genre: %v", err)
		}
	}

	assocs := []*model.BookTaxonomy{
		{BookID: book.ID, TaxonomyID: 3, Rank: 1, Importance: 1.0},
		{BookID: book.ID, TaxonomyID: 1, Rank: 1, Importance: 1.0},
		{BookID: book.ID, TaxonomyID: 2, Rank: 2, Importance: 1 / 1.3},
	}
	for _, assoc := range assocs {
		if err := s.AddBookTaxonomy(assoc); err != nil {
			t.Fatalf("Failed to add association: %v", err)
		}
	}

	list, err := s.ListBookTaxonomies(book.ID)
	if err != nil {
		t.Fatalf("Failed to list associations: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 associations, got %d", len(list))
	}
	// Ordered by rank, joined with the vocabulary.
	if list[0].Rank != 1 || list[2].Rank != 2 {
		t.Fatalf("Associations not ordered by rank: %+v", list)
	}
	for _, assoc := range list {
		if assoc.Name == "" || assoc.Type == "" {
			t.Fatalf("Vocabulary join missing: %+v", assoc)
		}
	}

	count, err := s.CountBookTaxonomies(book.ID)
	if err != nil {
		t.Fatalf("Failed to count associations: %v", err)
	}
	if count != 3 {
		t.Fatalf("Expected count 3, got %d", count)
	}

	// Replace-all starts with a delete.
	if err := s.RemoveBookTaxonomies(book.ID); err != nil {
		t.Fatalf("Failed to remove associations: %v", err)
	}
	count, err = s.CountBookTaxonomies(book.ID)
	if err != nil {
		t.Fatalf("Failed to count associations: %v", err)
	}
	if count != 0 {
		t.Fatalf("Expected associations to be gone, got %d", count)
	}
}
