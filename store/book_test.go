package store

import (
	"testing"

	"github.com/inkdesk/inkdesk/model"
)

func addTestAuthor(t *testing.T, s *Store, name string) *model.Author {
	t.Helper()
	author, err := s.AddAuthor(&model.Author{Name: name})
	if err != nil {
		t.Fatalf("Failed to add author: %v", err)
	}
	return author
}

func TestAddAndGetBookRoundTrip(t *testing.T) {
	s := newTestStore(t)
	author := addTestAuthor(t, s, "Jane Doe")

	added, err := s.AddBook(&model.Book{
		Title:       "Dunes of Glass",
		Author:      "Jane Doe",
		AuthorID:    &author.ID,
		PublishDate: "2024-03-01",
		PageCount:   312,
		Formats:     []string{model.FormatDigital, model.FormatHardback},
		Awards:      []string{"Nebula nominee"},
		Characters:  []string{"Mara", "The Cartographer"},
		InternalDetails: map[string]any{
			"warehouse": "B-12",
		},
	})
	if err != nil {
		t.Fatalf("Failed to add book: %v", err)
	}
	if added.ID == 0 {
		t.Fatal("Expected a local id to be assigned")
	}

	// Bypass the write-through cache to prove the row decodes from SQL.
	s.BookCache.Delete(added.ID)

	got, err := s.GetBook(&model.FindBook{ID: &added.ID})
	if err != nil {
		t.Fatalf("Failed to get book: %v", err)
	}
	if got == nil {
		t.Fatal("Expected book to be found")
	}
	if len(got.Formats) != 2 || got.Formats[0] != model.FormatDigital {
		t.Fatalf("Formats did not survive the round trip: %+v", got.Formats)
	}
	if len(got.Characters) != 2 || got.Characters[1] != "The Cartographer" {
		t.Fatalf("Characters did not survive the round trip: %+v", got.Characters)
	}
	if got.InternalDetails["warehouse"] != "B-12" {
		t.Fatalf("Internal details did not survive the round trip: %+v", got.InternalDetails)
	}
	if got.AuthorID == nil || *got.AuthorID != author.ID {
		t.Fatalf("Author link lost: %+v", got.AuthorID)
	}
}

func TestGetBookByTitleAndAuthor(t *testing.T) {
	s := newTestStore(t)
	jane := addTestAuthor(t, s, "Jane Doe")
	john := addTestAuthor(t, s, "John Roe")

	if _, err := s.AddBook(&model.Book{Title: "Dunes of Glass", AuthorID: &jane.ID}); err != nil {
		t.Fatalf("Failed to add book: %v", err)
	}
	other, err := s.AddBook(&model.Book{Title: "Dunes of Glass", AuthorID: &john.ID})
	if err != nil {
		t.Fatalf("Failed to add book: %v", err)
	}

	title := "Dunes of Glass"
	got, err := s.GetBook(&model.FindBook{Title: &title, AuthorID: &john.ID})
	if err != nil {
		t.Fatalf("Failed to get book: %v", err)
	}
	if got == nil || got.ID != other.ID {
		t.Fatalf("Title+author lookup returned wrong book: %+v", got)
	}
}

func TestUpdateBook(t *testing.T) {
	s := newTestStore(t)
	author := addTestAuthor(t, s, "Jane Doe")

	book, err := s.AddBook(&model.Book{Title: "Dunes of Glass", AuthorID: &author.ID})
	if err != nil {
		t.Fatalf("Failed to add book: %v", err)
	}

	book.PageCount = 400
	book.Formats = []string{model.FormatAudiobook}
	if err := s.UpdateBook(book); err != nil {
		t.Fatalf("Failed to update book: %v", err)
	}

	got, err := s.GetBook(&model.FindBook{ID: &book.ID})
	if err != nil {
		t.Fatalf("Failed to get book: %v", err)
	}
	if got.PageCount != 400 || len(got.Formats) != 1 || got.Formats[0] != model.FormatAudiobook {
		t.Fatalf("Update did not persist: %+v", got)
	}
}

func TestRemoveBookBlockedByReferences(t *testing.T) {
	s := newTestStore(t)
	author := addTestAuthor(t, s, "Jane Doe")

	book, err := s.AddBook(&model.Book{Title: "Dunes of Glass", AuthorID: &author.ID})
	if err != nil {
		t.Fatalf("Failed to add book: %v", err)
	}
	if _, err := s.UpsertGenre(&model.Genre{ID: 1, Name: "Fantasy"}); err != nil {
		t.Fatalf("Failed to add genre: %v", err)
	}
	if err := s.AddBookTaxonomy(&model.BookTaxonomy{BookID: book.ID, TaxonomyID: 1, Rank: 1, Importance: 1.0}); err != nil {
		t.Fatalf("Failed to add association: %v", err)
	}

	if err := s.RemoveBook(book.ID); err == nil {
		t.Fatal("Expected removal to fail while associations reference the book")
	}

	if err := s.RemoveBookTaxonomies(book.ID); err != nil {
		t.Fatalf("Failed to clear associations: %v", err)
	}
	if err := s.RemoveBook(book.ID); err != nil {
		t.Fatalf("Failed to remove book: %v", err)
	}
	if s.CheckBook(book.ID) {
		t.Fatal("Book still present after removal")
	}
}
