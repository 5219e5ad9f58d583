// Package taxonomy models a book's editable taxonomy selection: which
// genre, subgenre, theme and trope entries it carries, in what order, and
// the importance weight each position earns.
package taxonomy

import (
	"strings"

	"github.com/inkdesk/inkdesk/model"
	"github.com/pkg/errors"
)

// Per-type selection caps.
var maxCounts = map[string]int{
	model.TaxonomyGenre:    2,
	model.TaxonomySubgenre: 5,
	model.TaxonomyTheme:    6,
	model.TaxonomyTrope:    7,
}

// MaxCount returns the selection cap for a taxonomy type, 0 for unknown
// types.
func MaxCount(taxonomyType string) int {
	return maxCounts[taxonomyType]
}

// Importance is the decay score exported for a 1-based rank. Non-positive
// ranks score zero.
func Importance(rank int) float64 {
	if rank <= 0 {
		return 0.0
	}
	return 1 / (1 + 0.3*float64(rank-1))
}

// Selection is an ordered set of taxonomy entries for one book. Rank is
// maintained 1-based per type; ties cannot occur because rank mirrors list
// position within the type.
type Selection struct {
	items []model.BookTaxonomy
}

func NewSelection() *Selection {
	return &Selection{}
}

func (s *Selection) Items() []model.BookTaxonomy {
	out := make([]model.BookTaxonomy, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Selection) Len() int {
	return len(s.items)
}

func (s *Selection) countByType(taxonomyType string) int {
	count := 0
	for _, item := range s.items {
		if item.Type == taxonomyType {
			count++
		}
	}
	return count
}

// Add appends a vocabulary entry to the selection with the next rank for
// its type. Adding past the type's cap or adding a duplicate leaves the
// selection unchanged.
func (s *Selection) Add(genre *model.Genre) error {
	taxonomyType := genre.Type
	if taxonomyType == "" {
		taxonomyType = model.TaxonomyGenre
	}
	limit, ok := maxCounts[taxonomyType]
	if !ok {
		return errors.Errorf("unknown taxonomy type: %q", taxonomyType)
	}

	for _, item := range s.items {
		if item.TaxonomyID == genre.ID && item.Type == taxonomyType {
			return errors.Errorf("%s %q is already selected", taxonomyType, genre.Name)
		}
	}

	count := s.countByType(taxonomyType)
	if count >= limit {
		return errors.Errorf("maximum of %d %ss already selected", limit, taxonomyType)
	}

	rank := count + 1
	s.items = append(s.items, model.BookTaxonomy{
		TaxonomyID:  genre.ID,
		Rank:        rank,
		Importance:  Importance(rank),
		Name:        genre.Name,
		Type:        taxonomyType,
		Description: genre.Description,
	})
	return nil
}

// Remove drops the item at index and closes the rank gap within its type.
func (s *Selection) Remove(index int) error {
	if index < 0 || index >= len(s.items) {
		return errors.Errorf("selection index %d out of range", index)
	}
	removed := s.items[index]
	s.items = append(s.items[:index], s.items[index+1:]...)
	s.rerank(removed.Type)
	return nil
}

// MoveUp swaps the item at index with the previous item of the same type,
// raising its rank by one.
func (s *Selection) MoveUp(index int) error {
	return s.move(index, -1)
}

// MoveDown lowers the item's rank by one within its type.
func (s *Selection) MoveDown(index int) error {
	return s.move(index, 1)
}

func (s *Selection) move(index, dir int) error {
	if index < 0 || index >= len(s.items) {
		return errors.Errorf("selection index %d out of range", index)
	}
	taxonomyType := s.items[index].Type
	for i := index + dir; i >= 0 && i < len(s.items); i += dir {
		if s.items[i].Type == taxonomyType {
			s.items[index], s.items[i] = s.items[i], s.items[index]
			s.rerank(taxonomyType)
			return nil
		}
	}
	// Already at the boundary for its type.
	return nil
}

func (s *Selection) rerank(taxonomyType string) {
	rank := 0
	for i := range s.items {
		if s.items[i].Type != taxonomyType {
			continue
		}
		rank++
		s.items[i].Rank = rank
		s.items[i].Importance = Importance(rank)
	}
}

// Validate enforces the completeness gate: a saveable selection carries at
// least one genre, one theme and one trope. The error names every missing
// kind.
func (s *Selection) Validate() error {
	missing := []string{}
	if s.countByType(model.TaxonomyGenre) == 0 {
		missing = append(missing, "at least 1 genre")
	}
	if s.countByType(model.TaxonomyTheme) == 0 {
		missing = append(missing, "at least 1 theme")
	}
	if s.countByType(model.TaxonomyTrope) == 0 {
		missing = append(missing, "at least 1 trope")
	}
	if len(missing) > 0 {
		return errors.Errorf("selection needs %s", strings.Join(missing, ", "))
	}
	return nil
}

// FromAssociations rebuilds a selection from stored associations, keeping
// their stored order.
func FromAssociations(assocs []*model.BookTaxonomy) *Selection {
	s := NewSelection()
	for _, assoc := range assocs {
		s.items = append(s.items, *assoc)
	}
	return s
}
