package v1

import (
	"encoding/json"
	"net/http"

	"github.com/inkdesk/inkdesk/http/request"
	"github.com/inkdesk/inkdesk/http/response"
	"github.com/inkdesk/inkdesk/log"
	"github.com/inkdesk/inkdesk/model"
	"github.com/inkdesk/inkdesk/taxonomy"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	find := &model.FindBook{}
	if authorID := request.QueryIntParam(r, "author_id", 0); authorID != 0 {
		find.AuthorID = &authorID
	}
	if limit := request.QueryIntParam(r, "limit", 0); limit != 0 {
		find.Limit = &limit
	}

	books, err := h.store.ListBooks(find)
	if err != nil {
		log.Error("Error listing books", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, books)
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	id := request.RouteIntParam(r, "id")
	if id == 0 {
		response.BadRequest(w, r, errors.New("invalid book id"))
		return
	}

	book, err := h.store.GetBook(&model.FindBook{ID: &id})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if book == nil {
		response.NotFound(w, r)
		return
	}
	response.OK(w, r, book)
}

// addBook creates a book locally. It uploads on the next push; there is no
// direct write through to the catalogue service.
func (h *Handler) addBook(w http.ResponseWriter, r *http.Request) {
	var record model.Book
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		response.BadRequest(w, r, errors.Wrap(err, "invalid book payload"))
		return
	}

	bookID, err := h.importer.ImportBook(&record, record.Author)
	if err != nil {
		response.BadRequest(w, r, err)
		return
	}

	book, err := h.store.GetBook(&model.FindBook{ID: &bookID})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.Created(w, r, book)
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	id := request.RouteIntParam(r, "id")
	if id == 0 {
		response.BadRequest(w, r, errors.New("invalid book id"))
		return
	}
	if !h.store.CheckBook(id) {
		response.NotFound(w, r)
		return
	}

	// Associations and images go first; the book row refuses to delete
	// while anything references it.
	if err := h.store.RemoveBookTaxonomies(id); err != nil {
		response.ServerError(w, r, err)
		return
	}
	images, err := h.store.ListImages(&model.FindImage{BookID: &id})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	for _, img := range images {
		if err := h.store.RemoveImage(img.ID); err != nil {
			response.ServerError(w, r, err)
			return
		}
	}
	if err := h.store.RemoveBook(id); err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

func (h *Handler) getBookTaxonomies(w http.ResponseWriter, r *http.Request) {
	id := request.RouteIntParam(r, "id")
	if id == 0 {
		response.BadRequest(w, r, errors.New("invalid book id"))
		return
	}

	taxonomies, err := h.store.ListBookTaxonomies(id)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, taxonomies)
}

type taxonomySelectionRequest struct {
	TaxonomyIDs []int `json:"taxonomy_ids"`
}

// saveBookTaxonomies replaces a book's selection with the given vocabulary
// ids, in order. Ranks are assigned per type from the order of appearance;
// the completeness gate rejects a selection missing a genre, theme or trope.
func (h *Handler) saveBookTaxonomies(w http.ResponseWriter, r *http.Request) {
	id := request.RouteIntParam(r, "id")
	if id == 0 {
		response.BadRequest(w, r, errors.New("invalid book id"))
		return
	}
	if !h.store.CheckBook(id) {
		response.NotFound(w, r)
		return
	}

	var req taxonomySelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, errors.Wrap(err, "invalid selection payload"))
		return
	}

	sel := taxonomy.NewSelection()
	for _, taxonomyID := range req.TaxonomyIDs {
		tid := taxonomyID
		entry, err := h.store.GetGenre(&model.FindGenre{ID: &tid})
		if err != nil {
			response.ServerError(w, r, err)
			return
		}
		if entry == nil {
			response.BadRequest(w, r, errors.Errorf("unknown taxonomy id %d", taxonomyID))
			return
		}
		if err := sel.Add(entry); err != nil {
			response.BadRequest(w, r, err)
			return
		}
	}

	result, err := h.syncer.Genres().SaveSelection(sel, id)
	if err != nil {
		response.BadRequest(w, r, err)
		return
	}
	response.OK(w, r, result)
}
