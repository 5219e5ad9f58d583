package v1

import (
	"net/http"

	"github.com/inkdesk/inkdesk/http/request"
	"github.com/inkdesk/inkdesk/http/response"
	"github.com/inkdesk/inkdesk/model"
)

func (h *Handler) listGenres(w http.ResponseWriter, r *http.Request) {
	find := &model.FindGenre{}
	if taxonomyType := request.QueryStringParam(r, "type", ""); taxonomyType != "" {
		find.Type = &taxonomyType
	}

	genres, err := h.store.ListGenres(find)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, genres)
}

func (h *Handler) listImages(w http.ResponseWriter, r *http.Request) {
	find := &model.FindImage{}
	if bookID := request.QueryIntParam(r, "book_id", 0); bookID != 0 {
		find.BookID = &bookID
	}

	images, err := h.store.ListImages(find)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, images)
}

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	limit := request.QueryIntParam(r, "limit", 50)

	jobs, err := h.store.ListSyncJobs(limit)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, jobs)
}

func (h *Handler) getSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.syncer.Snapshot()
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, snapshot)
}
