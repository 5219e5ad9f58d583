package v1

import (
	"net/http"

	"github.com/inkdesk/inkdesk/http/request"
	"github.com/inkdesk/inkdesk/http/response"
	"github.com/inkdesk/inkdesk/log"
	"github.com/inkdesk/inkdesk/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (h *Handler) listAuthors(w http.ResponseWriter, r *http.Request) {
	find := &model.FindAuthor{}
	if name := request.QueryStringParam(r, "name", ""); name != "" {
		find.Name = &name
	}

	authors, err := h.store.ListAuthors(find)
	if err != nil {
		log.Error("Error listing authors", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, authors)
}

func (h *Handler) getAuthor(w http.ResponseWriter, r *http.Request) {
	id := request.RouteIntParam(r, "id")
	if id == 0 {
		response.BadRequest(w, r, errors.New("invalid author id"))
		return
	}

	author, err := h.store.GetAuthor(&model.FindAuthor{ID: &id})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if author == nil {
		response.NotFound(w, r)
		return
	}
	response.OK(w, r, author)
}
