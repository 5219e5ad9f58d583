package v1

import (
	"encoding/json"
	"net/http"

	"github.com/inkdesk/inkdesk/http/response"
	"github.com/inkdesk/inkdesk/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, errors.Wrap(err, "invalid login request"))
		return
	}
	if req.Username == "" || req.Password == "" {
		response.BadRequest(w, r, errors.New("username and password are required"))
		return
	}

	if err := h.client.Login(req.Username, req.Password); err != nil {
		log.Warn("Login failed", zap.String("username", req.Username), zap.Error(err))
		response.Unauthorized(w, r)
		return
	}
	response.OK(w, r, map[string]bool{"logged_in": true})
}

func (h *Handler) sessionStatus(w http.ResponseWriter, r *http.Request) {
	response.OK(w, r, map[string]bool{"logged_in": h.client.HasSession()})
}
