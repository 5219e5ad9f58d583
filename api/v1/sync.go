package v1

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/inkdesk/inkdesk/http/response"
	"github.com/inkdesk/inkdesk/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type pullRequest struct {
	Publisher *bool `json:"publisher"`
}

// pull runs a full catalogue pull. The request blocks until the pull
// finishes; partial failures come back in the result body, not as an HTTP
// error. The optional body declares the account role; without one the
// role cached from a previous publisher pull applies.
func (h *Handler) pull(w http.ResponseWriter, r *http.Request) {
	if !h.client.HasSession() {
		response.Unauthorized(w, r)
		return
	}

	var req pullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		response.BadRequest(w, r, errors.Wrap(err, "invalid pull request"))
		return
	}
	asPublisher := h.syncer.StoredRole()
	if req.Publisher != nil {
		asPublisher = *req.Publisher
	}

	result, err := h.syncer.Pull(asPublisher)
	if err != nil {
		log.Error("Pull failed", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, result)
}

func (h *Handler) push(w http.ResponseWriter, r *http.Request) {
	if !h.client.HasSession() {
		response.Unauthorized(w, r)
		return
	}

	result, err := h.pusher.Push()
	if err != nil {
		if strings.Contains(err.Error(), "already running") {
			response.Conflict(w, r, err)
			return
		}
		log.Error("Push failed", zap.Error(err))
		// The phase results identify what uploaded before the failure.
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, result)
}

func (h *Handler) syncStatus(w http.ResponseWriter, r *http.Request) {
	response.OK(w, r, map[string]bool{
		"is_syncing": h.pusher.IsSyncing(),
		"logged_in":  h.client.HasSession(),
	})
}

type importRequest struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

func (h *Handler) importFile(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, errors.Wrap(err, "invalid import request"))
		return
	}
	if req.Path == "" {
		response.BadRequest(w, r, errors.New("path is required"))
		return
	}

	format := strings.ToLower(req.Format)
	if format == "" {
		switch {
		case strings.HasSuffix(strings.ToLower(req.Path), ".csv"):
			format = "csv"
		case strings.HasSuffix(strings.ToLower(req.Path), ".json"):
			format = "json"
		}
	}

	switch format {
	case "csv":
		result, err := h.importer.ImportCSV(req.Path)
		if err != nil {
			response.BadRequest(w, r, err)
			return
		}
		response.OK(w, r, result)
	case "json":
		result, err := h.importer.ImportJSON(req.Path)
		if err != nil {
			response.BadRequest(w, r, err)
			return
		}
		response.OK(w, r, result)
	default:
		response.BadRequest(w, r, errors.Errorf("unsupported import format %q", req.Format))
	}
}
