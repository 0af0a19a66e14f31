package rest

import (
	"errors"
	"fmt"
	"net/http"

	"liquidation-export/internal/clients"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")

	path, err := h.files.Path(file)
	if err != nil {
		if errors.Is(err, clients.ErrFileNotFound) {
			http.NotFound(w, r)
			return
		}
		h.log.Error("[HTTP] serveFile", zap.String("file", file), zap.Error(err))
		http.Error(w, "failed to access file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", clients.OriginalName(file)))
	http.ServeFile(w, r, path)
}

func (h *Handler) websocket(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil || r.URL.Query().Get("user_id") == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	h.log.Debug("websocket connected", zap.Int64("user_id", userID))
	h.hub.HandleWebSocket(w, r, userID)
}
