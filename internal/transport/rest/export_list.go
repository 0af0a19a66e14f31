package rest

import (
	"errors"
	"net/http"
	"strings"

	"liquidation-export/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (h *Handler) listExports(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	exports, err := h.exportList.GetExports(r.Context(), userID)
	if err != nil {
		h.log.Error("[HTTP] listExports", zap.Error(err))
		ErrorInternal(w, "failed to get exports")
		return
	}

	Success(w, "", exports)
}

func (h *Handler) getExport(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	exportIDParam := chi.URLParam(r, "export_id")
	if exportIDParam == "" {
		ErrorBadRequest(w, "export_id is required")
		return
	}
	exportID := "exports:" + strings.TrimPrefix(exportIDParam, "exports:")

	export, err := h.exportList.GetExport(r.Context(), exportID, userID)
	if err != nil {
		if !errors.Is(err, service.ErrExportNotFound) {
			h.log.Error("[HTTP] getExport", zap.Error(err))
		}
		ErrorNotFound(w, "export not found")
		return
	}

	Success(w, "", export)
}
