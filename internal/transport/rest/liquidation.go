package rest

import (
	"errors"
	"net/http"
	"net/url"

	"liquidation-export/internal/domain"
	"liquidation-export/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 200
)

func (h *Handler) searchIdentifiers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultSearchLimit, maxSearchLimit)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	ids := h.index.SearchIdentifiers(r.URL.Query().Get("q"), limit)
	Success(w, "", map[string]any{
		"identifiers": ids,
		"count":       len(ids),
	})
}

// campaignStats returns the number of identifiers per campaign.
func (h *Handler) campaignStats(w http.ResponseWriter, r *http.Request) {
	counts := h.index.CampaignCaseCounts()

	stats := make([]map[string]any, 0, len(domain.Campaigns))
	for _, c := range domain.Campaigns {
		stats = append(stats, map[string]any{"campaign": c, "cases": counts[c]})
	}
	Success(w, "", stats)
}

func (h *Handler) campaignsFor(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseIdentifier(chi.URLParam(r, "identifier"))
	if err != nil {
		ErrorBadRequest(w, "identifier must be numeric")
		return
	}

	if !h.index.HasIdentifier(id) {
		ErrorNotFound(w, "identifier not found")
		return
	}

	Success(w, "", map[string]any{
		"identifier": id,
		"campaigns":  h.index.CampaignsFor(id),
	})
}

func (h *Handler) previewLiquidation(w http.ResponseWriter, r *http.Request) {
	req, ok := h.pathRequest(w, r)
	if !ok {
		return
	}

	sr := req.ToServiceRequest()
	preview, err := h.liquidations.Preview(r.Context(), sr.Identifier, sr.Campaign)
	if err != nil {
		h.writeServiceError(w, "preview", err)
		return
	}

	Success(w, "", preview)
}

func (h *Handler) downloadPDF(w http.ResponseWriter, r *http.Request) {
	req, ok := h.pathRequest(w, r)
	if !ok {
		return
	}

	doc, err := h.liquidations.Generate(r.Context(), req.ToServiceRequest())
	if err != nil {
		h.writeServiceError(w, "generate pdf", err)
		return
	}

	Attachment(w, doc.FileName, doc.ContentType, doc.Data)
}

func (h *Handler) downloadWorkbook(w http.ResponseWriter, r *http.Request) {
	req, ok := h.pathRequest(w, r)
	if !ok {
		return
	}

	doc, err := h.liquidations.GenerateWorkbook(r.Context(), req.ToServiceRequest())
	if err != nil {
		h.writeServiceError(w, "generate workbook", err)
		return
	}

	Attachment(w, doc.FileName, doc.ContentType, doc.Data)
}

func (h *Handler) exportLiquidation(w http.ResponseWriter, r *http.Request) {
	req, err := DecodeLiquidationRequest(r)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	exportID, err := h.liquidations.StartLiquidationExport(r.Context(), req.ToServiceRequest(), req.UserID)
	if err != nil {
		h.log.Error("[HTTP] start liquidation export", zap.Error(err))
		ErrorInternal(w, "failed to start export")
		return
	}

	SuccessAccepted(w, "Exportación en cola", map[string]any{
		"export_id": exportID,
	})
}

func (h *Handler) pathRequest(w http.ResponseWriter, r *http.Request) (*LiquidationRequest, bool) {
	campaign, err := url.PathUnescape(chi.URLParam(r, "campaign"))
	if err != nil {
		ErrorBadRequest(w, "invalid campaign")
		return nil, false
	}

	req, err := pathLiquidationRequest(r, chi.URLParam(r, "identifier"), campaign)
	if err != nil {
		writeValidationError(w, err)
		return nil, false
	}
	return req, true
}

func writeValidationError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) && len(ve.Details) > 0 {
		ErrorWithDetails(w, ve.Message, ve.Details, 400, http.StatusBadRequest)
		return
	}
	ErrorBadRequest(w, err.Error())
}

func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	var (
		dataErr   *domain.DataError
		renderErr *domain.RenderError
	)

	switch {
	case errors.Is(err, service.ErrNoRecords):
		ErrorNotFound(w, "no se encontraron registros para el RUC y la campaña")
	case errors.As(err, &dataErr):
		h.log.Warn("[HTTP] "+op, zap.Error(err))
		ErrorUnprocessable(w, dataErr.Error(), map[string]any{
			"index":        dataErr.Index,
			"account_code": dataErr.AccountCode,
			"field":        dataErr.Field,
			"value":        dataErr.Value,
			"reason":       dataErr.Reason,
		})
	case errors.As(err, &renderErr):
		ErrorBadRequest(w, renderErr.Error())
	case errors.Is(err, domain.ErrInvalidIdentifier), errors.Is(err, domain.ErrUnknownCampaign):
		ErrorBadRequest(w, err.Error())
	default:
		h.log.Error("[HTTP] "+op, zap.Error(err))
		ErrorInternal(w, "failed to "+op)
	}
}
