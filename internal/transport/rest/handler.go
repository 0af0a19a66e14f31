package rest

import (
	"context"
	"net/http"
	"time"

	"liquidation-export/internal/domain"
	"liquidation-export/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type LiquidationService interface {
	Preview(ctx context.Context, id domain.Identifier, campaign domain.Campaign) (*service.Preview, error)
	Generate(ctx context.Context, req service.Request) (*service.Document, error)
	GenerateWorkbook(ctx context.Context, req service.Request) (*service.Document, error)
	StartLiquidationExport(ctx context.Context, req service.Request, userID int64) (string, error)
}

type IdentifierIndex interface {
	SearchIdentifiers(fragment string, limit int) []domain.Identifier
	CampaignsFor(id domain.Identifier) []domain.Campaign
	HasIdentifier(id domain.Identifier) bool
	CampaignCaseCounts() map[domain.Campaign]int
	Len() int
}

type ExportListService interface {
	GetExports(ctx context.Context, userID int64) ([]map[string]any, error)
	GetExport(ctx context.Context, exportID string, userID int64) (map[string]any, error)
}

type FileStore interface {
	Path(stored string) (string, error)
}

type WebSocketHub interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request, userID int64)
}

type Handler struct {
	liquidations LiquidationService
	index        IdentifierIndex
	exportList   ExportListService
	files        FileStore
	hub          WebSocketHub
	log          *zap.Logger
	timeout      time.Duration
}

func NewHandler(liquidations LiquidationService, index IdentifierIndex, exportList ExportListService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		liquidations: liquidations,
		index:        index,
		exportList:   exportList,
		log:          log,
		timeout:      60 * time.Second,
	}
}

// WithFiles enables GET /files/{file}.
func (h *Handler) WithFiles(files FileStore) *Handler {
	h.files = files
	return h
}

// WithWebSocket enables GET /ws.
func (h *Handler) WithWebSocket(hub WebSocketHub) *Handler {
	h.hub = hub
	return h
}

func (h *Handler) InitRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/health", h.health)

	if h.hub != nil {
		// no timeout middleware: the connection is long lived
		r.Get("/ws", h.websocket)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(h.timeout))

		r.Get("/campaigns", h.campaignStats)
		r.Get("/identifiers", h.searchIdentifiers)
		r.Get("/identifiers/{identifier}/campaigns", h.campaignsFor)

		r.Route("/liquidations/{identifier}/{campaign}", func(r chi.Router) {
			r.Get("/", h.previewLiquidation)
			r.Get("/pdf", h.downloadPDF)
			r.Get("/xlsx", h.downloadWorkbook)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/", h.listExports)
			r.Get("/{export_id}", h.getExport)
			r.Post("/liquidations", h.exportLiquidation)
		})

		if h.files != nil {
			r.Get("/files/{file}", h.serveFile)
		}
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	Success(w, "ok", map[string]any{
		"records": h.index.Len(),
	})
}
