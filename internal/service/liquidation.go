package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"liquidation-export/internal/domain"
	"liquidation-export/internal/report"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNoRecords = errors.New("no records for identifier and campaign")

type RecordStore interface {
	RecordsFor(identifier domain.Identifier, campaign domain.Campaign) []domain.DebtRecord
}

type DocumentRenderer interface {
	Render(in report.Input) ([]byte, error)
	ContentType() string
	Extension() string
}

type FileStorage interface {
	Save(ctx context.Context, fileName string, data []byte) (string, error)
	GetURL(fileName string) string
}

type DocumentUploader interface {
	UploadDocument(ctx context.Context, fileName string, data []byte, contentType string) (string, error)
	GetTemporaryURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type ExportNotifier interface {
	NotifyExportProgress(ctx context.Context, userID int64, exportID string, progress float64, stage string) error
	NotifyExportComplete(ctx context.Context, userID int64, exportID string, url string, filename string) error
	NotifyExportFailed(ctx context.Context, userID int64, exportID string, errMsg string) error
}

// ExportSinks are the optional destinations of an asynchronous export.
// Leave a field nil to skip it.
type ExportSinks struct {
	Status   StatusWriter
	Storage  FileStorage
	Uploader DocumentUploader
	Notifier ExportNotifier
	URLTTL   time.Duration
}

type Request struct {
	Identifier  domain.Identifier
	Campaign    domain.Campaign
	Address     string
	PaymentDate string
}

type Preview struct {
	Identifier  domain.Identifier   `json:"identifier"`
	Campaign    domain.Campaign     `json:"campaign"`
	SubjectName string              `json:"subject_name"`
	Records     []domain.DebtRecord `json:"records"`
	domain.Liquidation
}

type Document struct {
	FileName    string
	ContentType string
	Data        []byte
}

type LiquidationService struct {
	store RecordStore
	pdf   DocumentRenderer
	xlsx  DocumentRenderer
	sinks ExportSinks
	log   *zap.Logger
	now   func() time.Time
}

func NewLiquidationService(store RecordStore, pdf, xlsx DocumentRenderer, sinks ExportSinks, log *zap.Logger) *LiquidationService {
	if log == nil {
		log = zap.NewNop()
	}
	if sinks.URLTTL <= 0 {
		sinks.URLTTL = 48 * time.Hour
	}
	return &LiquidationService{
		store: store,
		pdf:   pdf,
		xlsx:  xlsx,
		sinks: sinks,
		log:   log,
		now:   time.Now,
	}
}

// FileName builds the download name, e.g.
// LIQUIDACION_20212246698_REDIRECCIO_09032026.pdf. The date is the
// payment date.
func FileName(id domain.Identifier, campaign domain.Campaign, at time.Time, ext string) string {
	return fmt.Sprintf("LIQUIDACION_%s_%s_%s%s",
		report.FormatIdentifier(id),
		campaign.Abbrev(),
		at.Format("02012006"),
		ext,
	)
}

// fileDate is the payment date when it parses as DD/MM/YYYY, otherwise
// the generation date.
func fileDate(in report.Input) time.Time {
	if d, err := time.Parse(report.DateLayout, strings.TrimSpace(in.PaymentDate)); err == nil {
		return d
	}
	return in.GeneratedAt
}

func (s *LiquidationService) Preview(ctx context.Context, id domain.Identifier, campaign domain.Campaign) (*Preview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	campaign = domain.NormalizeCampaign(string(campaign))
	records := s.store.RecordsFor(id, campaign)

	liq, err := Aggregate(records)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s/%s: %w", id, campaign, err)
	}

	p := &Preview{
		Identifier:  domain.Identifier(report.FormatIdentifier(id)),
		Campaign:    campaign,
		Records:     records,
		Liquidation: liq,
	}
	if len(records) > 0 {
		p.SubjectName = records[0].SubjectName
	}
	return p, nil
}

func (s *LiquidationService) Generate(ctx context.Context, req Request) (*Document, error) {
	return s.generate(ctx, req, s.pdf)
}

func (s *LiquidationService) GenerateWorkbook(ctx context.Context, req Request) (*Document, error) {
	return s.generate(ctx, req, s.xlsx)
}

func (s *LiquidationService) generate(ctx context.Context, req Request, renderer DocumentRenderer) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if renderer == nil {
		return nil, errors.New("renderer not configured")
	}

	in, err := s.buildInput(req)
	if err != nil {
		return nil, err
	}

	data, err := renderer.Render(in)
	if err != nil {
		return nil, fmt.Errorf("render %s/%s: %w", in.Identifier, in.Campaign, err)
	}

	doc := &Document{
		FileName:    FileName(in.Identifier, in.Campaign, fileDate(in), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}

	s.log.Info("liquidation generated",
		zap.String("identifier", string(in.Identifier)),
		zap.String("campaign", in.Campaign.String()),
		zap.Int("rows", len(in.Rows)),
		zap.String("file", doc.FileName),
	)

	return doc, nil
}

func (s *LiquidationService) buildInput(req Request) (report.Input, error) {
	campaign := domain.NormalizeCampaign(string(req.Campaign))

	records := s.store.RecordsFor(req.Identifier, campaign)
	if len(records) == 0 {
		return report.Input{}, fmt.Errorf("%s/%s: %w", req.Identifier, campaign, ErrNoRecords)
	}

	liq, err := Aggregate(records)
	if err != nil {
		return report.Input{}, fmt.Errorf("aggregate %s/%s: %w", req.Identifier, campaign, err)
	}

	return report.Input{
		SubjectName: records[0].SubjectName,
		Identifier:  records[0].Identifier,
		Campaign:    campaign,
		Rows:        liq.Rows,
		Totals:      liq.Totals,
		Summary:     liq.Summary,
		Address:     req.Address,
		PaymentDate: req.PaymentDate,
		GeneratedAt: s.now(),
	}, nil
}

// StartLiquidationExport renders the document in the background and
// reports progress through the configured sinks. The returned id is the
// redis key of the export status.
func (s *LiquidationService) StartLiquidationExport(ctx context.Context, req Request, userID int64) (string, error) {
	if s.sinks.Storage == nil && s.sinks.Uploader == nil {
		return "", errors.New("no export storage configured")
	}

	exportID := fmt.Sprintf("exports:%s", uuid.NewString())

	status := &ExportStatus{
		Key:      exportID,
		Type:     "liquidation",
		UserID:   userID,
		Filters:  buildLiquidationFiltersMap(req),
		Progress: 0,
		Stage:    "queued",
		Created:  s.now(),
	}

	if err := saveExportStatus(ctx, s.sinks.Status, status); err != nil {
		s.log.Warn("save export status", zap.String("export_id", exportID), zap.Error(err))
	}

	go s.runLiquidationExport(context.Background(), status, req)

	return exportID, nil
}

func (s *LiquidationService) runLiquidationExport(ctx context.Context, status *ExportStatus, req Request) {
	log := s.log.With(zap.String("export_id", status.Key), zap.Int64("user_id", status.UserID))

	progress := func(p float64, stage string) {
		status.Progress = p
		status.Stage = stage
		if err := saveExportStatus(ctx, s.sinks.Status, status); err != nil {
			log.Warn("save export status", zap.Error(err))
		}
		if s.sinks.Notifier != nil {
			_ = s.sinks.Notifier.NotifyExportProgress(ctx, status.UserID, status.Key, p, stage)
		}
	}

	fail := func(err error) {
		log.Error("liquidation export failed", zap.Error(err))
		status.Stage = "failed"
		status.Error = err.Error()
		_ = saveExportStatus(ctx, s.sinks.Status, status)
		if s.sinks.Notifier != nil {
			_ = s.sinks.Notifier.NotifyExportFailed(ctx, status.UserID, status.Key, err.Error())
		}
	}

	progress(10, "loading")

	doc, err := s.Generate(ctx, req)
	if err != nil {
		fail(err)
		return
	}

	progress(60, "generating")

	var url string
	if s.sinks.Storage != nil {
		stored, err := s.sinks.Storage.Save(ctx, doc.FileName, doc.Data)
		if err != nil {
			fail(err)
			return
		}
		url = s.sinks.Storage.GetURL(stored)
		progress(80, "saved")
	}

	if s.sinks.Uploader != nil {
		progress(95, "uploading")

		key, err := s.sinks.Uploader.UploadDocument(ctx, doc.FileName, doc.Data, doc.ContentType)
		if err != nil {
			if url == "" {
				fail(err)
				return
			}
			log.Warn("upload failed, keeping local file", zap.Error(err))
		} else if presigned, err := s.sinks.Uploader.GetTemporaryURL(ctx, key, s.sinks.URLTTL); err == nil {
			url = presigned
		} else if url == "" {
			fail(err)
			return
		}
	}

	status.FileURL = &url
	status.FileName = doc.FileName
	progress(100, "ready")

	if s.sinks.Notifier != nil {
		_ = s.sinks.Notifier.NotifyExportComplete(ctx, status.UserID, status.Key, url, doc.FileName)
	}

	log.Info("liquidation export ready", zap.String("file", doc.FileName))
}

func buildLiquidationFiltersMap(req Request) map[string]any {
	m := map[string]any{
		"identifier": report.FormatIdentifier(req.Identifier),
		"campaign":   domain.NormalizeCampaign(string(req.Campaign)).String(),
	}
	if req.Address != "" {
		m["address"] = req.Address
	} else {
		m["address"] = nil
	}
	if req.PaymentDate != "" {
		m["payment_date"] = req.PaymentDate
	} else {
		m["payment_date"] = nil
	}
	return m
}
