package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"liquidation-export/internal/domain"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	colIdentifier       = "RUC"
	colCampaign         = "CAMPANA"
	colSubjectName      = "RAZON_SOCIAL"
	colAccountCode      = "CUSSP"
	colPeriod           = "OPERACION"
	colPrincipal        = "FONDO_NOMINAL"
	colCommission       = "COMISION_NOMINAL"
	colInsurance        = "SEGURO_NOMINAL"
	colPensionFundFee   = "AFP_NOMINAL"
	colTotalFund        = "TOTA_FONDO"
	colTotalWithPenalty = "DEUDA_CON_MORA"
	colPenalty          = "MORA"
	colAffiliate        = "AFILIADO"
)

// alternative spellings seen in exported sheets
var headerAliases = map[string]string{
	"CAMPAIGN":    colCampaign,
	"PERIODO":     colPeriod,
	"TOTAL_FONDO": colTotalFund,
}

// XLSXSource reads debt records from the first (or the named) sheet of a
// workbook whose first row holds the column names.
type XLSXSource struct {
	path  string
	sheet string
	log   *zap.Logger
}

func NewXLSXSource(path, sheet string, log *zap.Logger) *XLSXSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &XLSXSource{path: path, sheet: sheet, log: log}
}

func (s *XLSXSource) Name() string {
	return "xlsx:" + s.path
}

// Fingerprint changes whenever the workbook file is replaced or modified.
func (s *XLSXSource) Fingerprint(ctx context.Context) (string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return "", fmt.Errorf("stat %q: %w", s.path, err)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d|%d", s.path, s.sheet, info.Size(), info.ModTime().UnixNano())))
	return hex.EncodeToString(sum[:8]), nil
}

func (s *XLSXSource) Load(ctx context.Context) ([]domain.DebtRecord, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %q: %w", s.path, err)
	}
	defer file.Close()

	return ReadWorkbook(file, s.sheet, s.log)
}

// ReadWorkbook parses records from an in-memory workbook stream.
func ReadWorkbook(r io.Reader, sheet string, log *zap.Logger) ([]domain.DebtRecord, error) {
	if log == nil {
		log = zap.NewNop()
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readWorkbook(f, sheet, log)
}

func readWorkbook(f *excelize.File, sheet string, log *zap.Logger) ([]domain.DebtRecord, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		name := normalizeHeader(h)
		if alias, ok := headerAliases[name]; ok {
			name = alias
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	for _, required := range []string{colIdentifier, colCampaign} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("sheet %q: required column %s not found", sheet, required)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	unknownCampaigns := make(map[domain.Campaign]bool)
	records := make([]domain.DebtRecord, 0, len(rows)-1)

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}

		rawID := cell(row, colIdentifier)
		if rawID == "" {
			log.Debug("skipping row without identifier", zap.Int("row", i+1))
			continue
		}
		id, err := domain.ParseIdentifier(rawID)
		if err != nil {
			log.Warn("skipping row with invalid identifier", zap.Int("row", i+1), zap.String("value", rawID))
			continue
		}

		campaign := domain.NormalizeCampaign(cell(row, colCampaign))
		if !campaign.Known() && !unknownCampaigns[campaign] {
			unknownCampaigns[campaign] = true
			log.Warn("unknown campaign label", zap.String("campaign", campaign.String()), zap.Int("row", i+1))
		}

		records = append(records, domain.DebtRecord{
			Identifier:       id,
			Campaign:         campaign,
			SubjectName:      cell(row, colSubjectName),
			AccountCode:      cell(row, colAccountCode),
			Period:           cell(row, colPeriod),
			Principal:        domain.ParseAmount(cell(row, colPrincipal)),
			Commission:       domain.ParseAmount(cell(row, colCommission)),
			Insurance:        domain.ParseAmount(cell(row, colInsurance)),
			PensionFundFee:   domain.ParseAmount(cell(row, colPensionFundFee)),
			TotalFund:        domain.ParseAmount(cell(row, colTotalFund)),
			TotalWithPenalty: domain.ParseAmount(cell(row, colTotalWithPenalty)),
			Penalty:          domain.ParseAmount(cell(row, colPenalty)),
			AffiliateName:    cell(row, colAffiliate),
		})
	}

	log.Info("workbook loaded", zap.String("sheet", sheet), zap.Int("records", len(records)))

	return records, nil
}

func normalizeHeader(h string) string {
	h = strings.ToUpper(strings.TrimSpace(h))
	h = strings.NewReplacer("Ñ", "N", "Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U").Replace(h)
	return strings.Join(strings.Fields(h), "_")
}

func isRowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
