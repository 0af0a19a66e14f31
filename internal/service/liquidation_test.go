package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"liquidation-export/internal/domain"
	"liquidation-export/internal/report"
	"liquidation-export/internal/repository"
	"liquidation-export/pkg/cache/redis"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)

func newTestService(sinks ExportSinks, records ...domain.DebtRecord) *LiquidationService {
	store := repository.NewRecordStore(records)
	s := NewLiquidationService(store, report.NewPDFRenderer(nil), report.NewWorkbookRenderer(nil), sinks, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestFileName(t *testing.T) {
	assert.Equal(t,
		"LIQUIDACION_20212246698_REDIRECCIO_09032026.pdf",
		FileName("20212246698.0", domain.CampaignRedireccionamiento, fixedNow, ".pdf"))
	assert.Equal(t,
		"LIQUIDACION_20100000001_DEUDA_REAL_09032026.xlsx",
		FileName("20100000001", domain.CampaignDeudaRealTotal, fixedNow, ".xlsx"))
}

func TestLiquidationService_Generate(t *testing.T) {
	s := newTestService(ExportSinks{}, scenarioRecord(), zeroAdminRecord("DROPPED"))

	doc, err := s.Generate(context.Background(), Request{
		Identifier: "20212246698.0",
		Campaign:   "redireccionamiento",
		Address:    "Av. Arequipa 123",
	})
	require.NoError(t, err)

	assert.Equal(t, "LIQUIDACION_20212246698_REDIRECCIO_09032026.pdf", doc.FileName)
	assert.Equal(t, report.ContentTypePDF, doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF-")))
}

func TestLiquidationService_GenerateWorkbook(t *testing.T) {
	s := newTestService(ExportSinks{}, scenarioRecord())

	doc, err := s.GenerateWorkbook(context.Background(), Request{
		Identifier: "20212246698",
		Campaign:   domain.CampaignRedireccionamiento,
	})
	require.NoError(t, err)
	assert.Equal(t, report.ContentTypeXLSX, doc.ContentType)
	assert.Equal(t, "LIQUIDACION_20212246698_REDIRECCIO_09032026.xlsx", doc.FileName)
	assert.NotEmpty(t, doc.Data)
}

func TestLiquidationService_GenerateWithoutRecords(t *testing.T) {
	s := newTestService(ExportSinks{}, scenarioRecord())

	_, err := s.Generate(context.Background(), Request{Identifier: "20212246698", Campaign: domain.CampaignPresunta})
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestLiquidationService_GenerateDataError(t *testing.T) {
	rec := scenarioRecord()
	rec.Insurance = domain.ParseAmount("n/a")
	s := newTestService(ExportSinks{}, rec)

	_, err := s.Generate(context.Background(), Request{Identifier: "20212246698", Campaign: domain.CampaignRedireccionamiento})
	var dataErr *domain.DataError
	require.True(t, errors.As(err, &dataErr))
	assert.Equal(t, domain.FieldInsurance, dataErr.Field)
}

func TestLiquidationService_Preview(t *testing.T) {
	s := newTestService(ExportSinks{}, scenarioRecord(), zeroAdminRecord("DROPPED"))

	p, err := s.Preview(context.Background(), "20212246698", domain.CampaignRedireccionamiento)
	require.NoError(t, err)

	assert.Equal(t, "EMPRESA DE PRUEBA S.A.C.", p.SubjectName)
	assert.Len(t, p.Records, 2)
	assert.Len(t, p.Rows, 1)
	assert.Equal(t, 2, p.RecordCount)
	assert.Equal(t, 1, p.ExcludedCount)
	assert.True(t, p.Totals.General.Equal(dec("648.18")))

	miss, err := s.Preview(context.Background(), "1", domain.CampaignPresunta)
	require.NoError(t, err)
	assert.Empty(t, miss.Rows)
	assert.True(t, miss.Totals.General.IsZero())
}

func TestLiquidationService_PreviewCanceled(t *testing.T) {
	s := newTestService(ExportSinks{}, scenarioRecord())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Preview(ctx, "20212246698", domain.CampaignRedireccionamiento)
	assert.ErrorIs(t, err, context.Canceled)
}

type memoryStatus struct {
	mu      sync.Mutex
	values  map[string]string
	members map[string]bool
}

func newMemoryStatus() *memoryStatus {
	return &memoryStatus{values: map[string]string{}, members: map[string]bool{}}
}

func (m *memoryStatus) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	return nil
}

func (m *memoryStatus) SAdd(ctx context.Context, key string, members ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range members {
		m.members[v.(string)] = true
	}
	return nil
}

func (m *memoryStatus) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", redis.ErrCacheMiss
	}
	return v, nil
}

func (m *memoryStatus) SMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.members))
	for k := range m.members {
		out = append(out, k)
	}
	return out, nil
}

type memoryStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *memoryStorage) Save(ctx context.Context, fileName string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := "abc_" + fileName
	m.files[name] = data
	return name, nil
}

func (m *memoryStorage) GetURL(fileName string) string {
	return "/files/" + fileName
}

type failingUploader struct{}

func (failingUploader) UploadDocument(ctx context.Context, fileName string, data []byte, contentType string) (string, error) {
	return "", errors.New("bucket unavailable")
}

func (failingUploader) GetTemporaryURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", errors.New("unreachable")
}

type recordingNotifier struct {
	mu       sync.Mutex
	stages   []string
	done     chan string
	failures chan string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{done: make(chan string, 1), failures: make(chan string, 1)}
}

func (n *recordingNotifier) NotifyExportProgress(ctx context.Context, userID int64, exportID string, progress float64, stage string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stages = append(n.stages, stage)
	return nil
}

func (n *recordingNotifier) NotifyExportComplete(ctx context.Context, userID int64, exportID string, url string, filename string) error {
	n.done <- url
	return nil
}

func (n *recordingNotifier) NotifyExportFailed(ctx context.Context, userID int64, exportID string, errMsg string) error {
	n.failures <- errMsg
	return nil
}

func TestLiquidationService_StartLiquidationExport(t *testing.T) {
	status := newMemoryStatus()
	storage := &memoryStorage{files: map[string][]byte{}}
	notifier := newRecordingNotifier()

	s := newTestService(ExportSinks{
		Status:   status,
		Storage:  storage,
		Uploader: failingUploader{},
		Notifier: notifier,
	}, scenarioRecord())

	exportID, err := s.StartLiquidationExport(context.Background(), Request{
		Identifier: "20212246698",
		Campaign:   domain.CampaignRedireccionamiento,
	}, 7)
	require.NoError(t, err)
	assert.Contains(t, exportID, "exports:")

	select {
	case url := <-notifier.done:
		assert.Equal(t, "/files/abc_LIQUIDACION_20212246698_REDIRECCIO_09032026.pdf", url)
	case msg := <-notifier.failures:
		t.Fatalf("export failed: %s", msg)
	case <-time.After(10 * time.Second):
		t.Fatal("export did not finish")
	}

	raw, err := status.Get(context.Background(), exportID)
	require.NoError(t, err)

	var st ExportStatus
	require.NoError(t, json.Unmarshal([]byte(raw), &st))
	assert.Equal(t, float64(100), st.Progress)
	assert.Equal(t, "ready", st.Stage)
	assert.Equal(t, int64(7), st.UserID)
	require.NotNil(t, st.FileURL)

	notifier.mu.Lock()
	assert.Equal(t, []string{"loading", "generating", "saved", "uploading", "ready"}, notifier.stages)
	notifier.mu.Unlock()
}

func TestLiquidationService_StartLiquidationExportFailure(t *testing.T) {
	status := newMemoryStatus()
	notifier := newRecordingNotifier()

	s := newTestService(ExportSinks{
		Status:   status,
		Storage:  &memoryStorage{files: map[string][]byte{}},
		Notifier: notifier,
	}, scenarioRecord())

	exportID, err := s.StartLiquidationExport(context.Background(), Request{
		Identifier: "20212246698",
		Campaign:   domain.CampaignPresunta,
	}, 1)
	require.NoError(t, err)

	select {
	case msg := <-notifier.failures:
		assert.Contains(t, msg, ErrNoRecords.Error())
	case <-time.After(10 * time.Second):
		t.Fatal("export did not fail")
	}

	raw, err := status.Get(context.Background(), exportID)
	require.NoError(t, err)
	var st ExportStatus
	require.NoError(t, json.Unmarshal([]byte(raw), &st))
	assert.Equal(t, "failed", st.Stage)
	assert.NotEmpty(t, st.Error)
}

func TestLiquidationService_StartLiquidationExportNeedsStorage(t *testing.T) {
	s := newTestService(ExportSinks{}, scenarioRecord())

	_, err := s.StartLiquidationExport(context.Background(), Request{Identifier: "20212246698"}, 1)
	assert.Error(t, err)
}

func TestLiquidationService_FileNameUsesPaymentDate(t *testing.T) {
	s := newTestService(ExportSinks{}, scenarioRecord())

	doc, err := s.Generate(context.Background(), Request{
		Identifier:  "20212246698",
		Campaign:    domain.CampaignRedireccionamiento,
		PaymentDate: "31/03/2026",
	})
	require.NoError(t, err)
	assert.Equal(t, "LIQUIDACION_20212246698_REDIRECCIO_31032026.pdf", doc.FileName)
}
