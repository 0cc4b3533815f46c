package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"fire/internal/classify"
	"fire/internal/domain"
	"fire/internal/ingest"
	"fire/internal/pipeline"
	"fire/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubClassifier struct{ analysis domain.Analysis }

func (c *stubClassifier) Analyze(context.Context, string, string) *domain.Analysis {
	a := c.analysis
	if a.ProcessedAt.IsZero() {
		a.ProcessedAt = time.Now().UTC()
	}
	return &a
}

type stubGeocoder struct{ point *domain.GeoPoint }

func (g *stubGeocoder) Geocode(context.Context, string) (*domain.GeoPoint, error) {
	return g.point, nil
}

type stubAssistant struct {
	question  string
	dashboard string
	answer    classify.AssistantAnswer
}

func (a *stubAssistant) Ask(_ context.Context, question, dashboard string) *classify.AssistantAnswer {
	a.question = question
	a.dashboard = dashboard
	reply := a.answer
	return &reply
}

var almatyPoint = domain.GeoPoint{Latitude: 43.238949, Longitude: 76.889709}

type fixture struct {
	store     *store.Store
	handler   http.Handler
	dataDir   string
	assistant *stubAssistant
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	classifier := &stubClassifier{analysis: domain.Analysis{
		Type:          domain.TypeConsultation,
		Sentiment:     domain.SentimentNeutral,
		PriorityScore: 4,
		Language:      domain.LangRU,
		Summary:       "вопрос по тарифам",
		ModelTag:      "stub",
	}}
	geocoder := &stubGeocoder{point: &almatyPoint}
	processor := pipeline.NewProcessor(s, classifier, geocoder, pipeline.Config{}, zap.NewNop())
	batch := pipeline.NewBatch(processor, 1, zap.NewNop())

	dataDir := t.TempDir()
	seeder := ingest.NewSeeder(s, geocoder, "Казахстан", zap.NewNop())
	assistant := &stubAssistant{}

	srv := New(Options{
		Addr:      ":0",
		Store:     s,
		Batch:     batch,
		Processor: processor,
		Seeder:    seeder,
		Assistant: assistant,
		DataDir:   dataDir,
		Logger:    zap.NewNop(),
	})
	return &fixture{store: s, handler: srv.Router(nil), dataDir: dataDir, assistant: assistant}
}

func (f *fixture) do(t *testing.T, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	return f.serve(t, httptest.NewRequest(method, target, nil))
}

func (f *fixture) doJSON(t *testing.T, method, target string, payload any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return f.serve(t, req)
}

func (f *fixture) upload(t *testing.T, filename string, content []byte) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/process/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return f.serve(t, req)
}

func (f *fixture) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func seedAssignedTicket(t *testing.T, s *store.Store) int64 {
	t.Helper()
	ctx := context.Background()

	officeID, err := s.CreateOffice(ctx, &domain.Office{
		Name: "ЦОК Алматы", Address: "пр-т Абая 10", Location: &almatyPoint,
	})
	require.NoError(t, err)
	managerID, err := s.CreateManager(ctx, &domain.Manager{
		Name: "Иванов Иван", Position: domain.PositionSpecialist, OfficeID: officeID,
		Skills: domain.NewSkillSet(),
	})
	require.NoError(t, err)
	ticketID, err := s.CreateTicket(ctx, &domain.Ticket{
		GUID: "t-1", Description: "Не работает приложение",
		Segment: domain.SegmentMass, City: "Алматы", GeoStatus: domain.GeoPending,
	})
	require.NoError(t, err)

	_, err = s.CreateAnalysis(ctx, &domain.Analysis{
		TicketID: ticketID, Type: domain.TypeAppMalfunction,
		Sentiment: domain.SentimentNeutral, PriorityScore: 8,
		Language: domain.LangRU, Summary: "Приложение не работает",
		ModelTag: "stub", ProcessedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	distance := 1.2
	_, err = s.CreateAssignment(ctx, &domain.Assignment{
		TicketID: ticketID, ManagerID: managerID, OfficeID: officeID,
		DistanceKm: &distance, Reason: "Nearest office: ЦОК Алматы (1.2 km)",
		AssignedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return ticketID
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec, body := f.do(t, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connected", body["database"])
}

func TestListTickets(t *testing.T) {
	f := newFixture(t)
	seedAssignedTicket(t, f.store)

	rec, body := f.do(t, http.MethodGet, "/api/tickets")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["total"])

	tickets := body["tickets"].([]any)
	ticket := tickets[0].(map[string]any)
	assert.Equal(t, "t-1", ticket["guid"])

	analytics := ticket["analytics"].(map[string]any)
	assert.Equal(t, "Неработоспособность приложения", analytics["ticket_type"])
	assert.EqualValues(t, 8, analytics["priority_score"])

	assignment := ticket["assignment"].(map[string]any)
	assert.Equal(t, "Иванов Иван", assignment["manager_name"])
	assert.Equal(t, "ЦОК Алматы", assignment["office_name"])
	assert.InDelta(t, 1.2, assignment["distance_km"].(float64), 1e-9)
}

func TestGetTicket(t *testing.T) {
	f := newFixture(t)
	id := seedAssignedTicket(t, f.store)

	rec, body := f.do(t, http.MethodGet, "/api/tickets/1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, id, body["id"])
	assert.NotNil(t, body["analytics"])

	rec, _ = f.do(t, http.MethodGet, "/api/tickets/999")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/api/tickets/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	f := newFixture(t)
	seedAssignedTicket(t, f.store)

	rec, body := f.do(t, http.MethodGet, "/api/analytics/summary")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["total_tickets"])
	assert.EqualValues(t, 1, body["assigned_count"])

	rec, body = f.do(t, http.MethodGet, "/api/analytics/managers")
	assert.Equal(t, http.StatusOK, rec.Code)
	managers := body["managers"].([]any)
	require.Len(t, managers, 1)
	assert.Equal(t, "Иванов Иван", managers[0].(map[string]any)["name"])
}

func TestProcessRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	officeID, err := f.store.CreateOffice(ctx, &domain.Office{
		Name: "ЦОК Алматы", Address: "пр-т Абая 10", Location: &almatyPoint,
	})
	require.NoError(t, err)
	_, err = f.store.CreateManager(ctx, &domain.Manager{
		Name: "Иванов Иван", Position: domain.PositionSpecialist, OfficeID: officeID,
		Skills: domain.NewSkillSet(),
	})
	require.NoError(t, err)
	_, err = f.store.CreateTicket(ctx, &domain.Ticket{
		GUID: "run-1", Description: "Вопрос по тарифам",
		Segment: domain.SegmentMass, Country: "Казахстан", City: "Алматы",
		GeoStatus: domain.GeoPending,
	})
	require.NoError(t, err)

	rec, body := f.do(t, http.MethodPost, "/api/process/run")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["processed"])
	assert.EqualValues(t, 0, body["failed"])

	results := body["results"].([]any)
	assert.Equal(t, "Иванов Иван", results[0].(map[string]any)["assigned_manager"])
}

func TestIngest(t *testing.T) {
	f := newFixture(t)
	writeCSV := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(f.dataDir, name), []byte(content), 0o644))
	}
	writeCSV("business_units.csv", "Офис;Адрес;Широта;Долгота\nЦОК Алматы;пр-т Абая 10;43,24;76,89\n")
	writeCSV("managers.csv", "ФИО;Должность;Филиал\nИванов Иван;Специалист;ЦОК Алматы\n")

	rec, body := f.do(t, http.MethodPost, "/api/process/ingest")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	counts := body["counts"].(map[string]any)
	assert.EqualValues(t, 1, counts["offices"])
	assert.EqualValues(t, 1, counts["managers"])
}

func TestAssistant(t *testing.T) {
	f := newFixture(t)
	seedAssignedTicket(t, f.store)
	f.assistant.answer = classify.AssistantAnswer{
		Answer: "Одно обращение, назначено Иванову.",
		Chart: &classify.Chart{
			Type:  "bar",
			Title: "Обращения по типам",
			Data:  []classify.ChartPoint{{Name: "Неработоспособность приложения", Value: 1}},
		},
	}

	rec, body := f.doJSON(t, http.MethodPost, "/api/analytics/assistant",
		map[string]string{"question": "Сколько обращений?"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Одно обращение, назначено Иванову.", body["answer"])

	chart := body["chart"].(map[string]any)
	assert.Equal(t, "bar", chart["type"])
	assert.Equal(t, "Обращения по типам", chart["title"])

	// The live statistics block travels with the question.
	assert.Equal(t, "Сколько обращений?", f.assistant.question)
	assert.Contains(t, f.assistant.dashboard, "Total tickets: 1")
	assert.Contains(t, f.assistant.dashboard, "Неработоспособность приложения: 1")
	assert.Contains(t, f.assistant.dashboard, "ЦОК Алматы: 1")
	assert.Contains(t, f.assistant.dashboard, "Иванов Иван (Специалист, ЦОК Алматы): load=0")
}

func TestAssistantRequiresQuestion(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.doJSON(t, http.MethodPost, "/api/analytics/assistant",
		map[string]string{"question": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessSingleTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	officeID, err := f.store.CreateOffice(ctx, &domain.Office{
		Name: "ЦОК Алматы", Address: "пр-т Абая 10", Location: &almatyPoint,
	})
	require.NoError(t, err)
	_, err = f.store.CreateManager(ctx, &domain.Manager{
		Name: "Иванов Иван", Position: domain.PositionSpecialist, OfficeID: officeID,
		Skills: domain.NewSkillSet(),
	})
	require.NoError(t, err)
	ticketID, err := f.store.CreateTicket(ctx, &domain.Ticket{
		GUID: "single-1", Description: "Вопрос по тарифам",
		Segment: domain.SegmentMass, Country: "Казахстан", City: "Алматы",
		GeoStatus: domain.GeoPending,
	})
	require.NoError(t, err)

	rec, body := f.do(t, http.MethodPost, fmt.Sprintf("/api/process/%d", ticketID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	result := body["result"].(map[string]any)
	assert.Equal(t, "Иванов Иван", result["assigned_manager"])

	rec, _ = f.do(t, http.MethodPost, "/api/process/999")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/process/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func writeSeedCSVs(t *testing.T, dir string) {
	t.Helper()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("business_units.csv", "Офис;Адрес;Широта;Долгота\nЦОК Алматы;пр-т Абая 10;43,24;76,89\n")
	write("managers.csv", "ФИО;Должность;Филиал\nИванов Иван;Специалист;ЦОК Алматы\n")
}

func TestUploadCSV(t *testing.T) {
	f := newFixture(t)
	writeSeedCSVs(t, f.dataDir)

	csv := "GUID клиента;Описание;Сегмент клиента;Страна;Населённый пункт\n" +
		"up-1;Вопрос по тарифам;Mass;Казахстан;Алматы\n"
	rec, body := f.upload(t, "tickets.csv", []byte(csv))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	counts := body["ingested_counts"].(map[string]any)
	assert.EqualValues(t, 1, counts["tickets"])

	processed := body["processed"].(map[string]any)
	assert.EqualValues(t, 1, processed["total"])
	assert.EqualValues(t, 1, processed["successful"])
	assert.EqualValues(t, 0, processed["failed"])
}

func TestUploadZip(t *testing.T) {
	f := newFixture(t)
	writeSeedCSVs(t, f.dataDir)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	addEntry := func(name, content string) {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	addEntry("export/tickets.csv",
		"GUID клиента;Описание;Сегмент клиента;Страна;Населённый пункт\n"+
			"zip-1;Вопрос по тарифам;Mass;Казахстан;Алматы\n")
	addEntry("export/photo.jpg", "jpeg-bytes")
	addEntry("__MACOSX/._tickets.csv", "metadata")
	require.NoError(t, zw.Close())

	rec, body := f.upload(t, "export.zip", buf.Bytes())
	require.Equal(t, http.StatusOK, rec.Code)

	processed := body["processed"].(map[string]any)
	assert.EqualValues(t, 1, processed["successful"])

	// Images from the archive land next to the CSVs for the
	// classifier's attachment lookup.
	_, err := os.Stat(filepath.Join(f.dataDir, "images", "photo.jpg"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(f.dataDir, "._tickets.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.upload(t, "notes.txt", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
