package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fire/internal/domain"
	"fire/internal/store"
)

type stubGeocoder struct {
	point *domain.GeoPoint
	calls int
}

func (g *stubGeocoder) Geocode(context.Context, string) (*domain.GeoPoint, error) {
	g.calls++
	return g.point, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func seedDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "business_units.csv",
		"Офис;Адрес;Широта;Долгота\n"+
			"ЦОК Алматы;пр-т Абая 10;43,238949;76,889709\n"+
			"ЦОК Астана;ул. Кунаева 12;;\n")
	writeFile(t, dir, "managers.csv",
		"ФИО;Должность;Филиал;Навыки\n"+
			"Иванов Иван;Специалист;Алматы;VIP\n"+
			"Петрова Анна;Главный специалист;ЦОК Астана;KZ, ENG\n"+
			"Сидоров Олег;Специалист;ЦОК Караганда;\n")
	writeFile(t, dir, "tickets.csv",
		"GUID клиента;Описание;Сегмент клиента;Населённый пункт\n"+
			"t-1;Не работает приложение;VIP;Алматы\n"+
			";Вопрос по тарифам;;Тараз\n")
	return dir
}

func TestSeedFromDir(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	geocoder := &stubGeocoder{point: &domain.GeoPoint{Latitude: 51.17, Longitude: 71.45}}
	seeder := NewSeeder(s, geocoder, "Казахстан", zap.NewNop())

	counts, err := seeder.SeedFromDir(ctx, seedDataDir(t))
	require.NoError(t, err)
	assert.Equal(t, Counts{Offices: 2, Managers: 2, Tickets: 2}, counts)

	// The office without CSV coordinates was geocoded on the way in.
	astana, err := s.GetOfficeByName(ctx, "ЦОК Астана")
	require.NoError(t, err)
	require.NotNil(t, astana)
	require.NotNil(t, astana.Location)
	assert.InDelta(t, 51.17, astana.Location.Latitude, 1e-9)
	assert.Equal(t, 1, geocoder.calls)

	// "Алматы" fuzzily matched "ЦОК Алматы"; the unknown office was
	// skipped.
	ivanov, err := s.GetManagerByName(ctx, "Иванов Иван")
	require.NoError(t, err)
	require.NotNil(t, ivanov)
	almaty, err := s.GetOfficeByName(ctx, "ЦОК Алматы")
	require.NoError(t, err)
	assert.Equal(t, almaty.ID, ivanov.OfficeID)

	sidorov, err := s.GetManagerByName(ctx, "Сидоров Олег")
	require.NoError(t, err)
	assert.Nil(t, sidorov)

	// The guid-less ticket got one generated.
	tickets, err := s.ListTickets(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "t-1", tickets[0].GUID)
	assert.NotEmpty(t, tickets[1].GUID)
	assert.Equal(t, domain.GeoPending, tickets[1].GeoStatus)
	assert.Equal(t, domain.SegmentMass, tickets[1].Segment)
}

func TestSeedFromDirIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	dir := seedDataDir(t)
	seeder := NewSeeder(s, &stubGeocoder{point: &domain.GeoPoint{Latitude: 51.17, Longitude: 71.45}}, "", zap.NewNop())

	_, err := seeder.SeedFromDir(ctx, dir)
	require.NoError(t, err)

	counts, err := seeder.SeedFromDir(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, Counts{}, counts)
}

func TestSeedFromDirRequiresOffices(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	writeFile(t, dir, "managers.csv", "ФИО;Должность;Филиал\n")

	seeder := NewSeeder(s, nil, "", zap.NewNop())
	_, err := seeder.SeedFromDir(context.Background(), dir)
	assert.ErrorContains(t, err, "no offices csv")
}

func TestReconcileOffices(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateOffice(ctx, &domain.Office{Name: "ЦОК Шымкент", Address: "ул. Байтурсынова 1"})
	require.NoError(t, err)
	located, err := s.CreateOffice(ctx, &domain.Office{
		Name: "ЦОК Алматы", Address: "пр-т Абая 10",
		Location: &domain.GeoPoint{Latitude: 43.24, Longitude: 76.89},
	})
	require.NoError(t, err)

	geocoder := &stubGeocoder{point: &domain.GeoPoint{Latitude: 42.31, Longitude: 69.59}}
	seeder := NewSeeder(s, geocoder, "Казахстан", zap.NewNop())

	resolved, err := seeder.ReconcileOffices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)
	assert.Equal(t, 1, geocoder.calls)

	shymkent, err := s.GetOfficeByName(ctx, "ЦОК Шымкент")
	require.NoError(t, err)
	require.NotNil(t, shymkent.Location)
	assert.InDelta(t, 42.31, shymkent.Location.Latitude, 1e-9)

	// The located office was untouched.
	almaty, err := s.GetOfficeByID(ctx, located)
	require.NoError(t, err)
	assert.InDelta(t, 43.24, almaty.Location.Latitude, 1e-9)
}

func TestReconcileOfficesUnresolvable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.CreateOffice(ctx, &domain.Office{Name: "ЦОК Неизвестный"})
	require.NoError(t, err)

	seeder := NewSeeder(s, &stubGeocoder{}, "", zap.NewNop())
	resolved, err := seeder.ReconcileOffices(ctx)
	require.NoError(t, err)
	assert.Zero(t, resolved)

	missing, err := s.ListOfficesWithoutLocation(ctx)
	require.NoError(t, err)
	assert.Len(t, missing, 1)
}
