package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fire/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOfficesSemicolonWithBOM(t *testing.T) {
	path := writeFile(t, t.TempDir(), "business_units.csv",
		"\ufeffОфис;Адрес;Широта;Долгота\n"+
			"ЦОК Алматы;пр-т Абая 10;43,238949;76,889709\n"+
			"ЦОК Тараз;ул. Толе би 5;;\n")

	offices, err := LoadOffices(path)
	require.NoError(t, err)
	require.Len(t, offices, 2)

	assert.Equal(t, "ЦОК Алматы", offices[0].Name)
	assert.Equal(t, "пр-т Абая 10", offices[0].Address)
	require.NotNil(t, offices[0].Latitude)
	assert.InDelta(t, 43.238949, *offices[0].Latitude, 1e-9)
	require.NotNil(t, offices[0].Longitude)

	assert.Equal(t, "ЦОК Тараз", offices[1].Name)
	assert.Nil(t, offices[1].Latitude)
	assert.Nil(t, offices[1].Longitude)
}

func TestLoadManagersCyrillicHeaders(t *testing.T) {
	path := writeFile(t, t.TempDir(), "managers.csv",
		"ФИО;Должность;Филиал;Навыки;Количество обращений в работе\n"+
			"Иванов Иван;специалист;ЦОК Алматы;VIP, KZ;4.0\n"+
			"Петрова Анна;ГЛАВНЫЙ СПЕЦИАЛИСТ;ЦОК Астана;;\n")

	managers, err := LoadManagers(path)
	require.NoError(t, err)
	require.Len(t, managers, 2)

	assert.Equal(t, "Иванов Иван", managers[0].Name)
	assert.Equal(t, domain.PositionSpecialist, managers[0].Position)
	assert.Equal(t, "ЦОК Алматы", managers[0].OfficeName)
	assert.True(t, managers[0].Skills.Has("VIP"))
	assert.True(t, managers[0].Skills.Has("KZ"))
	assert.Equal(t, 4, managers[0].CurrentLoad)

	assert.Equal(t, domain.PositionChiefSpecialist, managers[1].Position)
	assert.Empty(t, managers[1].Skills)
	assert.Zero(t, managers[1].CurrentLoad)
}

func TestLoadTicketsBusinessHeaders(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tickets.csv",
		"GUID клиента,Пол клиента,Дата рождения,Описание,Сегмент клиента,Страна,Область,Населённый пункт,Улица,Дом\n"+
			"abc-123,Ж,1990-05-17,Не работает приложение,VIP,Казахстан,Алматинская,Алматы,Абая,9.0\n"+
			",М,,Вопрос по тарифам,,,,Тараз,,\n")

	tickets, err := LoadTickets(path)
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	assert.Equal(t, "abc-123", tickets[0].GUID)
	assert.Equal(t, "Ж", tickets[0].Gender)
	assert.Equal(t, "1990-05-17", tickets[0].BirthDate)
	assert.Equal(t, "VIP", tickets[0].Segment)
	assert.Equal(t, "9", tickets[0].Building)

	// Missing guid and segment fall back to empty / Mass.
	assert.Empty(t, tickets[1].GUID)
	assert.Equal(t, "Mass", tickets[1].Segment)
	assert.Equal(t, "Тараз", tickets[1].City)
}

func TestFindCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "business_units.csv", "Офис\n")
	writeFile(t, dir, "managers_2024.csv", "ФИО\n")
	writeFile(t, dir, "notes.txt", "x")

	path, err := FindCSV(dir, "business_units", "offices")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "business_units.csv"), path)

	path, err = FindCSV(dir, "managers")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "managers_2024.csv"), path)

	path, err = FindCSV(dir, "tickets", "заявки")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestReadCSVNoFile(t *testing.T) {
	_, err := LoadOffices(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
