package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fire/internal/domain"
)

// OfficeRow is one parsed office record. Coordinates are nil when the
// export carries none; the seeder geocodes those lazily.
type OfficeRow struct {
	Name      string
	Address   string
	Latitude  *float64
	Longitude *float64
}

// ManagerRow is one parsed manager record. OfficeName is matched
// against seeded offices by the seeder.
type ManagerRow struct {
	Name        string
	Position    domain.Position
	OfficeName  string
	Skills      domain.SkillSet
	CurrentLoad int
}

// TicketRow is one parsed ticket record, all fields still textual.
type TicketRow struct {
	GUID        string
	Gender      string
	BirthDate   string
	Description string
	Attachments string
	Segment     string
	Country     string
	Region      string
	City        string
	Street      string
	Building    string
}

// readCSV reads a whole CSV file into rows keyed by normalized column
// name. The delimiter is sniffed from the header line because Excel RU
// exports use ";" while plain exports use ",".
func readCSV(path string) ([]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv %s has no header row", filepath.Base(path))
	}

	header := make([]string, len(records[0]))
	for i, col := range records[0] {
		header[i] = NormalizeColumnName(col)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = CleanString(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sniffDelimiter picks the delimiter with the most occurrences on the
// header line. Defaults to comma.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []byte{';', '\t'} {
		if c := bytes.Count(line, []byte{d}); c > bestCount {
			best, bestCount = rune(d), c
		}
	}
	return best
}

// pick returns the first non-empty value among the given column
// aliases.
func pick(row map[string]string, aliases ...string) string {
	for _, a := range aliases {
		if v := row[a]; v != "" {
			return v
		}
	}
	return ""
}

// LoadOffices parses an offices CSV. Headers may be Cyrillic
// ("Офис", "Адрес", "Широта", "Долгота") or English.
func LoadOffices(path string) ([]OfficeRow, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	out := make([]OfficeRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, OfficeRow{
			Name:      pick(row, "офис", "название", "name"),
			Address:   pick(row, "адрес", "address"),
			Latitude:  parseFloat(pick(row, "широта", "latitude")),
			Longitude: parseFloat(pick(row, "долгота", "longitude")),
		})
	}
	return out, nil
}

// LoadManagers parses a managers CSV. Headers may be Cyrillic
// ("ФИО", "Должность", "Филиал", "Навыки") or English.
func LoadManagers(path string) ([]ManagerRow, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	out := make([]ManagerRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, ManagerRow{
			Name:        pick(row, "фио", "имя", "name"),
			Position:    domain.ParsePosition(canonicalPosition(pick(row, "должность", "position"))),
			OfficeName:  pick(row, "филиал", "офис", "филиал_офис", "office"),
			Skills:      ParseSkills(pick(row, "навыки", "skills")),
			CurrentLoad: parseInt(pick(row, "количество_обращений_в_работе", "current_load", "load")),
		})
	}
	return out, nil
}

// LoadTickets parses a tickets CSV. The business export uses headers
// like "GUID клиента", "Пол клиента", "Населённый пункт".
func LoadTickets(path string) ([]TicketRow, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	out := make([]TicketRow, 0, len(rows))
	for _, row := range rows {
		segment := pick(row, "сегмент_клиента", "сегмент", "segment")
		if segment == "" {
			segment = string(domain.SegmentMass)
		}
		out = append(out, TicketRow{
			GUID:        pick(row, "guid_клиента", "guid", "id"),
			Gender:      pick(row, "пол_клиента", "пол", "gender"),
			BirthDate:   pick(row, "дата_рождения", "birth_date"),
			Description: pick(row, "описание", "description"),
			Attachments: pick(row, "вложения", "attachments"),
			Segment:     segment,
			Country:     pick(row, "страна", "country"),
			Region:      pick(row, "область", "регион", "region"),
			City:        pick(row, "населённый_пункт", "населенный_пункт", "город", "city"),
			Street:      pick(row, "улица", "street"),
			Building:    normalizeBuilding(pick(row, "дом", "building")),
		})
	}
	return out, nil
}

// FindCSV locates a CSV file in dir whose name contains any of the
// hints. Returns "" when nothing matches.
func FindCSV(dir string, hints ...string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to scan data dir: %w", err)
	}
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		stem := strings.TrimSuffix(name, ".csv")
		for _, hint := range hints {
			if strings.Contains(stem, hint) {
				return filepath.Join(dir, e.Name()), nil
			}
		}
	}
	return "", nil
}

// canonicalPosition maps case variants of the three ranks to their
// canonical spelling.
func canonicalPosition(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "специалист":
		return string(domain.PositionSpecialist)
	case "ведущий специалист":
		return string(domain.PositionSeniorSpecialist)
	case "главный специалист":
		return string(domain.PositionChiefSpecialist)
	}
	return raw
}

// parseFloat accepts the comma decimal separator used by RU locale
// exports. Returns nil for empty or malformed values.
func parseFloat(raw string) *float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseInt tolerates "4", "4.0" and "4,0". Malformed values become 0.
func parseInt(raw string) int {
	f := parseFloat(raw)
	if f == nil {
		return 0
	}
	return int(*f)
}

// normalizeBuilding strips the ".0" suffix Excel adds to numeric house
// numbers.
func normalizeBuilding(raw string) string {
	if raw == "" {
		return raw
	}
	f := parseFloat(raw)
	if f != nil && *f == float64(int64(*f)) {
		return strconv.FormatInt(int64(*f), 10)
	}
	return raw
}
