package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fire/internal/domain"
	"fire/internal/geocode"
	"fire/internal/store"
)

// Counts reports how many records a seed run created.
type Counts struct {
	Offices  int `json:"offices"`
	Managers int `json:"managers"`
	Tickets  int `json:"tickets"`
}

// Seeder imports CSV data into the store. Re-running is safe: existing
// offices, managers and tickets are skipped by their natural keys.
type Seeder struct {
	store    *store.Store
	geocoder geocode.Geocoder
	country  string
	logger   *zap.Logger
}

// NewSeeder wires a seeder. geocoder may be nil to skip office
// geocoding entirely.
func NewSeeder(s *store.Store, geocoder geocode.Geocoder, country string, logger *zap.Logger) *Seeder {
	if country == "" {
		country = "Казахстан"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{store: s, geocoder: geocoder, country: country, logger: logger}
}

// SeedFromDir discovers the office, manager and ticket CSVs in dataDir
// by name and imports them. Offices and managers are required, tickets
// optional.
func (s *Seeder) SeedFromDir(ctx context.Context, dataDir string) (Counts, error) {
	var counts Counts

	officeCSV, err := FindCSV(dataDir, "business_units", "business", "units", "offices", "офисы", "филиалы")
	if err != nil {
		return counts, err
	}
	if officeCSV == "" {
		return counts, fmt.Errorf("no offices csv found in %s", dataDir)
	}
	managerCSV, err := FindCSV(dataDir, "managers", "менеджеры", "сотрудники")
	if err != nil {
		return counts, err
	}
	if managerCSV == "" {
		return counts, fmt.Errorf("no managers csv found in %s", dataDir)
	}
	ticketCSV, err := FindCSV(dataDir, "tickets", "заявки", "тикеты", "обращения")
	if err != nil {
		return counts, err
	}

	if counts.Offices, err = s.seedOffices(ctx, officeCSV); err != nil {
		return counts, err
	}
	if counts.Managers, err = s.seedManagers(ctx, managerCSV); err != nil {
		return counts, err
	}
	if ticketCSV != "" {
		if counts.Tickets, err = s.SeedTickets(ctx, ticketCSV); err != nil {
			return counts, err
		}
	} else {
		s.logger.Info("no tickets csv found, skipping ticket import")
	}

	s.logger.Info("seed complete",
		zap.Int("offices", counts.Offices),
		zap.Int("managers", counts.Managers),
		zap.Int("tickets", counts.Tickets))
	return counts, nil
}

func (s *Seeder) seedOffices(ctx context.Context, path string) (int, error) {
	rows, err := LoadOffices(path)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, row := range rows {
		if row.Name == "" {
			continue
		}
		existing, err := s.store.GetOfficeByName(ctx, row.Name)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}

		office := domain.Office{Name: row.Name, Address: row.Address}
		if row.Latitude != nil && row.Longitude != nil {
			office.Location = &domain.GeoPoint{Latitude: *row.Latitude, Longitude: *row.Longitude}
		} else if s.geocoder != nil {
			office.Location = s.geocodeOffice(ctx, row.Name, row.Address)
		}

		if _, err := s.store.CreateOffice(ctx, &office); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// ReconcileOffices re-geocodes offices still missing coordinates.
// Offices that stay unresolved are excluded from nearest selection but
// remain eligible for the fallback. Returns the number resolved.
func (s *Seeder) ReconcileOffices(ctx context.Context) (int, error) {
	if s.geocoder == nil {
		return 0, nil
	}
	missing, err := s.store.ListOfficesWithoutLocation(ctx)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, office := range missing {
		point := s.geocodeOffice(ctx, office.Name, office.Address)
		if point == nil {
			s.logger.Warn("office has no coordinates after geocoding, excluded from nearest selection",
				zap.String("office", office.Name))
			continue
		}
		if err := s.store.UpdateOfficeLocation(ctx, office.ID, point); err != nil {
			return resolved, err
		}
		s.logger.Info("geocoded office",
			zap.String("office", office.Name),
			zap.Float64("lat", point.Latitude),
			zap.Float64("lon", point.Longitude))
		resolved++
	}
	return resolved, nil
}

func (s *Seeder) geocodeOffice(ctx context.Context, name, address string) *domain.GeoPoint {
	var parts []string
	for _, p := range []string{s.country, name, address} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	point, err := s.geocoder.Geocode(ctx, strings.Join(parts, ", "))
	if err != nil {
		s.logger.Warn("office geocoding failed", zap.String("office", name), zap.Error(err))
		return nil
	}
	return point
}

func (s *Seeder) seedManagers(ctx context.Context, path string) (int, error) {
	rows, err := LoadManagers(path)
	if err != nil {
		return 0, err
	}
	offices, err := s.store.ListOffices(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, row := range rows {
		if row.Name == "" {
			continue
		}
		officeID := resolveOfficeID(row.OfficeName, offices)
		if officeID == 0 {
			s.logger.Warn("manager references unknown office, skipping",
				zap.String("manager", row.Name), zap.String("office", row.OfficeName))
			continue
		}

		existing, err := s.store.GetManagerByName(ctx, row.Name)
		if err != nil {
			return created, err
		}
		if existing != nil && existing.OfficeID == officeID {
			continue
		}

		// Initial load comes from the export so rotation starts from
		// the real workload.
		if _, err := s.store.CreateManager(ctx, &domain.Manager{
			Name:        row.Name,
			Position:    row.Position,
			OfficeID:    officeID,
			Skills:      row.Skills,
			CurrentLoad: row.CurrentLoad,
		}); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// SeedTickets imports a tickets CSV. Tickets without a GUID get one
// generated; tickets whose GUID already exists are skipped.
func (s *Seeder) SeedTickets(ctx context.Context, path string) (int, error) {
	rows, err := LoadTickets(path)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, row := range rows {
		guid := row.GUID
		if guid == "" {
			// Deterministic backfill: re-ingesting the same export must
			// not duplicate guid-less rows.
			seed := strings.Join([]string{row.Gender, row.BirthDate, row.Description, row.City, row.Street, row.Building}, "|")
			guid = uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
		}
		existing, err := s.store.GetTicketByGUID(ctx, guid)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}

		if _, err := s.store.CreateTicket(ctx, &domain.Ticket{
			GUID:        guid,
			Gender:      row.Gender,
			BirthDate:   parseDate(row.BirthDate),
			Description: row.Description,
			Attachments: row.Attachments,
			Segment:     domain.ParseSegment(row.Segment),
			Country:     row.Country,
			Region:      row.Region,
			City:        row.City,
			Street:      row.Street,
			Building:    row.Building,
			GeoStatus:   domain.GeoPending,
		}); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// parseDate tries the date formats seen in the business exports.
func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{
		"2006-01-02",
		"2006-01-02 15:04",
		"2006-01-02 15:04:05",
		"02.01.2006",
		"02/01/2006",
		"01/02/2006",
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// resolveOfficeID matches an office by exact name first, then by
// substring in either direction ("Алматы" matches "ЦОК Алматы").
// Returns 0 when nothing matches.
func resolveOfficeID(name string, offices []domain.Office) int64 {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0
	}
	for _, o := range offices {
		if o.Name == name {
			return o.ID
		}
	}
	lower := strings.ToLower(name)
	for _, o := range offices {
		known := strings.ToLower(o.Name)
		if strings.Contains(known, lower) || strings.Contains(lower, known) {
			return o.ID
		}
	}
	return 0
}
