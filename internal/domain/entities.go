package domain

import (
	"sort"
	"strings"
	"time"
)

// SkillSet is a set of short uppercase skill codes ("VIP", "KZ", "ENG").
type SkillSet map[string]bool

// NewSkillSet builds a set from raw codes, uppercasing and trimming each.
func NewSkillSet(codes ...string) SkillSet {
	s := make(SkillSet, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c != "" {
			s[c] = true
		}
	}
	return s
}

// Has reports whether the set contains the given code.
func (s SkillSet) Has(code string) bool { return s[code] }

// ContainsAll reports whether every skill in req is present.
func (s SkillSet) ContainsAll(req SkillSet) bool {
	for code := range req {
		if !s[code] {
			return false
		}
	}
	return true
}

// List returns the codes sorted, for stable storage and logging.
func (s SkillSet) List() []string {
	out := make([]string, 0, len(s))
	for code := range s {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Ticket is a customer request received during off-hours. Created by
// ingestion; the pipeline mutates only Location and GeoStatus.
type Ticket struct {
	ID          int64
	GUID        string
	Gender      string
	BirthDate   *time.Time
	Description string
	Attachments string
	Segment     Segment
	Country     string
	Region      string
	City        string
	Street      string
	Building    string
	Location    *GeoPoint
	GeoStatus   GeoStatus
	CreatedAt   time.Time
}

// AddressKnown reports whether the client's coordinates are resolved.
func (t *Ticket) AddressKnown() bool { return t.Location != nil }

// AddressString builds a geocoding query of the form
// "<country>, <region>, <city>, <street building>". Street and
// building are combined into one part for better provider accuracy.
// Returns "" when fewer than two parts are available; such an
// address is deemed unknown.
func (t *Ticket) AddressString(defaultCountry string) string {
	streetPart := strings.TrimSpace(strings.Join(nonEmpty(t.Street, t.Building), " "))

	country := strings.TrimSpace(t.Country)
	if country == "" {
		country = defaultCountry
	}

	parts := nonEmpty(country, t.Region, t.City, streetPart)
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts, ", ")
}

// domesticIdentifiers are well-known domestic city and region names
// (Cyrillic and transliterated) used to infer domesticity when the
// country field is empty.
var domesticIdentifiers = []string{
	// Major cities
	"алматы", "almaty", "астана", "astana", "нур-султан", "nur-sultan",
	"шымкент", "shymkent", "караганда", "karaganda", "qaraghandy",
	"актобе", "aktobe", "aqtobe", "тараз", "taraz", "павлодар", "pavlodar",
	"усть-каменогорск", "ust-kamenogorsk", "oskemen", "семей", "semey",
	"атырау", "atyrau", "костанай", "kostanay", "кызылорда", "kyzylorda",
	"актау", "aktau", "aqtau", "уральск", "uralsk", "oral",
	"петропавловск", "petropavlovsk", "petropavl", "туркестан", "turkestan",
	"кокшетау", "kokshetau", "талдыкорган", "taldykorgan", "жезказган", "zhezkazgan",
	"экибастуз", "ekibastuz", "темиртау", "temirtau", "рудный", "rudny",
	// Regions
	"акмолинская", "akmola", "алматинская", "атырауская",
	"актюбинская", "жамбылская", "zhambyl", "карагандинская",
	"костанайская", "кызылординская", "мангистауская", "mangystau",
	"павлодарская", "северо-казахстанская", "туркестанская",
	"восточно-казахстанская", "абайская", "abai",
	"улытауская", "ulytau", "жетысуская", "zhetysu",
}

// IsDomestic reports whether the ticket originates in the home
// country. An explicit country field wins; otherwise well-known
// domestic city/region identifiers are matched as substrings.
func (t *Ticket) IsDomestic(domesticCountry string) bool {
	if c := strings.TrimSpace(t.Country); c != "" {
		return strings.EqualFold(c, domesticCountry)
	}

	city := strings.ToLower(strings.TrimSpace(t.City))
	region := strings.ToLower(strings.TrimSpace(t.Region))
	for _, id := range domesticIdentifiers {
		if (city != "" && strings.Contains(city, id)) ||
			(region != "" && strings.Contains(region, id)) {
			return true
		}
	}
	return false
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Manager is an employee who handles tickets. Only CurrentLoad is
// mutated by the pipeline, via an atomic increment.
type Manager struct {
	ID          int64
	Name        string
	Position    Position
	OfficeID    int64
	Skills      SkillSet
	CurrentLoad int
}

// HasSkill reports whether the manager has the given skill code.
func (m *Manager) HasSkill(code string) bool { return m.Skills.Has(code) }

// IsChief reports whether the manager holds the chief specialist rank.
func (m *Manager) IsChief() bool { return m.Position == PositionChiefSpecialist }

// Office is a branch with a physical address. Location may be nil
// when geocoding has not resolved it yet; such offices are skipped by
// nearest selection but stay eligible for the fallback.
type Office struct {
	ID       int64
	Name     string
	Address  string
	Location *GeoPoint
}

// Assignment records the routing decision for one ticket. Immutable
// once written; one per ticket.
type Assignment struct {
	ID           int64
	TicketID     int64
	ManagerID    int64
	OfficeID     int64
	DistanceKm   *float64
	Reason       string
	FallbackUsed bool
	AssignedAt   time.Time
}

// Analysis is the AI enrichment of one ticket. Immutable once
// written; one per ticket.
type Analysis struct {
	ID            int64
	TicketID      int64
	Type          TicketType
	Sentiment     Sentiment
	PriorityScore int
	Language      Language
	Summary       string
	ModelTag      string
	ProcessedAt   time.Time
}
