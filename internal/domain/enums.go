package domain

// TicketType is the AI classification of a customer ticket. The
// labels are the native ones used by the business and by the
// classifier prompt.
type TicketType string

const (
	TypeComplaint      TicketType = "Жалоба"
	TypeDataChange     TicketType = "Смена данных"
	TypeConsultation   TicketType = "Консультация"
	TypeClaim          TicketType = "Претензия"
	TypeAppMalfunction TicketType = "Неработоспособность приложения"
	TypeFraud          TicketType = "Мошеннические действия"
	TypeSpam           TicketType = "Спам"
)

// TicketTypes lists every valid classification label.
var TicketTypes = []TicketType{
	TypeComplaint, TypeDataChange, TypeConsultation, TypeClaim,
	TypeAppMalfunction, TypeFraud, TypeSpam,
}

func (t TicketType) String() string { return string(t) }

// ParseTicketType maps a raw label to a TicketType, defaulting to
// Консультация for anything outside the fixed set.
func ParseTicketType(raw string) TicketType {
	for _, t := range TicketTypes {
		if string(t) == raw {
			return t
		}
	}
	return TypeConsultation
}

// Sentiment is the emotional tone of a ticket.
type Sentiment string

const (
	SentimentPositive Sentiment = "Позитивный"
	SentimentNeutral  Sentiment = "Нейтральный"
	SentimentNegative Sentiment = "Негативный"
)

var Sentiments = []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative}

func (s Sentiment) String() string { return string(s) }

// ParseSentiment defaults to Нейтральный for unknown labels.
func ParseSentiment(raw string) Sentiment {
	for _, s := range Sentiments {
		if string(s) == raw {
			return s
		}
	}
	return SentimentNeutral
}

// Language is the detected ticket language.
type Language string

const (
	LangRU  Language = "RU"
	LangKZ  Language = "KZ"
	LangENG Language = "ENG"
)

var Languages = []Language{LangKZ, LangENG, LangRU}

func (l Language) String() string { return string(l) }

// ParseLanguage defaults to RU for unknown labels.
func ParseLanguage(raw string) Language {
	for _, l := range Languages {
		if string(l) == raw {
			return l
		}
	}
	return LangRU
}

// Segment is the customer tier.
type Segment string

const (
	SegmentMass     Segment = "Mass"
	SegmentVIP      Segment = "VIP"
	SegmentPriority Segment = "Priority"
)

func (s Segment) String() string { return string(s) }

// RequiresVIPHandling reports whether the segment needs a manager
// with the VIP skill.
func (s Segment) RequiresVIPHandling() bool {
	return s == SegmentVIP || s == SegmentPriority
}

// ParseSegment defaults to Mass for unknown labels.
func ParseSegment(raw string) Segment {
	switch Segment(raw) {
	case SegmentVIP:
		return SegmentVIP
	case SegmentPriority:
		return SegmentPriority
	default:
		return SegmentMass
	}
}

// Position is a manager's seniority rank.
type Position string

const (
	PositionSpecialist       Position = "Специалист"
	PositionSeniorSpecialist Position = "Ведущий специалист"
	PositionChiefSpecialist  Position = "Главный специалист"
)

func (p Position) String() string { return string(p) }

// ParsePosition defaults to Специалист for unknown labels.
func ParsePosition(raw string) Position {
	switch Position(raw) {
	case PositionSeniorSpecialist:
		return PositionSeniorSpecialist
	case PositionChiefSpecialist:
		return PositionChiefSpecialist
	default:
		return PositionSpecialist
	}
}

// GeoStatus tracks the lifecycle of a ticket's address resolution.
type GeoStatus string

const (
	GeoPending  GeoStatus = "pending"
	GeoResolved GeoStatus = "resolved"
	GeoFailed   GeoStatus = "failed"
	GeoAbroad   GeoStatus = "abroad"
)

func (g GeoStatus) String() string { return string(g) }
