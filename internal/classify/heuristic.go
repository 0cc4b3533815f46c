package classify

import (
	"strings"
	"time"

	"fire/internal/domain"
)

const (
	spamModelTag       = "spam-heuristic"
	fallbackModelTag   = "heuristic-fallback"
	spamSummary        = "Спам/реклама. Обращение не относится к поддержке."
	fallbackSummaryCap = 200
)

// LooksLikeSpam reports whether the text is an obvious ad or bulk
// sales pitch. Spam never reaches the LLM.
func LooksLikeSpam(text string) bool {
	t := strings.ToLower(text)
	if urlRe.MatchString(t) {
		if hasAny(t, spamLinkMarkers) {
			return true
		}
		// Long marketing-style body around a link.
		if len(t) > 200 && strings.Contains(t, "http") &&
			(strings.Contains(t, "предлож") || strings.Contains(t, "цена")) {
			return true
		}
	}
	return hasAny(t, spamBareMarkers)
}

// hasStrongNegativeEvidence is the single gate for calling a ticket
// negative: escalation phrases, a whole-word legal threat, or runs of
// exclamation marks.
func hasStrongNegativeEvidence(text string) bool {
	t := strings.ToLower(text)
	if hasAny(t, strongNegativeMarkers) {
		return true
	}
	if lawsuitWordRe.MatchString(text) {
		return true
	}
	return multiExclaimRe.MatchString(text)
}

func hasUrgency(text string) bool {
	t := strings.ToLower(text)
	return hasAny(t, urgencyMarkers) || hasAny(t, blockedMarkers)
}

// detectSentiment applies the deterministic sentiment rules in order:
// spam and help requests stay neutral, only strong evidence moves the
// needle in either direction.
func detectSentiment(text string) domain.Sentiment {
	t := strings.ToLower(text)

	if LooksLikeSpam(text) {
		return domain.SentimentNeutral
	}
	if hasStrongNegativeEvidence(text) {
		return domain.SentimentNegative
	}
	if hasAny(t, issueMarkers) {
		return domain.SentimentNeutral
	}
	if hasAny(t, strongPositiveMarkers) {
		return domain.SentimentPositive
	}
	return domain.SentimentNeutral
}

// spamResult builds the terminal analysis for spam tickets.
func spamResult() *domain.Analysis {
	return &domain.Analysis{
		Type:          domain.TypeSpam,
		Sentiment:     domain.SentimentNeutral,
		PriorityScore: 1,
		Language:      domain.LangRU,
		Summary:       spamSummary,
		ModelTag:      spamModelTag,
		ProcessedAt:   time.Now().UTC(),
	}
}

// heuristicFallback classifies without the LLM: keyword buckets for
// type and priority, marker lists for language and sentiment.
func heuristicFallback(description string) *domain.Analysis {
	if LooksLikeSpam(description) {
		a := spamResult()
		a.ModelTag = fallbackModelTag
		return a
	}

	text := strings.ToLower(description)

	language := domain.LangRU
	switch {
	case hasAny(text, kzLanguageMarkers):
		language = domain.LangKZ
	case hasAny(text, engLanguageMarkers):
		language = domain.LangENG
	}

	var (
		ticketType domain.TicketType
		priority   int
	)
	switch {
	case hasAny(text, []string{"мошен", "fraud", "алаяқ", "взлом", "украли", "списали деньги"}):
		ticketType, priority = domain.TypeFraud, 9
	case hasAny(text, []string{"жалоб", "complaint", "шағым"}):
		ticketType, priority = domain.TypeComplaint, 7
	case hasAny(text, []string{"заблок", "счета заблокированы", "не могу войти", "доступ"}):
		ticketType, priority = domain.TypeComplaint, 8
	case hasAny(text, []string{"смена данных", "изменить", "данные", "деректер"}):
		ticketType, priority = domain.TypeDataChange, 5
	case hasAny(text, []string{"приложен", "app", "қосымша", "не работает", "ошибк"}):
		ticketType, priority = domain.TypeAppMalfunction, 6
	case hasAny(text, []string{"претенз", "claim", "талап"}):
		ticketType, priority = domain.TypeClaim, 7
	default:
		ticketType, priority = domain.TypeConsultation, 4
	}

	summary := description
	if runes := []rune(summary); len(runes) > fallbackSummaryCap {
		summary = string(runes[:fallbackSummaryCap])
	}

	return &domain.Analysis{
		Type:          ticketType,
		Sentiment:     detectSentiment(description),
		PriorityScore: priority,
		Language:      language,
		Summary:       summary,
		ModelTag:      fallbackModelTag,
		ProcessedAt:   time.Now().UTC(),
	}
}

// postAdjust runs after both the LLM and the fallback path. It boosts
// priority for fraud, blocked accounts and urgency, and overrides
// sentiment only on unambiguous evidence. Spam passes through as-is.
func postAdjust(a *domain.Analysis, originalText string) *domain.Analysis {
	if a.Type == domain.TypeSpam {
		return a
	}

	text := strings.TrimSpace(originalText)
	t := strings.ToLower(text)

	strongNeg := hasStrongNegativeEvidence(text)
	strongPos := hasAny(t, strongPositiveMarkers)
	weakPosOnly := (hasAny(t, weakPositiveMarkers) || thxWordRe.MatchString(text)) && !strongPos

	switch {
	case hasAny(t, fraudMarkers):
		if a.PriorityScore < 9 {
			a.PriorityScore = 9
		}
	case hasAny(t, blockedMarkers) || hasUrgency(text):
		if a.PriorityScore < 8 {
			a.PriorityScore = 8
		}
	}

	if a.PriorityScore < 1 {
		a.PriorityScore = 1
	}
	if a.PriorityScore > 10 {
		a.PriorityScore = 10
	}

	switch {
	case strongNeg:
		a.Sentiment = domain.SentimentNegative
	case strongPos:
		a.Sentiment = domain.SentimentPositive
	case weakPosOnly:
		a.Sentiment = domain.SentimentNeutral
	case a.Sentiment == domain.SentimentNegative:
		// Model said negative but the text carries no strong evidence.
		a.Sentiment = domain.SentimentNeutral
	}

	return a
}
