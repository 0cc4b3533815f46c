package classify

import (
	"regexp"
	"strings"
)

// Marker tables drive the deterministic side of classification: spam
// short-circuit, sentiment overrides and the offline fallback. Kept as
// data so tuning them never touches control flow.

var urlRe = regexp.MustCompile(`(?i)https?://\S+`)

// Strong positive: clear satisfaction or resolution.
var strongPositiveMarkers = []string{
	"всё решено", "все решено", "решили", "помогли",
	"всё заработало", "все заработало", "доволен", "довольна",
	"замечательно", "прекрасно", "молодцы",
	"great", "well done", "resolved", "fixed", "it works now",
}

// Weak positive: plain thanks without a resolved outcome. Alone it is
// not enough to call the ticket positive.
var weakPositiveMarkers = []string{
	"спасибо", "спс", "рахмет", "thank you", "thanks", "благодарю",
	"благодарен", "благодарна",
}

// Issue markers: the customer has a problem or question but is not
// necessarily upset.
var issueMarkers = []string{
	"проблем", "вопрос", "подскажите", "помогите", "как сделать",
	"как изменить", "не получается", "доступ", "нужна помощь",
	"консультация", "уточнить", "разъяснить", "не понимаю",
	"how to", "question", "help me", "issue",
}

// Fraud and security markers.
var fraudMarkers = []string{
	"мошенн", "fraud", "scam", "алаяқ",
	"списали деньги", "деньги пропали",
	"несанкционирован", "unauthorized",
}

// Blocked account and lost access markers.
var blockedMarkers = []string{
	"заблок", "не могу войти", "счета заблокированы",
	"account blocked", "locked out",
}

var urgencyMarkers = []string{
	"срочно", "немедленно", "сейчас же", "urgent", "asap", "immediately",
}

// Escalation language, legal threats and profanity.
var strongNegativeMarkers = []string{
	"верните", "требую", "обман", "ужас", "безобраз", "недопустимо",
	"жалоб", "претенз", "прокуратур", "регулятор", "задолбал", "достали",
	"заеба", "блять", "хуй", "охуе", "пиздец", "сука", "ебан", "черт", "тварь",
}

// Spam markers that matter only next to a link.
var spamLinkMarkers = []string{
	"выгодное предложение", "специальные цены", "в наличии",
	"минимальный заказ", "отгрузка", "подберем оборудование",
	"питомник", "тюльпаны", "скидк", "купите", "закажите", "реклама",
}

// Spam markers that are strong enough on their own.
var spamBareMarkers = []string{
	"специальные цены", "минимальный заказ", "в наличии",
	"оптов", "прайс", "коммерческое предложение",
}

var kzLanguageMarkers = []string{
	"сәлем", "қалай", "мен", "маған", "жасау", "өтініш", "рахмет",
}

var engLanguageMarkers = []string{
	"hello", "please", "want", "need", "help", "issue", "thank you", "thanks",
}

// Exclamation runs signal emotional intensity.
var multiExclaimRe = regexp.MustCompile(`!{2,}`)

// Whole-word patterns. Go's \b is ASCII-only, so Cyrillic words need
// explicit non-letter boundaries: "суд" must not match inside "судьба".
var (
	lawsuitWordRe = wholeWordRe("суд")
	thxWordRe     = wholeWordRe("thx")
)

func wholeWordRe(word string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(word) + `(?:$|[^\p{L}\p{N}_])`)
}

func hasAny(lowered string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lowered, m) {
			return true
		}
	}
	return false
}
