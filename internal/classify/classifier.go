package classify

import (
	"context"

	"fire/internal/domain"
)

// Classifier produces an analysis for a ticket description. It never
// fails: every implementation degrades to the deterministic fallback
// rather than returning an error, so the pipeline always gets an
// analysis to route on.
type Classifier interface {
	Analyze(ctx context.Context, description, attachments string) *domain.Analysis
}

// HeuristicClassifier is the offline classifier: marker tables only,
// no network. Used directly when no API key is configured and as the
// degradation target of the LLM path.
type HeuristicClassifier struct{}

// NewHeuristicClassifier returns the rule-based classifier.
func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

// Analyze classifies using marker tables alone.
func (h *HeuristicClassifier) Analyze(_ context.Context, description, _ string) *domain.Analysis {
	if LooksLikeSpam(description) {
		return spamResult()
	}
	return postAdjust(heuristicFallback(description), description)
}
