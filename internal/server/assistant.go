package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"fire/internal/classify"
)

// handleAssistant answers a natural-language question about the
// dashboard: live statistics are gathered from the store and sent to
// the LLM together with the question.
func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.respondError(w, http.StatusBadRequest, errors.New("question is required"))
		return
	}
	if s.assistant == nil {
		s.respondJSON(w, http.StatusOK, classify.AssistantAnswer{
			Answer: "AI assistant is not available: the LLM API key is not configured.",
		})
		return
	}

	dashboard, err := s.dashboardContext(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.assistant.Ask(r.Context(), req.Question, dashboard))
}

// dashboardContext renders the statistics block the assistant reasons
// over. Group keys are sorted so the block is stable.
func (s *Server) dashboardContext(ctx context.Context) (string, error) {
	summary, err := s.store.Summary(ctx)
	if err != nil {
		return "", err
	}
	segments, err := s.store.SegmentCounts(ctx)
	if err != nil {
		return "", err
	}
	offices, err := s.store.OfficeAssignmentCounts(ctx)
	if err != nil {
		return "", err
	}
	fallbacks, err := s.store.FallbackCount(ctx)
	if err != nil {
		return "", err
	}
	loads, err := s.store.ManagerLoads(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("=== FIRE Dashboard Data ===\n")
	fmt.Fprintf(&b, "Total tickets: %d\n", summary.TotalTickets)
	fmt.Fprintf(&b, "Processed: %d\n", summary.ProcessedCount)
	fmt.Fprintf(&b, "Assigned: %d\n", summary.AssignedCount)
	fmt.Fprintf(&b, "Unprocessed: %d\n", summary.TotalTickets-summary.ProcessedCount)
	fmt.Fprintf(&b, "Fallback assignments: %d\n", fallbacks)
	fmt.Fprintf(&b, "Average priority score: %.1f\n", summary.AveragePriority)

	writeCountGroup(&b, "By ticket type", summary.ByType)
	writeCountGroup(&b, "By sentiment", summary.BySentiment)
	writeCountGroup(&b, "By language", summary.ByLanguage)
	writeCountGroup(&b, "By segment", segments)
	writeCountGroup(&b, "By office (assignments)", offices)

	b.WriteString("\nManager loads (top 20):\n")
	if len(loads) > 20 {
		loads = loads[:20]
	}
	for _, ml := range loads {
		fmt.Fprintf(&b, "  %s (%s, %s): load=%d\n", ml.Name, ml.Position, ml.OfficeName, ml.CurrentLoad)
	}
	return b.String(), nil
}

func writeCountGroup(b *strings.Builder, title string, counts map[string]int) {
	b.WriteString("\n" + title + ":\n")
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "  %s: %d\n", k, counts[k])
	}
}
