package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fire/internal/domain"
)

const serviceName = "FIRE - Freedom Intelligent Routing Engine"

type ticketView struct {
	ID          int64           `json:"id"`
	GUID        string          `json:"guid"`
	Gender      string          `json:"gender,omitempty"`
	BirthDate   string          `json:"birth_date,omitempty"`
	Description string          `json:"description"`
	Attachments string          `json:"attachments,omitempty"`
	Segment     string          `json:"segment"`
	Country     string          `json:"country,omitempty"`
	Region      string          `json:"region,omitempty"`
	City        string          `json:"city,omitempty"`
	Street      string          `json:"street,omitempty"`
	Building    string          `json:"building,omitempty"`
	ClientLat   *float64        `json:"client_lat"`
	ClientLon   *float64        `json:"client_lon"`
	GeoStatus   string          `json:"geo_status"`
	CreatedAt   string          `json:"created_at"`
	Analytics   *analyticsView  `json:"analytics"`
	Assignment  *assignmentView `json:"assignment"`
}

type analyticsView struct {
	TicketType    string `json:"ticket_type"`
	Sentiment     string `json:"sentiment"`
	PriorityScore int    `json:"priority_score"`
	Language      string `json:"language"`
	Summary       string `json:"summary"`
	LLMModel      string `json:"llm_model,omitempty"`
}

type assignmentView struct {
	ManagerID    int64    `json:"manager_id"`
	ManagerName  string   `json:"manager_name,omitempty"`
	OfficeID     int64    `json:"office_id"`
	OfficeName   string   `json:"office_name,omitempty"`
	DistanceKm   *float64 `json:"distance_km"`
	FallbackUsed bool     `json:"fallback_used"`
	Reason       string   `json:"assignment_reason,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	status := "ok"
	if err := s.store.DB().PingContext(r.Context()); err != nil {
		dbStatus = "error: " + err.Error()
		status = "degraded"
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":   status,
		"database": dbStatus,
		"service":  serviceName,
	})
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tickets, err := s.store.ListTickets(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	analyses, err := s.store.ListAnalyses(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	assignments, err := s.store.ListAssignments(ctx)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	names, err := s.lookupNames(r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	analysisByTicket := make(map[int64]*domain.Analysis, len(analyses))
	for i := range analyses {
		analysisByTicket[analyses[i].TicketID] = &analyses[i]
	}
	assignmentByTicket := make(map[int64]*domain.Assignment, len(assignments))
	for i := range assignments {
		assignmentByTicket[assignments[i].TicketID] = &assignments[i]
	}

	views := make([]ticketView, 0, len(tickets))
	for i := range tickets {
		t := &tickets[i]
		views = append(views, serializeTicket(t, analysisByTicket[t.ID], assignmentByTicket[t.ID], names))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"total":   len(views),
		"tickets": views,
	})
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	ticket, err := s.store.GetTicketByID(ctx, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	if ticket == nil {
		http.Error(w, "ticket not found", http.StatusNotFound)
		return
	}

	analysis, err := s.store.GetAnalysisByTicket(ctx, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	assignment, err := s.store.GetAssignmentByTicket(ctx, id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	names, err := s.lookupNames(r)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	s.respondJSON(w, http.StatusOK, serializeTicket(ticket, analysis, assignment, names))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.store.Summary(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleManagerLoads(w http.ResponseWriter, r *http.Request) {
	loads, err := s.store.ManagerLoads(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"total":    len(loads),
		"managers": loads,
	})
}

func (s *Server) handleProcessRun(w http.ResponseWriter, r *http.Request) {
	results, err := s.batch.Run(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"processed": len(results),
		"failed":    failed,
		"results":   results,
	})
}

// handleProcessTicket runs the pipeline for one ticket by id.
// Re-triggering an assigned ticket returns the recorded outcome.
func (s *Server) handleProcessTicket(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	ticket, err := s.store.GetTicketByID(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	if ticket == nil {
		http.Error(w, "ticket not found", http.StatusNotFound)
		return
	}

	result := s.processor.Process(r.Context(), ticket)
	status := "ok"
	if result.Error != "" {
		status = "error"
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"result": result,
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	counts, err := s.seeder.SeedFromDir(r.Context(), s.dataDir)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	resolved := 0
	if r.URL.Query().Get("geocode") == "1" {
		if resolved, err = s.seeder.ReconcileOffices(r.Context()); err != nil {
			s.respondError(w, http.StatusInternalServerError, err)
			return
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"counts":           counts,
		"offices_geocoded": resolved,
	})
}

// nameLookup maps manager and office ids to display names.
type nameLookup struct {
	managers map[int64]string
	offices  map[int64]string
}

func (s *Server) lookupNames(r *http.Request) (nameLookup, error) {
	ctx := r.Context()
	lookup := nameLookup{
		managers: make(map[int64]string),
		offices:  make(map[int64]string),
	}
	managers, err := s.store.ListManagers(ctx)
	if err != nil {
		return lookup, err
	}
	for _, m := range managers {
		lookup.managers[m.ID] = m.Name
	}
	offices, err := s.store.ListOffices(ctx)
	if err != nil {
		return lookup, err
	}
	for _, o := range offices {
		lookup.offices[o.ID] = o.Name
	}
	return lookup, nil
}

func serializeTicket(t *domain.Ticket, analysis *domain.Analysis, assignment *domain.Assignment, names nameLookup) ticketView {
	v := ticketView{
		ID:          t.ID,
		GUID:        t.GUID,
		Gender:      t.Gender,
		Description: t.Description,
		Attachments: t.Attachments,
		Segment:     string(t.Segment),
		Country:     t.Country,
		Region:      t.Region,
		City:        t.City,
		Street:      t.Street,
		Building:    t.Building,
		GeoStatus:   string(t.GeoStatus),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
	if t.BirthDate != nil {
		v.BirthDate = t.BirthDate.Format("2006-01-02")
	}
	if t.Location != nil {
		v.ClientLat = &t.Location.Latitude
		v.ClientLon = &t.Location.Longitude
	}
	if analysis != nil {
		v.Analytics = &analyticsView{
			TicketType:    string(analysis.Type),
			Sentiment:     string(analysis.Sentiment),
			PriorityScore: analysis.PriorityScore,
			Language:      string(analysis.Language),
			Summary:       analysis.Summary,
			LLMModel:      analysis.ModelTag,
		}
	}
	if assignment != nil {
		v.Assignment = &assignmentView{
			ManagerID:    assignment.ManagerID,
			ManagerName:  names.managers[assignment.ManagerID],
			OfficeID:     assignment.OfficeID,
			OfficeName:   names.offices[assignment.OfficeID],
			DistanceKm:   assignment.DistanceKm,
			FallbackUsed: assignment.FallbackUsed,
			Reason:       assignment.Reason,
		}
	}
	return v
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}
