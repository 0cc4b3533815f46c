// Package pipeline orchestrates ticket processing: classification,
// geocoding, office selection, skill filtering, round-robin pick and
// the durable assignment record.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fire/internal/classify"
	"fire/internal/domain"
	"fire/internal/geocode"
	"fire/internal/store"
)

// fallbackCounterKey rotates office selection for tickets without a
// resolvable address.
const fallbackCounterKey = "office-fallback-50-50"

// Result summarizes one ticket's processing.
type Result struct {
	TicketID        int64    `json:"ticket_id"`
	TicketGUID      string   `json:"ticket_guid"`
	AssignedManager string   `json:"assigned_manager,omitempty"`
	AssignedOffice  string   `json:"assigned_office,omitempty"`
	DistanceKm      *float64 `json:"distance_km,omitempty"`
	FallbackUsed    bool     `json:"fallback_used"`
	Error           string   `json:"error,omitempty"`
}

// Config tunes routing policy.
type Config struct {
	// DomesticCountry is the home country for abroad detection.
	DomesticCountry string

	// RequireHubFallback turns a missing hub office into an error
	// instead of degrading to plain rotation.
	RequireHubFallback bool
}

// Processor runs the pipeline for single tickets.
type Processor struct {
	store      *store.Store
	classifier classify.Classifier
	geocoder   geocode.Geocoder
	cfg        Config
	logger     *zap.Logger
}

// NewProcessor wires the pipeline.
func NewProcessor(s *store.Store, classifier classify.Classifier, geocoder geocode.Geocoder, cfg Config, logger *zap.Logger) *Processor {
	if cfg.DomesticCountry == "" {
		cfg.DomesticCountry = "Казахстан"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		store:      s,
		classifier: classifier,
		geocoder:   geocoder,
		cfg:        cfg,
		logger:     logger,
	}
}

// Process runs one ticket end-to-end.
//
//  1. AI analysis, persisted once; reused on re-run.
//  2. Spam terminates here: analytics recorded, no assignment.
//  3. Address resolution with geo status transitions.
//  4. Office selection: nearest, or counter-rotated fallback.
//  5. Skill requirement filtering with three-tier widening.
//  6. Top-2 shortlist by load, round-robin between them.
//  7. Assignment, counter advance and load increment in one
//     transaction.
//
// Re-running a ticket that already has an assignment returns the
// recorded outcome without side effects.
func (p *Processor) Process(ctx context.Context, ticket *domain.Ticket) Result {
	res := Result{TicketID: ticket.ID, TicketGUID: ticket.GUID}

	// Idempotence: an assigned ticket is done.
	if existing, err := p.store.GetAssignmentByTicket(ctx, ticket.ID); err != nil {
		res.Error = err.Error()
		return res
	} else if existing != nil {
		return p.recordedResult(ctx, ticket, existing)
	}

	analysis, err := p.ensureAnalysis(ctx, ticket)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	p.logger.Info("ticket analyzed",
		zap.String("guid", ticket.GUID),
		zap.String("type", analysis.Type.String()),
		zap.String("language", analysis.Language.String()),
		zap.Int("priority", analysis.PriorityScore))

	// Spam: analytics stored, no assignment.
	if analysis.Type == domain.TypeSpam {
		p.logger.Info("spam ticket, skipping assignment", zap.String("guid", ticket.GUID))
		return res
	}

	if err := p.resolveLocation(ctx, ticket); err != nil {
		res.Error = err.Error()
		return res
	}

	selection, err := p.selectOffice(ctx, ticket)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.FallbackUsed = selection.FallbackUsed
	p.logger.Info("office selected",
		zap.String("guid", ticket.GUID),
		zap.String("office", selection.Office.Name),
		zap.String("reason", selection.Reason))

	requirement := domain.DetermineRequirement(ticket.Segment, analysis.Type, analysis.Language)
	eligible, err := p.findEligible(ctx, ticket, selection.Office.ID, requirement)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if len(eligible) == 0 {
		res.Error = "no eligible managers found"
		return res
	}

	// Top-2 shortlist by (load, id), then round-robin between them.
	shortlist := domain.SortByLoad(eligible)
	if len(shortlist) > 2 {
		shortlist = shortlist[:2]
	}

	rrKey := fmt.Sprintf("office-%d|vip-%d|lang-%s|type-%s|chief-%d",
		selection.Office.ID,
		boolBit(requirement.RequiredSkills.Has("VIP")),
		analysis.Language, analysis.Type,
		boolBit(requirement.RequiresChief()))

	var chosen domain.Manager
	err = p.store.WithTx(ctx, func(q *store.Queries) error {
		counter, err := q.AdvanceCounter(ctx, rrKey)
		if err != nil {
			return err
		}
		// The least-loaded candidate wins outright; the counter only
		// splits ties. Equal-load contenders therefore alternate as
		// the counter advances.
		if len(shortlist) == 1 || shortlist[0].CurrentLoad != shortlist[1].CurrentLoad {
			chosen = shortlist[0]
		} else if chosen, _, err = domain.PickNext(shortlist, counter); err != nil {
			return err
		}

		if _, err := q.CreateAssignment(ctx, &domain.Assignment{
			TicketID:     ticket.ID,
			ManagerID:    chosen.ID,
			OfficeID:     selection.Office.ID,
			DistanceKm:   selection.DistanceKm,
			Reason:       selection.Reason,
			FallbackUsed: selection.FallbackUsed,
			AssignedAt:   time.Now().UTC(),
		}); err != nil {
			return err
		}
		return q.IncrementManagerLoad(ctx, chosen.ID)
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.AssignedManager = chosen.Name
	res.AssignedOffice = selection.Office.Name
	res.DistanceKm = selection.DistanceKm

	p.logger.Info("ticket assigned",
		zap.String("guid", ticket.GUID),
		zap.String("manager", chosen.Name),
		zap.String("office", selection.Office.Name),
		zap.Bool("fallback", selection.FallbackUsed))
	return res
}

// recordedResult reconstructs the outcome of an already-assigned
// ticket.
func (p *Processor) recordedResult(ctx context.Context, ticket *domain.Ticket, a *domain.Assignment) Result {
	res := Result{
		TicketID:     ticket.ID,
		TicketGUID:   ticket.GUID,
		DistanceKm:   a.DistanceKm,
		FallbackUsed: a.FallbackUsed,
	}
	if m, err := p.store.GetManagerByID(ctx, a.ManagerID); err == nil && m != nil {
		res.AssignedManager = m.Name
	}
	if o, err := p.store.GetOfficeByID(ctx, a.OfficeID); err == nil && o != nil {
		res.AssignedOffice = o.Name
	}
	return res
}

// ensureAnalysis returns the stored analysis or produces and persists
// a new one. The classifier cannot fail, so the only errors here are
// storage errors.
func (p *Processor) ensureAnalysis(ctx context.Context, ticket *domain.Ticket) (*domain.Analysis, error) {
	if existing, err := p.store.GetAnalysisByTicket(ctx, ticket.ID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	analysis := p.classifier.Analyze(ctx, ticket.Description, ticket.Attachments)
	analysis.TicketID = ticket.ID
	if _, err := p.store.CreateAnalysis(ctx, analysis); err != nil {
		return nil, err
	}
	return analysis, nil
}

// resolveLocation fills the ticket's coordinates when possible and
// records the geo status transition:
//
//	resolved: provider or centroid produced a point
//	abroad:   explicit foreign country, never geocoded
//	failed:   no usable address or nothing resolved
func (p *Processor) resolveLocation(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.AddressKnown() {
		return nil
	}

	status := domain.GeoFailed
	addr := ticket.AddressString(p.cfg.DomesticCountry)
	domestic := ticket.IsDomestic(p.cfg.DomesticCountry)

	switch {
	case addr != "" && domestic:
		point, err := p.geocoder.Geocode(ctx, addr)
		if err != nil {
			return err
		}
		if point != nil {
			ticket.Location = point
			status = domain.GeoResolved
		}
	case !domestic && ticket.Country != "":
		status = domain.GeoAbroad
	}

	ticket.GeoStatus = status
	return p.store.UpdateTicketGeo(ctx, ticket.ID, ticket.Location, status)
}

// selectOffice picks the nearest office for located tickets and
// rotates the fallback counter otherwise.
func (p *Processor) selectOffice(ctx context.Context, ticket *domain.Ticket) (*domain.OfficeSelection, error) {
	offices, err := p.store.ListOffices(ctx)
	if err != nil {
		return nil, err
	}

	if ticket.AddressKnown() {
		sel, err := domain.SelectNearestOffice(*ticket.Location, offices)
		if err == nil {
			return &sel, nil
		}
		// No office has coordinates: degrade to the fallback.
		p.logger.Warn("nearest selection failed, degrading to fallback",
			zap.String("guid", ticket.GUID), zap.Error(err))
	}

	counter, err := p.store.AdvanceCounter(ctx, fallbackCounterKey)
	if err != nil {
		return nil, err
	}
	sel, err := domain.SelectFallbackOffice(counter, offices, p.cfg.RequireHubFallback)
	if err != nil {
		return nil, err
	}
	return &sel, nil
}

// findEligible widens the candidate pool in three tiers: the selected
// office, all offices, then position-only across all offices.
func (p *Processor) findEligible(ctx context.Context, ticket *domain.Ticket, officeID int64, req domain.SkillRequirement) ([]domain.Manager, error) {
	local, err := p.store.ListManagersByOffice(ctx, officeID)
	if err != nil {
		return nil, err
	}
	eligible := filterSatisfying(local, req)
	if len(eligible) > 0 {
		return eligible, nil
	}

	p.logger.Warn("no eligible managers in office, widening search",
		zap.String("guid", ticket.GUID), zap.Int64("office_id", officeID))
	all, err := p.store.ListManagers(ctx)
	if err != nil {
		return nil, err
	}
	eligible = filterSatisfying(all, req)
	if len(eligible) > 0 {
		return eligible, nil
	}

	p.logger.Warn("no managers with required skills, relaxing to position-only",
		zap.String("guid", ticket.GUID))
	if req.RequiresChief() {
		var chiefs []domain.Manager
		for _, m := range all {
			if m.IsChief() {
				chiefs = append(chiefs, m)
			}
		}
		return chiefs, nil
	}
	return all, nil
}

func filterSatisfying(managers []domain.Manager, req domain.SkillRequirement) []domain.Manager {
	var out []domain.Manager
	for _, m := range managers {
		if domain.ManagerSatisfies(m.Skills, m.Position, req) {
			out = append(out, m)
		}
	}
	return out
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}
