package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fire/internal/domain"
)

func TestBatchRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	almatyID := seedOffice(t, s, "ЦОК Алматы", &almatyPoint)
	seedManager(t, s, "Иванов", almatyID, domain.PositionSpecialist)

	spam := domain.Analysis{
		Type: domain.TypeSpam, Sentiment: domain.SentimentNeutral,
		PriorityScore: 1, Language: domain.LangRU,
		Summary: "Спам-сообщение", ModelTag: "stub",
	}
	classifier := &stubClassifier{
		analysis:  consultationRU(),
		byContent: map[string]domain.Analysis{"обращение spam-1": spam},
	}
	geocoder := &stubGeocoder{point: &almatyPoint}
	p := newProcessor(s, classifier, geocoder)

	seedTicket(t, s, almatyTicket("batch-1"))
	seedTicket(t, s, almatyTicket("spam-1"))
	seedTicket(t, s, almatyTicket("batch-2"))

	b := NewBatch(p, 1, zap.NewNop())
	results, err := b.Run(ctx)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Arrival order is preserved.
	assert.Equal(t, "batch-1", results[0].TicketGUID)
	assert.Equal(t, "spam-1", results[1].TicketGUID)
	assert.Equal(t, "batch-2", results[2].TicketGUID)

	assert.Equal(t, "Иванов", results[0].AssignedManager)
	assert.Empty(t, results[1].AssignedManager)
	assert.Equal(t, "Иванов", results[2].AssignedManager)

	// Every ticket now carries an analysis, so a re-run finds nothing.
	results, err = b.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestBatchFailureDoesNotAbort(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// No managers at all: assignment fails for every non-spam ticket.
	seedOffice(t, s, "ЦОК Алматы", &almatyPoint)

	classifier := &stubClassifier{analysis: consultationRU()}
	geocoder := &stubGeocoder{point: &almatyPoint}
	p := newProcessor(s, classifier, geocoder)

	seedTicket(t, s, almatyTicket("fail-1"))
	seedTicket(t, s, almatyTicket("fail-2"))

	b := NewBatch(p, 1, zap.NewNop())
	results, err := b.Run(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotEmpty(t, results[0].Error)
	assert.NotEmpty(t, results[1].Error)
}

func TestBatchParallel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	almatyID := seedOffice(t, s, "ЦОК Алматы", &almatyPoint)
	seedManager(t, s, "Иванов", almatyID, domain.PositionSpecialist)
	seedManager(t, s, "Петров", almatyID, domain.PositionSpecialist)

	classifier := &stubClassifier{analysis: consultationRU()}
	geocoder := &stubGeocoder{point: &almatyPoint}
	p := newProcessor(s, classifier, geocoder)

	const n = 12
	for i := 0; i < n; i++ {
		seedTicket(t, s, almatyTicket(fmt.Sprintf("par-%d", i)))
	}

	b := NewBatch(p, 4, zap.NewNop())
	results, err := b.Run(ctx)
	require.NoError(t, err)
	require.Len(t, results, n)

	assigned := 0
	for _, r := range results {
		require.Empty(t, r.Error)
		if r.AssignedManager != "" {
			assigned++
		}
	}
	assert.Equal(t, n, assigned)

	// Load is split across the pool, never concentrated on one manager.
	loads, err := s.ManagerLoads(ctx)
	require.NoError(t, err)
	total := 0
	for _, l := range loads {
		assert.Greater(t, l.CurrentLoad, 0)
		total += l.CurrentLoad
	}
	assert.Equal(t, n, total)
}

func TestBatchCancelledContext(t *testing.T) {
	s := newTestStore(t)

	almatyID := seedOffice(t, s, "ЦОК Алматы", &almatyPoint)
	seedManager(t, s, "Иванов", almatyID, domain.PositionSpecialist)

	classifier := &stubClassifier{analysis: consultationRU()}
	p := newProcessor(s, classifier, &stubGeocoder{point: &almatyPoint})
	seedTicket(t, s, almatyTicket("cancel-1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBatch(p, 1, zap.NewNop())
	_, err := b.Run(ctx)
	assert.Error(t, err)
}
