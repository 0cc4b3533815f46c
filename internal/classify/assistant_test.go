package classify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAssistant(t *testing.T, handler http.HandlerFunc) *OpenAIAssistant {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultOpenAIConfig("sk-test")
	cfg.BaseURL = srv.URL
	cfg.Model = "gpt-4o"
	return NewOpenAIAssistant(cfg, zap.NewNop())
}

func assistantResponse(t *testing.T, w http.ResponseWriter, reply map[string]any) {
	t.Helper()
	content, err := json.Marshal(reply)
	require.NoError(t, err)

	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": string(content)}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestAssistantAnswerWithChart(t *testing.T) {
	var gotBody []byte
	a := newTestAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var err error
		gotBody, err = io.ReadAll(r.Body)
		require.NoError(t, err)

		assistantResponse(t, w, map[string]any{
			"answer": "Больше всего жалоб.",
			"chart": map[string]any{
				"type":  "pie",
				"title": "Обращения по типам",
				"data": []map[string]any{
					{"name": "Жалоба", "value": 3},
					{"name": "Консультация", "value": 1},
				},
			},
		})
	})

	reply := a.Ask(context.Background(), "Каких обращений больше всего?", "Total tickets: 4")
	assert.Equal(t, "Больше всего жалоб.", reply.Answer)
	require.NotNil(t, reply.Chart)
	assert.Equal(t, "pie", reply.Chart.Type)
	assert.Equal(t, "Обращения по типам", reply.Chart.Title)
	require.Len(t, reply.Chart.Data, 2)
	assert.Equal(t, "Жалоба", reply.Chart.Data[0].Name)
	assert.InDelta(t, 3, reply.Chart.Data[0].Value, 1e-9)

	// The statistics block and the question both reach the model.
	assert.Contains(t, string(gotBody), "Total tickets: 4")
	assert.Contains(t, string(gotBody), "Каких обращений больше всего?")
}

func TestAssistantDropsEmptyChart(t *testing.T) {
	a := newTestAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		assistantResponse(t, w, map[string]any{
			"answer": "Всего 4 обращения.",
			"chart":  map[string]any{"type": "bar", "title": "x", "data": []any{}},
		})
	})

	reply := a.Ask(context.Background(), "Сколько обращений?", "Total tickets: 4")
	assert.Equal(t, "Всего 4 обращения.", reply.Answer)
	assert.Nil(t, reply.Chart)
}

func TestAssistantChartTypeDefaultsToBar(t *testing.T) {
	a := newTestAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		assistantResponse(t, w, map[string]any{
			"answer": "Распределение по офисам.",
			"chart": map[string]any{
				"title": "По офисам",
				"data":  []map[string]any{{"name": "ЦОК Алматы", "value": 2}},
			},
		})
	})

	reply := a.Ask(context.Background(), "Как распределены назначения?", "")
	require.NotNil(t, reply.Chart)
	assert.Equal(t, "bar", reply.Chart.Type)
}

func TestAssistantNoKeySkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultOpenAIConfig("")
	cfg.BaseURL = srv.URL
	a := NewOpenAIAssistant(cfg, zap.NewNop())

	reply := a.Ask(context.Background(), "Сколько обращений?", "")
	assert.Equal(t, assistantUnavailable, reply.Answer)
	assert.Nil(t, reply.Chart)
	assert.Equal(t, int32(0), calls.Load())
}

func TestAssistantServerErrorDegrades(t *testing.T) {
	a := newTestAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	reply := a.Ask(context.Background(), "Сколько обращений?", "")
	assert.Equal(t, assistantCallFailed, reply.Answer)
}

func TestAssistantBadJSONDegrades(t *testing.T) {
	a := newTestAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "sorry, not json"}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	reply := a.Ask(context.Background(), "Сколько обращений?", "")
	assert.Equal(t, assistantBadReply, reply.Answer)
}
