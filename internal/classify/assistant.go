package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Assistant answers natural-language questions about the dashboard
// data. Like Classifier it never fails: every problem degrades to an
// apologetic answer instead of an error.
type Assistant interface {
	Ask(ctx context.Context, question, dashboard string) *AssistantAnswer
}

// AssistantAnswer is what the dashboard renders: a text answer plus
// an optional chart payload.
type AssistantAnswer struct {
	Answer string `json:"answer"`
	Chart  *Chart `json:"chart"`
}

// Chart describes one renderable chart.
type Chart struct {
	Type  string       `json:"type"` // "bar" or "pie"
	Title string       `json:"title"`
	Data  []ChartPoint `json:"data"`
}

// ChartPoint is one labelled value.
type ChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

const assistantSystemPrompt = `You are the AI assistant for the FIRE (Freedom Intelligent Routing Engine) dashboard.
You help managers and analysts understand ticket data through natural-language questions.

You will receive the current database statistics as context, plus a user question.

RESPONSE FORMAT: return ONLY valid JSON with these fields:
{
  "answer": "Your helpful answer in the same language as the question.",
  "chart": null  OR  {
    "type": "bar" or "pie",
    "title": "Chart title",
    "data": [{"name": "Label", "value": 123}, ...]
  }
}

RULES:
- Answer in the SAME language as the user's question (Russian/Kazakh/English).
- If the question is about a distribution or comparison, include a "chart" with appropriate data.
- For yes/no or simple number questions, set "chart" to null.
- Keep answers concise but informative (2-4 sentences).
- If the data doesn't contain enough info, say so honestly.
- Return ONLY valid JSON, no markdown, no extra text.`

const (
	assistantUnavailable = "AI assistant is not available: the LLM API key is not configured."
	assistantCallFailed  = "Произошла ошибка при обращении к AI. Попробуйте позже."
	assistantBadReply    = "Произошла ошибка при обработке ответа AI. Попробуйте переформулировать вопрос."
	assistantNoAnswer    = "Не удалось получить ответ."
)

// OpenAIAssistant answers via the same chat-completions endpoint the
// classifier uses. A single attempt per question: the dashboard user
// retries interactively, so there is no backoff loop here.
type OpenAIAssistant struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAIAssistant creates an assistant with custom config.
func NewOpenAIAssistant(cfg OpenAIConfig, logger *zap.Logger) *OpenAIAssistant {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIAssistant{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Ask sends the dashboard statistics and the question to the LLM and
// parses the structured reply.
func (a *OpenAIAssistant) Ask(ctx context.Context, question, dashboard string) *AssistantAnswer {
	if strings.TrimSpace(a.apiKey) == "" || strings.Contains(a.apiKey, "your-openai-api-key") {
		return &AssistantAnswer{Answer: assistantUnavailable}
	}

	raw, err := postChat(ctx, a.httpClient, a.baseURL, a.apiKey, chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: assistantSystemPrompt},
			{Role: "user", Content: "Dashboard data:\n" + dashboard + "\n\nUser question: " + question},
		},
		Temperature:    0.3,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		a.logger.Error("assistant LLM call failed", zap.Error(err))
		return &AssistantAnswer{Answer: assistantCallFailed}
	}

	var parsed AssistantAnswer
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		a.logger.Error("assistant reply is not valid JSON", zap.Error(err))
		return &AssistantAnswer{Answer: assistantBadReply}
	}
	if parsed.Answer == "" {
		parsed.Answer = assistantNoAnswer
	}
	if parsed.Chart != nil {
		if len(parsed.Chart.Data) == 0 {
			parsed.Chart = nil
		} else if parsed.Chart.Type == "" {
			parsed.Chart.Type = "bar"
		}
	}
	return &parsed
}
