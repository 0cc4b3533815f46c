package classify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"fire/internal/domain"
)

// OpenAIConfig configures the chat-completions classifier.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int

	// ImageDir holds ticket attachments referenced by filename. Empty
	// disables image lookup.
	ImageDir string
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		APIKey:     apiKey,
		BaseURL:    "https://api.openai.com/v1",
		Model:      "gpt-4o",
		Timeout:    60 * time.Second,
		MaxRetries: 3,
	}
}

// OpenAIClassifier classifies tickets via an OpenAI-compatible
// chat-completions endpoint. Spam is short-circuited before the
// network, and any LLM failure degrades to the heuristic fallback.
type OpenAIClassifier struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	imageDir   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAIClassifier creates a classifier with custom config.
func NewOpenAIClassifier(cfg OpenAIConfig, logger *zap.Logger) *OpenAIClassifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIClassifier{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		imageDir:   cfg.ImageDir,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// llmVerdict is the JSON shape the model is instructed to return.
type llmVerdict struct {
	TicketType    string `json:"ticket_type"`
	Sentiment     string `json:"sentiment"`
	PriorityScore int    `json:"priority_score"`
	Language      string `json:"language"`
	Summary       string `json:"summary"`
}

// Analyze classifies one ticket. It never returns an error: spam is
// decided locally, and if every LLM attempt fails the heuristic
// fallback answers instead.
func (c *OpenAIClassifier) Analyze(ctx context.Context, description, attachments string) *domain.Analysis {
	if LooksLikeSpam(description) {
		c.logger.Debug("spam short-circuit, skipping LLM")
		return spamResult()
	}

	if strings.TrimSpace(c.apiKey) == "" || strings.Contains(c.apiKey, "your-openai-api-key") {
		c.logger.Warn("LLM API key not configured, using heuristic fallback")
		return postAdjust(heuristicFallback(description), description)
	}

	userContent := c.buildUserContent(description, attachments)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(time.Duration(1<<uint(attempt-2)) * time.Second):
			case <-ctx.Done():
				c.logger.Warn("classification cancelled, using heuristic fallback", zap.Error(ctx.Err()))
				return postAdjust(heuristicFallback(description), description)
			}
		}

		verdict, err := c.complete(ctx, userContent)
		if err != nil {
			lastErr = err
			c.logger.Warn("LLM attempt failed",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", c.maxRetries),
				zap.Error(err))
			continue
		}

		return postAdjust(c.mapVerdict(verdict), description)
	}

	c.logger.Warn("all LLM attempts failed, using heuristic fallback", zap.Error(lastErr))
	return postAdjust(heuristicFallback(description), description)
}

func (c *OpenAIClassifier) complete(ctx context.Context, userContent []contentPart) (*llmVerdict, error) {
	raw, err := postChat(ctx, c.httpClient, c.baseURL, c.apiKey, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userContent},
		},
		Temperature:    0.1,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}

	var verdict llmVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return nil, fmt.Errorf("failed to parse verdict JSON: %w", err)
	}
	return &verdict, nil
}

// postChat sends one chat-completions request and returns the raw
// message content.
func postChat(ctx context.Context, client *http.Client, baseURL, apiKey string, reqBody chatRequest) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("rate limit exceeded (429)")
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// buildUserContent assembles the multimodal user message: ticket text
// plus any attachment images found on disk, inlined as base64 data
// URLs.
func (c *OpenAIClassifier) buildUserContent(description, attachments string) []contentPart {
	text := "Ticket text:\n" + description
	if attachments != "" {
		text += "\nAttachments: " + attachments
	}
	content := []contentPart{{Type: "text", Text: text}}

	if attachments == "" || c.imageDir == "" {
		return content
	}

	for _, filename := range strings.Split(attachments, ",") {
		filename = strings.TrimSpace(filename)
		if filename == "" {
			continue
		}

		path := filepath.Join(c.imageDir, filepath.Base(filename))
		data, err := os.ReadFile(path)
		if err != nil {
			c.logger.Error("failed to read image attachment",
				zap.String("file", filename), zap.Error(err))
			continue
		}

		mimeType := "image/jpeg"
		switch ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); ext {
		case "jpg", "jpeg":
			mimeType = "image/jpeg"
		case "png", "webp", "gif":
			mimeType = "image/" + ext
		}

		content = append(content, contentPart{
			Type: "image_url",
			ImageURL: &imageURL{
				URL: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
			},
		})
		c.logger.Info("attached image to LLM prompt", zap.String("file", filename))
	}

	return content
}

func (c *OpenAIClassifier) mapVerdict(v *llmVerdict) *domain.Analysis {
	priority := v.PriorityScore
	if priority == 0 {
		// Field absent from the verdict.
		priority = 5
	}
	if priority < 1 {
		priority = 1
	}
	if priority > 10 {
		priority = 10
	}

	return &domain.Analysis{
		Type:          domain.ParseTicketType(v.TicketType),
		Sentiment:     domain.ParseSentiment(v.Sentiment),
		PriorityScore: priority,
		Language:      domain.ParseLanguage(v.Language),
		Summary:       v.Summary,
		ModelTag:      c.model,
		ProcessedAt:   time.Now().UTC(),
	}
}
