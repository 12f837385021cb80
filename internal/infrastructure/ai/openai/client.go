// Package openai provides the LLM-backed presentation adapter: descriptive
// text and image prompts for adapted dishes. Calls are bounded to a fixed
// retry budget; any failure or malformed payload degrades to a deterministic
// template so the planning pipeline never blocks on the external service.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/convivio/convivio/internal/domain/menu"
	"github.com/convivio/convivio/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	maxAttempts    = 2
)

// Config carries the client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client implements outbound.AIService against an OpenAI-compatible API.
// Without an API key every request resolves to the templated fallback.
type Client struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a presentation client.
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.APIKey == "" {
		logger.Info("AI API key not configured, dish presentation uses templates only")
	}
	return &Client{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger.Named("ai-client"),
	}
}

// chatCompletionRequest is the OpenAI chat payload.
type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// textPayload is the JSON object the model is instructed to return.
type textPayload struct {
	Text string `json:"text"`
}

const systemPrompt = `You are a fine-dining copywriter for a catering company.
Respond with ONLY a valid JSON object of the form {"text": "..."}.
No markdown, no commentary outside the JSON.`

// DescribeDish returns a short menu-card description of the dish.
func (c *Client) DescribeDish(ctx context.Context, dish menu.Dish, style string) (string, error) {
	prompt := fmt.Sprintf(
		"Write a two-sentence menu description for a %s course named %q with ingredients: %s.",
		dish.Course, dish.Name, strings.Join(dish.Ingredients, ", "),
	)
	if style != "" {
		prompt += fmt.Sprintf(" The culinary style is %s.", style)
	}
	if len(dish.Techniques) > 0 {
		prompt += " Mention the techniques: " + techniqueList(dish) + "."
	}
	return c.generate(ctx, prompt, describeTemplate(dish, style)), nil
}

// ImagePrompt returns a text-to-image prompt for the dish.
func (c *Client) ImagePrompt(ctx context.Context, dish menu.Dish, style string) (string, error) {
	prompt := fmt.Sprintf(
		"Write a single-sentence photography prompt for a plated dish named %q with ingredients: %s.",
		dish.Name, strings.Join(dish.Ingredients, ", "),
	)
	if style != "" {
		prompt += fmt.Sprintf(" Evoke %s plating.", style)
	}
	return c.generate(ctx, prompt, imageTemplate(dish, style)), nil
}

// generate runs the bounded retry loop and falls back to the template. The
// fallback is a result, not an error: presentation must not fail the plan.
func (c *Client) generate(ctx context.Context, prompt, fallback string) string {
	if c.config.APIKey == "" {
		return fallback
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := c.callChat(ctx, prompt)
		if err != nil {
			lastErr = err
			continue
		}
		text, err := parseTextPayload(raw)
		if err != nil {
			lastErr = errors.NewMalformedAIResponseError(err)
			continue
		}
		return text
	}

	c.logger.Warn("AI presentation failed, using template",
		zap.Int("attempts", maxAttempts),
		zap.Error(lastErr),
	)
	return fallback
}

// callChat performs one chat-completion request.
func (c *Client) callChat(ctx context.Context, userPrompt string) (string, error) {
	reqBody := chatCompletionRequest{
		Model: c.config.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.7,
		MaxTokens:   300,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.NewExternalServiceError("openai", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.NewExternalServiceError("openai", fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", errors.NewMalformedAIResponseError(err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.NewMalformedAIResponseError(fmt.Errorf("no choices in response"))
	}
	return completion.Choices[0].Message.Content, nil
}

// parseTextPayload extracts the text field, tolerating code fences some
// models wrap around the JSON.
func parseTextPayload(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var payload textPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return "", err
	}
	if payload.Text == "" {
		return "", fmt.Errorf("empty text field")
	}
	return payload.Text, nil
}

// describeTemplate is the deterministic fallback description.
func describeTemplate(dish menu.Dish, style string) string {
	desc := fmt.Sprintf("%s: a %s course built around %s", dish.Name, dish.Course, joinNatural(dish.Ingredients))
	if style != "" {
		desc += fmt.Sprintf(", in the %s style", style)
	}
	if len(dish.Techniques) > 0 {
		desc += ", finished with " + techniqueList(dish)
	}
	return desc + "."
}

// imageTemplate is the deterministic fallback image prompt.
func imageTemplate(dish menu.Dish, style string) string {
	prompt := fmt.Sprintf("Professional food photograph of %q, featuring %s", dish.Name, joinNatural(dish.Ingredients))
	if style != "" {
		prompt += fmt.Sprintf(", %s plating", style)
	}
	return prompt + ", soft natural light."
}

// techniqueList renders the dish's technique bindings.
func techniqueList(dish menu.Dish) string {
	parts := make([]string, 0, len(dish.Techniques))
	for _, b := range dish.Techniques {
		if b.Ingredient != "" {
			parts = append(parts, b.Technique+" of the "+b.Ingredient)
		} else {
			parts = append(parts, b.Technique)
		}
	}
	return joinNatural(parts)
}

// joinNatural joins items with commas and a final "and".
func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
