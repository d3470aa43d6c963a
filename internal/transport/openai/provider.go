// Package openai implements the embedding/completion provider over any
// OpenAI-compatible API.
//
// All three operations (embed, rewrite, suggest) are independently optional:
// consumers hold a nil provider when no credential is configured and skip the
// call. Every failure is wrapped in domain.ErrEmbeddingProviderError.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/findex/internal/domain"
	"github.com/kailas-cloud/findex/internal/metrics"
)

// Provider calls an OpenAI-compatible API for embeddings, query rewriting and
// search suggestions.
type Provider struct {
	client     *openai.Client
	embedModel openai.EmbeddingModel
	chatModel  string
	dimensions int
	logger     *zap.Logger
}

// Config holds the provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	EmbedModel string
	ChatModel  string
	Dimensions int
	Logger     *zap.Logger
}

// NewProvider creates an OpenAI-compatible provider.
func NewProvider(cfg *Config) *Provider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client:     openai.NewClientWithConfig(clientCfg),
		embedModel: openai.EmbeddingModel(cfg.EmbedModel),
		chatModel:  cfg.ChatModel,
		dimensions: cfg.Dimensions,
		logger:     cfg.Logger,
	}
}

// Embed maps text to a fixed-length vector.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          p.embedModel,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if p.dimensions > 0 {
		req.Dimensions = p.dimensions
	}

	start := time.Now()
	resp, err := p.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues("embed", "error").Inc()
		return nil, parseAPIError(err)
	}
	if len(resp.Data) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues("embed", "error").Inc()
		return nil, fmt.Errorf("empty embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues("embed", "success").Inc()
	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues("embed").Add(float64(resp.Usage.TotalTokens))
	}

	p.logger.Debug("Embedded text",
		zap.Int("chars", len(text)),
		zap.Int("dimensions", len(resp.Data[0].Embedding)),
		zap.Duration("duration", duration),
	)

	return resp.Data[0].Embedding, nil
}

// RewriteQuery asks the chat model for a cleaner retrieval query. Returns the
// rewritten text or an error; the caller treats any error as "keep the
// original query".
func (p *Provider) RewriteQuery(ctx context.Context, query string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You improve search queries. Rewrite the user's query to be " +
					"clearer and more specific for full-text and semantic retrieval. " +
					"Reply with the rewritten query only, no explanation.",
			},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		MaxTokens:   64,
		Temperature: 0.2,
	})
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues("rewrite", "error").Inc()
		return "", parseAPIError(err)
	}

	rewritten := firstMessageContent(resp)
	if rewritten == "" {
		metrics.EmbeddingRequestsTotal.WithLabelValues("rewrite", "error").Inc()
		return "", fmt.Errorf("empty rewrite response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues("rewrite", "success").Inc()
	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues("rewrite").Add(float64(resp.Usage.TotalTokens))
	}
	return rewritten, nil
}

// Suggest generates related-query suggestions seeded with result titles.
func (p *Provider) Suggest(ctx context.Context, query string, titles []string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Search query: %q\nTop result titles:\n%s\n"+
			"Suggest 5 short related search queries a user might try next. "+
			"Reply with one suggestion per line, no numbering.",
		query, bulletList(titles),
	)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   128,
		Temperature: 0.7,
	})
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues("suggest", "error").Inc()
		return nil, parseAPIError(err)
	}

	suggestions := splitSuggestions(firstMessageContent(resp))
	if len(suggestions) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues("suggest", "error").Inc()
		return nil, fmt.Errorf("malformed suggest response: %w", domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues("suggest", "success").Inc()
	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues("suggest").Add(float64(resp.Usage.TotalTokens))
	}
	return suggestions, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (p *Provider) HealthCheck(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func firstMessageContent(resp openai.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "(no results)"
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it)
		b.WriteString("\n")
	}
	return b.String()
}

// splitSuggestions parses one-per-line model output, stripping list markers.
func splitSuggestions(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		line = strings.Trim(line, `"`)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrEmbeddingProviderError.
func parseAPIError(err error) error {
	wrap := domain.ErrEmbeddingProviderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("provider API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("provider API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("provider API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("provider request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
