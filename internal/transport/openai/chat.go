package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/metrics"
)

// Completer is an answer generation provider using the chat completions API.
type Completer struct {
	client   *openai.Client
	model    string
	user     string
	provider string
	logger   *zap.Logger
}

// NewCompleter creates an OpenAI-compatible chat completer. cfg.Dimensions is ignored.
func NewCompleter(cfg *Config) *Completer {
	return &Completer{
		client:   newClient(cfg),
		model:    cfg.Model,
		user:     cfg.User,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Complete implements domain.Completer with a system and a user message.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		User:        c.user,
	})
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		return domain.CompletionResult{}, parseAPIError("completion", domain.ErrGenerationProviderError, err)
	}
	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(c.provider, c.model, "error").Inc()
		return domain.CompletionResult{}, fmt.Errorf("completion response has no choices: %w", domain.ErrGenerationProviderError)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(c.provider, c.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(c.provider, c.model).Observe(duration.Seconds())
	metrics.GenerationTokensTotal.WithLabelValues(c.provider, c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.GenerationTokensTotal.WithLabelValues(c.provider, c.model, "completion").Add(float64(resp.Usage.CompletionTokens))

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonLength {
		c.logger.Warn("Completion truncated at max tokens",
			zap.String("model", c.model),
			zap.Int("max_tokens", req.MaxTokens),
		)
	}

	return domain.CompletionResult{
		Text:             choice.Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels.
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
