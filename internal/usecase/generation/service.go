package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/grounding"
)

// Default generation parameters.
const (
	DefaultTemperature float32 = 0.3
	DefaultMaxTokens           = 500
)

// Options tune the provider call.
type Options struct {
	Temperature float32
	MaxTokens   int
}

// DefaultOptions returns the low-temperature settings used for grounded answers.
func DefaultOptions() Options {
	return Options{Temperature: DefaultTemperature, MaxTokens: DefaultMaxTokens}
}

// Service produces grounded, cited answers.
type Service struct {
	completer Completer
	opts      Options
}

// New creates a generation service.
func New(completer Completer, opts Options) *Service {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Service{completer: completer, opts: opts}
}

// Generate answers question from c. An empty context yields NoInformationAnswer
// without a provider call. Provider failures wrap domain.ErrGenerationFailed.
// The generated text is returned as is.
func (s *Service) Generate(ctx context.Context, question string, c grounding.Context) (string, error) {
	if c.IsEmpty() {
		return NoInformationAnswer, nil
	}

	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		System:      SystemPrompt,
		Prompt:      BuildPrompt(question, c),
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
	})
	if err != nil {
		if errors.Is(err, domain.ErrGenerationFailed) {
			return "", fmt.Errorf("complete: %w", err)
		}
		return "", fmt.Errorf("%w: complete: %w", domain.ErrGenerationFailed, err)
	}
	if strings.TrimSpace(res.Text) == "" {
		return "", fmt.Errorf("%w: provider returned an empty answer", domain.ErrGenerationFailed)
	}
	if u := domain.UsageFromContext(ctx); u != nil {
		u.AddGenerationTokens(res.TotalTokens)
	}

	return res.Text, nil
}
