package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/search/filter"
	"github.com/kailas-cloud/carequery/internal/domain/taxonomy"
)

// Query parameter limits.
const (
	// MaxQuestionLength is the maximum question length in characters.
	MaxQuestionLength = 1000
	// DefaultTopK is the default number of matches. The smallest corpus partition
	// holds 8 documents; a lower default truncates "list all" questions.
	DefaultTopK = 10
	MaxTopK     = 50
)

// Limits bounds inbound query parameters.
type Limits struct {
	MaxQuestionLength int
	DefaultTopK       int
	MaxTopK           int
}

// DefaultLimits returns the standard query limits.
func DefaultLimits() Limits {
	return Limits{MaxQuestionLength: MaxQuestionLength, DefaultTopK: DefaultTopK, MaxTopK: MaxTopK}
}

// Params are raw inbound query parameters. Empty filter strings mean "not given";
// a nil TopK selects the default.
type Params struct {
	Question       string
	TopK           *int
	Domain         string
	SourceType     string
	Classification string
}

// Request is a validated query.
type Request struct {
	question string
	topK     int
	explicit filter.Explicit
}

// New validates raw parameters. Failures are *domain.ValidationError naming the field.
func New(p Params, l Limits) (Request, error) {
	if strings.TrimSpace(p.Question) == "" {
		return Request{}, domain.NewValidationError("question", "is required")
	}
	if n := utf8.RuneCountInString(p.Question); n > l.MaxQuestionLength {
		return Request{}, domain.NewValidationError("question",
			fmt.Sprintf("too long (%d chars, max %d)", n, l.MaxQuestionLength))
	}

	topK := l.DefaultTopK
	if p.TopK != nil {
		topK = *p.TopK
	}
	if topK < 1 || topK > l.MaxTopK {
		return Request{}, domain.NewValidationError("top_k",
			fmt.Sprintf("must be between 1 and %d, got %d", l.MaxTopK, topK))
	}

	var explicit filter.Explicit
	if p.Domain != "" {
		tag, err := taxonomy.ParseTag(p.Domain)
		if err != nil {
			return Request{}, domain.NewValidationError("domain_filter", err.Error())
		}
		explicit.Domain = tag
	}
	if p.SourceType != "" {
		st, err := taxonomy.ParseSourceType(p.SourceType)
		if err != nil {
			return Request{}, domain.NewValidationError("source_type_filter", err.Error())
		}
		explicit.SourceType = st
	}
	if p.Classification != "" {
		c, err := taxonomy.ParseClassification(p.Classification)
		if err != nil {
			return Request{}, domain.NewValidationError("classification_filter", err.Error())
		}
		explicit.Classification = c
	}

	return Request{question: p.Question, topK: topK, explicit: explicit}, nil
}

// Question returns the question text as submitted.
func (r Request) Question() string { return r.question }

// TopK returns the maximum number of matches to retrieve.
func (r Request) TopK() int { return r.topK }

// Explicit returns the caller-supplied filter values.
func (r Request) Explicit() filter.Explicit { return r.explicit }
