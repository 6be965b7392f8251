package document

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/carequery/internal/domain/taxonomy"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// MaxIDLength is the maximum document identifier length.
const MaxIDLength = 256

// Document is a unit of retrievable corpus content (immutable value object).
type Document struct {
	id             string
	text           string
	domain         taxonomy.Tag
	sourceType     taxonomy.SourceType
	classification taxonomy.Classification
	sourcePath     string
	sourceSystem   string
}

// New validates and creates a Document.
// ID: ^[a-zA-Z0-9_.:-]+$, 1-256 chars. Text: non-empty. Domain, source type and
// classification must be recognized values.
func New(
	id, text string,
	domain taxonomy.Tag, sourceType taxonomy.SourceType, classification taxonomy.Classification,
	sourcePath, sourceSystem string,
) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	if len(id) > MaxIDLength {
		return Document{}, fmt.Errorf("document ID too long (max %d)", MaxIDLength)
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("document ID %q contains unsupported characters", id)
	}
	if text == "" {
		return Document{}, fmt.Errorf("text is required")
	}
	if _, err := taxonomy.ParseTag(string(domain)); err != nil {
		return Document{}, err
	}
	if _, err := taxonomy.ParseSourceType(string(sourceType)); err != nil {
		return Document{}, err
	}
	if _, err := taxonomy.ParseClassification(string(classification)); err != nil {
		return Document{}, err
	}

	return Document{
		id:             id,
		text:           text,
		domain:         domain,
		sourceType:     sourceType,
		classification: classification,
		sourcePath:     sourcePath,
		sourceSystem:   sourceSystem,
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(
	id, text string,
	domain taxonomy.Tag, sourceType taxonomy.SourceType, classification taxonomy.Classification,
	sourcePath, sourceSystem string,
) Document {
	return Document{
		id: id, text: text, domain: domain, sourceType: sourceType,
		classification: classification, sourcePath: sourcePath, sourceSystem: sourceSystem,
	}
}

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// Text returns the stored document text.
func (d Document) Text() string { return d.text }

// Domain returns the domain tag.
func (d Document) Domain() taxonomy.Tag { return d.domain }

// SourceType returns whether the document is internal or external.
func (d Document) SourceType() taxonomy.SourceType { return d.sourceType }

// Classification returns the data sensitivity label.
func (d Document) Classification() taxonomy.Classification { return d.classification }

// SourcePath returns the ingestion file path.
func (d Document) SourcePath() string { return d.sourcePath }

// SourceSystem returns the name of the originating system, falling back to the path.
func (d Document) SourceSystem() string {
	if d.sourceSystem != "" {
		return d.sourceSystem
	}
	return d.sourcePath
}
