package corpus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/document"
	"github.com/kailas-cloud/carequery/internal/domain/taxonomy"
)

// DefaultMaxStoredTextChars bounds the text kept per document.
const DefaultMaxStoredTextChars = 2000

// Metadata keys written by the ingestion pipeline.
const (
	MetaSource         = "source"
	MetaFilepath       = "filepath"
	MetaSourceSystem   = "source_system"
	MetaDomain         = "domain"
	MetaSourceType     = "source_type"
	MetaClassification = "data_classification"
)

const unknown = "unknown"

// Record is one prepared document from the ingestion output.
type Record struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// DecodeRecords reads a JSON array or newline-delimited JSON objects.
func DecodeRecords(r io.Reader) ([]Record, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read records: %w", err)
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var out []Record
		if err := dec.Decode(&out); err != nil {
			return nil, fmt.Errorf("decode record array: %w", err)
		}
		return out, nil
	}

	var out []Record
	for {
		var rec Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode record %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// Normalize turns a record into a document. Unknown metadata is derived: the
// domain from the text, the source type from the path and the classification
// from the domain. Text longer than maxChars runes is cut.
func Normalize(rec Record, maxChars int) (document.Document, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxStoredTextChars
	}
	text := strings.TrimSpace(rec.Text)
	if utf8.RuneCountInString(text) > maxChars {
		text = string([]rune(text)[:maxChars])
	}

	path := metaString(rec.Metadata, MetaSource)
	if path == "" {
		path = metaString(rec.Metadata, MetaFilepath)
	}

	tag, err := resolveDomain(metaString(rec.Metadata, MetaDomain), text)
	if err != nil {
		return document.Document{}, err
	}

	sourceType := taxonomy.SourceTypeForPath(path)
	if raw := metaString(rec.Metadata, MetaSourceType); raw != "" {
		if st, err := taxonomy.ParseSourceType(raw); err == nil {
			sourceType = st
		}
	}

	classification := taxonomy.ClassificationFor(tag)
	if raw := metaString(rec.Metadata, MetaClassification); raw != "" {
		if c, err := taxonomy.ParseClassification(raw); err == nil {
			classification = c
		}
	}

	doc, err := document.New(rec.ID, text, tag, sourceType, classification, path,
		metaString(rec.Metadata, MetaSourceSystem))
	if err != nil {
		return document.Document{}, fmt.Errorf("%w: record %q: %w", domain.ErrInvalidDocument, rec.ID, err)
	}
	return doc, nil
}

func resolveDomain(raw, text string) (taxonomy.Tag, error) {
	if raw != "" {
		if tag, err := taxonomy.ParseTag(raw); err == nil {
			return tag, nil
		}
	}
	detected := taxonomy.Classify(text)
	if len(detected) != 1 {
		return "", fmt.Errorf("%w: cannot determine domain (metadata %q, detected %v)",
			domain.ErrInvalidDocument, raw, detected)
	}
	return detected[0], nil
}

func metaString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if strings.EqualFold(s, unknown) {
		return ""
	}
	return s
}
