package pipeline

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/IshaanNene/briefbot/internal/types"
)

// --- Content Middleware ---

// WhitespaceMiddleware collapses runs of whitespace in the title and body.
// Paragraph breaks in the body are kept and empty paragraphs dropped. Text is
// otherwise left as extracted, so a literal "<" or "&amp;" survives.
type WhitespaceMiddleware struct{}

func (m *WhitespaceMiddleware) Name() string { return "whitespace" }

func (m *WhitespaceMiddleware) Process(rec *types.Record) (*types.Record, error) {
	rec.Title = collapse(rec.Title)

	paragraphs := strings.Split(rec.Body, "\n\n")
	out := paragraphs[:0]
	for _, p := range paragraphs {
		if c := collapse(p); c != "" {
			out = append(out, c)
		}
	}
	rec.Body = strings.Join(out, "\n\n")
	return rec, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// PIIRedactMiddleware redacts personally identifiable information from the
// body before it leaves the process.
type PIIRedactMiddleware struct {
	patterns map[string]*regexp.Regexp
	logger   *slog.Logger
}

func NewPIIRedactMiddleware(logger *slog.Logger) *PIIRedactMiddleware {
	return &PIIRedactMiddleware{
		patterns: map[string]*regexp.Regexp{
			"email":       regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
			"phone_intl":  regexp.MustCompile(`\+\d{1,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9}`),
			"credit_card": regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`),
		},
		logger: logger.With("component", "pii_redact"),
	}
}

func (m *PIIRedactMiddleware) Name() string { return "pii_redact" }

func (m *PIIRedactMiddleware) Process(rec *types.Record) (*types.Record, error) {
	s := rec.Body
	for piiType, re := range m.patterns {
		if re.MatchString(s) {
			s = re.ReplaceAllString(s, "[REDACTED_"+strings.ToUpper(piiType)+"]")
			m.logger.Debug("PII redacted", "url", rec.URL, "type", piiType)
		}
	}
	rec.Body = s
	rec.Excerpt = types.Excerpt(s, types.ExcerptLength)
	return rec, nil
}

// WordCountMiddleware stores the body word count as an extra field.
type WordCountMiddleware struct{}

// ExtraWordCount is the extra field set by WordCountMiddleware.
const ExtraWordCount = "word_count"

func (m *WordCountMiddleware) Name() string { return "word_count" }

func (m *WordCountMiddleware) Process(rec *types.Record) (*types.Record, error) {
	rec.Set(ExtraWordCount, strconv.Itoa(len(strings.Fields(rec.Body))))
	return rec, nil
}

// Default builds the chain applied to every run. Redaction is optional.
func Default(maxBody int, redactPII bool, logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(&TrimMiddleware{})
	p.Use(&WhitespaceMiddleware{})
	p.Use(&RequiredFieldsMiddleware{})
	p.Use(NewDedupMiddleware())
	p.Use(&MaxLengthMiddleware{Max: maxBody})
	if redactPII {
		p.Use(NewPIIRedactMiddleware(logger))
	}
	p.Use(&WordCountMiddleware{})
	return p
}
