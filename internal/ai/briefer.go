package ai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/IshaanNene/briefbot/internal/types"
)

// DefaultSystemPrompt instructs the model to write the executive briefing.
const DefaultSystemPrompt = `You write executive briefings about AI news for heads of marketing and communications, in a spoken podcast style.

Work in this order:
1. Find items from different sources that cover the same event, product, study or regulation. Keep the most detailed original source and fold in only what the others add.
2. Sort every remaining item into STRATEGIC (market, regulation, competition), CREATIVE (tools and workflows for content teams) or TEAM (use cases and productivity worth sharing).
3. Rank items inside each category and drop anything that does not affect marketing or communications.
4. For each item write a short headline, what happened, why it matters to the audience and what to do next.
5. Close with the top three recommendations for the reader, for the creative team and for the whole team.

Every item MUST link its original article with the URL given in the input, as a markdown link [title](URL).
Mark unclear sourcing with [VERIFICATION NEEDED]. Pay attention to developments in the EU and the DACH region.
Aim for 1500 to 2500 words.`

// Generator produces text from a system and a user message.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Briefer builds the briefing prompt from the aggregated sections.
type Briefer struct {
	gen    Generator
	system string
	now    func() time.Time
	logger *slog.Logger
}

// BrieferOption configures the Briefer.
type BrieferOption func(*Briefer)

// WithSystemPrompt replaces DefaultSystemPrompt.
func WithSystemPrompt(prompt string) BrieferOption {
	return func(b *Briefer) {
		if strings.TrimSpace(prompt) != "" {
			b.system = prompt
		}
	}
}

// WithNow sets the clock used for the briefing date.
func WithNow(now func() time.Time) BrieferOption {
	return func(b *Briefer) { b.now = now }
}

// NewBriefer creates a Briefer over gen.
func NewBriefer(gen Generator, logger *slog.Logger, opts ...BrieferOption) *Briefer {
	b := &Briefer{
		gen:    gen,
		system: DefaultSystemPrompt,
		now:    time.Now,
		logger: logger.With("component", "briefer"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// LoadSystemPrompt reads a prompt file. An empty path yields the default.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return DefaultSystemPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	return string(data), nil
}

// Brief sends the sections to the generator. Callers skip it for an empty
// batch; an empty section list is still rejected here.
func (b *Briefer) Brief(ctx context.Context, sections []types.Section, totalSources int) (string, error) {
	if len(sections) == 0 {
		return "", fmt.Errorf("briefing: no sections")
	}
	prompt := BuildUserPrompt(sections, totalSources, b.now())
	b.logger.Info("requesting briefing", "sections", len(sections), "sources", totalSources, "prompt_chars", len(prompt))
	return b.gen.Generate(ctx, b.system, prompt)
}

// BuildUserPrompt renders the sections as SOURCE blocks followed by the
// task description.
func BuildUserPrompt(sections []types.Section, totalSources int, now time.Time) string {
	rule := strings.Repeat("=", 38)
	items := 0

	var news strings.Builder
	for _, s := range sections {
		if strings.TrimSpace(s.Content) == "" {
			continue
		}
		items += len(s.Records)
		fmt.Fprintf(&news, "\n%s\nSOURCE: %s\n%s\n\n%s\n", rule, s.Name, rule, s.Content)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here is today's AI news from %d sources (%d items in total):\n", totalSources, items)
	b.WriteString(news.String())
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "Write the complete executive briefing in podcast format for %s.\n\n", now.Format("02.01.2006"))
	b.WriteString("Remember:\n")
	b.WriteString("1. Run the duplicate analysis first\n")
	b.WriteString("2. Categorize and rank every unique item\n")
	b.WriteString("3. Write the structured script in the required format\n")
	b.WriteString("4. Close with concrete recommendations\n")
	return b.String()
}
