package engine

import (
	"time"

	"github.com/IshaanNene/briefbot/internal/types"
)

// Batch is the aggregated result of one run.
type Batch struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	// Sections appear in source order. Empty sources add no section.
	Sections []types.Section

	// TotalSourceCount counts logical sources: one per subreddit, one per
	// web site and one for each other source that produced a section.
	TotalSourceCount int
}

// Empty reports whether no source produced anything.
func (b *Batch) Empty() bool {
	return b == nil || len(b.Sections) == 0
}

// Records returns every record of the batch in section order.
func (b *Batch) Records() []*types.Record {
	if b == nil {
		return nil
	}
	var out []*types.Record
	for _, s := range b.Sections {
		out = append(out, s.Records...)
	}
	return out
}

// Section returns the section with the given name.
func (b *Batch) Section(name string) (types.Section, bool) {
	if b == nil {
		return types.Section{}, false
	}
	for _, s := range b.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return types.Section{}, false
}

func (b *Batch) add(s types.Section) {
	b.Sections = append(b.Sections, s)
	b.TotalSourceCount += s.SourceCount
}
