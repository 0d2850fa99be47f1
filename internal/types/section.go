package types

// Section is one formatted block of the aggregated batch.
type Section struct {
	// Name is the display name of the section, e.g. "Reddit".
	Name string

	// Content is the formatted text handed to the briefing generator.
	Content string

	// SourceCount is the number of logical sources behind the section.
	// One per subreddit for the forum and one per site for web news.
	SourceCount int

	// Records are the records the content was formatted from.
	Records []*Record
}
