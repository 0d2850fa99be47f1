package site

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// OverrideFile is the YAML shape of a descriptor overrides file.
//
//	sites:
//	  theverge:
//	    content: ["article p", "xpath://div[@class='body']//p"]
//	  example_news:
//	    name: Example News
//	    listing_url: https://news.example.com/ai
//	    links: ["a[href*='/story/']"]
//	    title: ["h1"]
//	    content: ["article p"]
type OverrideFile struct {
	Sites map[string]Override `yaml:"sites"`
}

// Override replaces the non-empty fields of a descriptor.
type Override struct {
	DisplayName   string        `yaml:"name"`
	ListingURL    string        `yaml:"listing_url"`
	Links         []string      `yaml:"links"`
	Title         []string      `yaml:"title"`
	Author        []string      `yaml:"author"`
	Content       []string      `yaml:"content"`
	Category      []string      `yaml:"category"`
	CategoryLabel string        `yaml:"default_category"`
	Exclude       []string      `yaml:"exclude"`
	SameSite      *bool         `yaml:"same_site"`
	Settle        time.Duration `yaml:"settle"`
	ListingSettle time.Duration `yaml:"listing_settle"`
	MinFragment   int           `yaml:"min_fragment_length"`
	MaxFragments  int           `yaml:"max_fragments"`
	MaxBodyLength int           `yaml:"max_body_length"`
}

// LoadOverrides reads path and applies it on top of base.
// Unknown keys add new descriptors, appended in sorted key order.
func LoadOverrides(path string, base []Descriptor) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}
	return ApplyOverrides(data, base)
}

// ApplyOverrides parses YAML overrides and merges them into base.
func ApplyOverrides(data []byte, base []Descriptor) ([]Descriptor, error) {
	var file OverrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sites file: %w", err)
	}

	out := make([]Descriptor, 0, len(base)+len(file.Sites))
	seen := make(map[string]bool, len(base))
	for _, d := range base {
		d = d.clone()
		if o, ok := file.Sites[d.Key]; ok {
			d = o.apply(d)
		}
		seen[d.Key] = true
		out = append(out, d)
	}

	for _, key := range sortedKeys(file.Sites) {
		if seen[key] {
			continue
		}
		d := file.Sites[key].apply(Descriptor{Key: key})
		if d.DisplayName == "" {
			d.DisplayName = key
		}
		out = append(out, d)
	}
	return out, nil
}

func (o Override) apply(d Descriptor) Descriptor {
	if o.DisplayName != "" {
		d.DisplayName = o.DisplayName
	}
	if o.ListingURL != "" {
		d.ListingURL = o.ListingURL
	}
	if len(o.Links) > 0 {
		d.LinkSelector = Chain(o.Links...)
	}
	if len(o.Title) > 0 {
		d.TitleSelector = Chain(o.Title...)
	}
	if len(o.Author) > 0 {
		d.AuthorSelector = Chain(o.Author...)
	}
	if len(o.Content) > 0 {
		d.ContentSelector = Chain(o.Content...)
	}
	if len(o.Category) > 0 {
		d.CategorySelector = Chain(o.Category...)
	}
	if o.CategoryLabel != "" {
		d.DefaultCategory = o.CategoryLabel
	}
	if o.Exclude != nil {
		d.ExcludePatterns = append([]string(nil), o.Exclude...)
	}
	if o.SameSite != nil {
		d.SameSite = *o.SameSite
	}
	if o.Settle > 0 {
		d.SettleDelay = o.Settle
	}
	if o.ListingSettle > 0 {
		d.ListingSettleDelay = o.ListingSettle
	}
	if o.MinFragment > 0 {
		d.MinFragmentLength = o.MinFragment
	}
	if o.MaxFragments > 0 {
		d.MaxFragments = o.MaxFragments
	}
	if o.MaxBodyLength > 0 {
		d.MaxBodyLength = o.MaxBodyLength
	}
	return d
}

func sortedKeys(m map[string]Override) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
