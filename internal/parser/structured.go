package parser

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Metadata is the machine-readable description an article page carries about
// itself in JSON-LD, OpenGraph and standard meta tags.
type Metadata struct {
	Headline    string
	Author      string
	Published   string
	Description string
	Canonical   string
}

// articleTypes are the JSON-LD @type values that describe an article.
var articleTypes = map[string]bool{
	"Article":              true,
	"NewsArticle":          true,
	"BlogPosting":          true,
	"TechArticle":          true,
	"ReportageNewsArticle": true,
}

// PageMetadata reads the structured data of doc. JSON-LD wins over
// OpenGraph, which wins over plain meta tags.
func PageMetadata(doc *goquery.Document) Metadata {
	var m Metadata
	for _, obj := range jsonLD(doc) {
		if !isArticle(obj["@type"]) {
			continue
		}
		m.Headline = firstNonEmpty(m.Headline, stringField(obj["headline"]))
		m.Author = firstNonEmpty(m.Author, personName(obj["author"]))
		m.Published = firstNonEmpty(m.Published, stringField(obj["datePublished"]))
		m.Description = firstNonEmpty(m.Description, stringField(obj["description"]))
	}

	m.Headline = firstNonEmpty(m.Headline, metaContent(doc, `meta[property="og:title"]`))
	m.Published = firstNonEmpty(m.Published, metaContent(doc, `meta[property="article:published_time"]`))
	m.Description = firstNonEmpty(m.Description,
		metaContent(doc, `meta[property="og:description"]`),
		metaContent(doc, `meta[name="description"]`))
	m.Author = firstNonEmpty(m.Author, metaContent(doc, `meta[name="author"]`))

	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		m.Canonical = strings.TrimSpace(href)
	}
	m.Canonical = firstNonEmpty(m.Canonical, metaContent(doc, `meta[property="og:url"]`))
	return m
}

// jsonLD parses every ld+json script. Arrays and @graph containers are
// flattened; malformed scripts are skipped.
func jsonLD(doc *goquery.Document) []map[string]any {
	var out []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		var single map[string]any
		if err := json.Unmarshal([]byte(raw), &single); err == nil {
			out = append(out, single)
			if graph, ok := single["@graph"].([]any); ok {
				out = append(out, objects(graph)...)
			}
			return
		}

		var list []any
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			out = append(out, objects(list)...)
		}
	})
	return out
}

func objects(items []any) []map[string]any {
	var out []map[string]any
	for _, it := range items {
		if obj, ok := it.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func isArticle(t any) bool {
	switch v := t.(type) {
	case string:
		return articleTypes[v]
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && articleTypes[s] {
				return true
			}
		}
	}
	return false
}

// personName accepts a name string, a Person object or a list of either.
// Lists are joined with ", ".
func personName(v any) string {
	switch a := v.(type) {
	case string:
		return NormalizeSpace(a)
	case map[string]any:
		return stringField(a["name"])
	case []any:
		var names []string
		for _, e := range a {
			if n := personName(e); n != "" {
				names = append(names, n)
			}
		}
		return strings.Join(names, ", ")
	}
	return ""
}

func stringField(v any) string {
	s, _ := v.(string)
	return NormalizeSpace(s)
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return NormalizeSpace(content)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
