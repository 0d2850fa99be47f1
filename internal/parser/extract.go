package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/briefbot/internal/site"
	"github.com/IshaanNene/briefbot/internal/types"
)

// ExtractArticle pulls one Record out of a rendered article page.
//
// It fails with a *types.ParseError when the title chain matches nothing or
// when no content fragment survives the length filter.
func ExtractArticle(d site.Descriptor, doc *goquery.Document, pageURL string) (*types.Record, error) {
	root := doc.Selection

	title := SelectText(root, d.TitleSelector)
	if title == "" {
		return nil, &types.ParseError{URL: pageURL, Selector: d.TitleSelector.String(), Err: types.ErrNoTitle}
	}

	body := Body(root, d)
	if body == "" {
		return nil, &types.ParseError{URL: pageURL, Selector: d.ContentSelector.String(), Err: types.ErrEmptyBody}
	}

	rec, err := types.NewRecord(title, body, pageURL, d.DisplayName)
	if err != nil {
		return nil, &types.ParseError{URL: pageURL, Err: err}
	}
	rec.Author = Author(root, d)
	rec.Set(types.ExtraCategory, Category(root, d))

	meta := PageMetadata(doc)
	rec.Set(types.ExtraPublished, meta.Published)
	if meta.Canonical != "" && meta.Canonical != pageURL {
		rec.Set(types.ExtraCanonical, meta.Canonical)
	}
	return rec, nil
}

// Category returns the matched category label or the descriptor default.
func Category(root *goquery.Selection, d site.Descriptor) string {
	if c := SelectText(root, d.CategorySelector); c != "" {
		return c
	}
	return d.DefaultCategory
}

// Body joins the first MaxFragments content matches longer than
// MinFragmentLength with blank lines and caps the result at MaxBodyLength.
func Body(root *goquery.Selection, d site.Descriptor) string {
	var kept []string
	Select(root, d.ContentSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if d.MaxFragments > 0 && i >= d.MaxFragments {
			return false
		}
		text := strings.TrimSpace(s.Text())
		if utf8.RuneCountInString(text) > d.MinFragmentLength {
			kept = append(kept, text)
		}
		return true
	})
	return types.Truncate(strings.Join(kept, "\n\n"), d.MaxBodyLength)
}

// Author returns the byline matched by the author chain, falling back to the
// site display name when it is missing or implausibly long.
func Author(root *goquery.Selection, d site.Descriptor) string {
	if d.AuthorSelector.IsEmpty() {
		return d.DisplayName
	}
	author := strings.TrimSpace(Select(root, d.AuthorSelector).First().Text())
	if author == "" || utf8.RuneCountInString(author) >= site.MaxAuthorLength {
		return d.DisplayName
	}
	return NormalizeSpace(author)
}
