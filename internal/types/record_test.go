package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewRecord(t *testing.T) {
	rec, err := NewRecord("  Title  ", "\n body \n", "https://example.com/a", "Example")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Title != "Title" || rec.Body != "body" {
		t.Errorf("fields not trimmed: %q / %q", rec.Title, rec.Body)
	}
	if rec.Excerpt != "body" {
		t.Errorf("expected excerpt 'body', got %q", rec.Excerpt)
	}
	if rec.ScrapedAt.IsZero() {
		t.Error("expected ScrapedAt to be set")
	}
}

func TestNewRecordIncomplete(t *testing.T) {
	tests := []struct{ title, body string }{
		{"", "body"},
		{"title", "   "},
		{"", ""},
	}
	for _, tt := range tests {
		rec, err := NewRecord(tt.title, tt.body, "https://example.com", "x")
		if !errors.Is(err, ErrIncompleteRecord) {
			t.Errorf("NewRecord(%q, %q): expected ErrIncompleteRecord, got %v", tt.title, tt.body, err)
		}
		if rec != nil {
			t.Errorf("NewRecord(%q, %q): expected nil record", tt.title, tt.body)
		}
	}
}

func TestRecordExtra(t *testing.T) {
	rec := &Record{Title: "t"}
	rec.Set(ExtraScore, "42")
	rec.Set(ExtraComments, "")

	if rec.Get(ExtraScore) != "42" {
		t.Errorf("expected score 42, got %q", rec.Get(ExtraScore))
	}
	if _, ok := rec.Extra[ExtraComments]; ok {
		t.Error("empty values must not be stored")
	}
	if got := rec.GetOr(ExtraComments, "0 comments"); got != "0 comments" {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestRecordClone(t *testing.T) {
	rec, _ := NewRecord("t", "b", "https://example.com", "x")
	rec.Set(ExtraCategory, "AI")

	clone := rec.Clone()
	clone.Set(ExtraCategory, "Robots")
	clone.Title = "changed"

	if rec.Get(ExtraCategory) != "AI" || rec.Title != "t" {
		t.Error("clone must not share state with the original")
	}
}

func TestRecordToJSON(t *testing.T) {
	rec, _ := NewRecord("t", "b", "https://example.com", "x")
	data, err := rec.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["url"] != "https://example.com" {
		t.Errorf("unexpected url %v", m["url"])
	}
	if _, ok := m["author"]; ok {
		t.Error("empty author must be omitted")
	}
}

func TestTruncateAndExcerpt(t *testing.T) {
	if got := Truncate("héllo wörld", 5); got != "héllo" {
		t.Errorf("truncate must count runes, got %q", got)
	}
	if got := Truncate("short", 0); got != "short" {
		t.Errorf("zero limit must not truncate, got %q", got)
	}
	if got := Excerpt("short", 10); got != "short" {
		t.Errorf("short text must stay unchanged, got %q", got)
	}

	long := strings.Repeat("a", ExcerptLength+5)
	got := Excerpt(long, ExcerptLength)
	if len(got) != ExcerptLength+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("unexpected excerpt length %d", len(got))
	}
}

func TestErrorsUnwrap(t *testing.T) {
	base := errors.New("boom")
	errs := []error{
		&FetchError{URL: "u", StatusCode: 500, Err: base},
		&ParseError{URL: "u", Selector: "h1", Err: base},
		&SourceError{Source: "reddit", Err: base},
		&StorageError{Backend: "sqlite", Err: base},
		&PipelineError{Stage: "dedup", Err: base},
	}
	for _, err := range errs {
		if !errors.Is(err, base) {
			t.Errorf("%T does not unwrap to its cause", err)
		}
		if err.Error() == "" {
			t.Errorf("%T has an empty message", err)
		}
	}
}

func TestFetchErrorMessage(t *testing.T) {
	cases := []struct {
		err  *FetchError
		want string
	}{
		{&FetchError{URL: "https://a.test/x", StatusCode: 404}, "fetch error for https://a.test/x (status 404)"},
		{&FetchError{URL: "https://a.test/x", StatusCode: 503, Err: errors.New("unavailable")}, "fetch error for https://a.test/x (status 503): unavailable"},
		{&FetchError{URL: "https://a.test/x", Err: errors.New("timeout")}, "fetch error for https://a.test/x: timeout"},
		{&FetchError{URL: "https://a.test/x"}, "fetch error for https://a.test/x"},
	}
	for _, tc := range cases {
		got := tc.err.Error()
		if got != tc.want {
			t.Errorf("got %q, want %q", got, tc.want)
		}
		if strings.Contains(got, "<nil>") {
			t.Errorf("message leaks a nil cause: %q", got)
		}
	}
}
