package site

import (
	"fmt"
	"time"
)

// Registry is an immutable, ordered set of descriptors keyed by source key.
type Registry struct {
	order []string
	byKey map[string]Descriptor
}

// NewRegistry validates the descriptors and freezes them into a Registry.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{byKey: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		d = d.withDefaults()
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byKey[d.Key]; dup {
			return nil, fmt.Errorf("duplicate descriptor key %q", d.Key)
		}
		r.byKey[d.Key] = d.clone()
		r.order = append(r.order, d.Key)
	}
	return r, nil
}

// Get returns a copy of the descriptor registered under key.
func (r *Registry) Get(key string) (Descriptor, bool) {
	d, ok := r.byKey[key]
	if !ok {
		return Descriptor{}, false
	}
	return d.clone(), true
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of descriptors.
func (r *Registry) Len() int {
	return len(r.order)
}

// Builtin returns the descriptors for the news sites this tool knows about.
func Builtin() []Descriptor {
	return []Descriptor{
		{
			Key:             "theverge",
			DisplayName:     "The Verge",
			ListingURL:      "https://www.theverge.com/ai-artificial-intelligence",
			LinkSelector:    Chain("a[href*='/202']"),
			TitleSelector:   Chain("h1"),
			AuthorSelector:  Chain("a[href*='/authors/']", "[class*='author']"),
			ContentSelector: Chain("article p", ".article-body p", "[class*='article-body'] p"),
			ExcludePatterns: []string{"/authors/", "/archives/", "/about/", "/reviews/"},
		},
		{
			Key:             "techcrunch",
			DisplayName:     "TechCrunch",
			ListingURL:      "https://techcrunch.com/tag/artificial-intelligence/",
			LinkSelector:    Chain("article a[href*='/202']", "h2 a[href*='/202']", "h3 a[href*='/202']"),
			TitleSelector:   Chain("h1"),
			AuthorSelector:  Chain("a[href*='/author/']", "[class*='author']"),
			ContentSelector: Chain("article p", ".article-content p", "[class*='article'] p"),
			ExcludePatterns: []string{"/author/", "/tag/", "/category/", "/event/"},
		},
		{
			Key:             "mit_news",
			DisplayName:     "MIT News",
			ListingURL:      "https://news.mit.edu/topic/artificial-intelligence2",
			LinkSelector:    Chain("a[href*='/202']"),
			TitleSelector:   Chain("h1"),
			AuthorSelector:  Chain(".publication-date", ".author", "[class*='author']"),
			ContentSelector: Chain("article p", ".news-article p", "[class*='article'] p", ".paragraph p"),
			ExcludePatterns: []string{"/topic/", "/office/"},
		},
		{
			Key:             "ai_news",
			DisplayName:     "AI News",
			ListingURL:      "https://www.artificialintelligence-news.com/",
			LinkSelector:    Chain("a[href*='/news/']"),
			TitleSelector:   Chain("h1"),
			AuthorSelector:  Chain(".author", "[class*='author']", ".byline"),
			ContentSelector: Chain("article p", ".entry-content p", ".post-content p", "[class*='content'] p"),
			ExcludePatterns: []string{"/categories/", "/tag/", "/page/", "/author/", "/videos"},
		},
		{
			Key:             "deutsche_startups",
			DisplayName:     "Deutsche Startups",
			ListingURL:      "https://www.deutsche-startups.de/",
			LinkSelector:    Chain("a[href*='deutsche-startups.de/202']"),
			TitleSelector:   Chain("h1"),
			AuthorSelector:  Chain(".author", "[class*='author']", ".entry-meta a"),
			ContentSelector: Chain("article p", ".entry-content p"),
			ExcludePatterns: []string{"/tag/", "/kategorie/", "/page/"},
		},
		{
			Key:               "futurism",
			DisplayName:       "Futurism",
			ListingURL:        "https://futurism.com/category/artificial-intelligence",
			LinkSelector:      Chain("article a[href*='/']", ".post-card a[href*='/']", "a[href*='futurism.com/']"),
			TitleSelector:     Chain("h1"),
			AuthorSelector:    Chain("a[rel='author']", ".author-name", "[class*='author']"),
			ContentSelector:   Chain("article p", ".article-content p", ".post-content p", "[class*='article-body'] p"),
			CategorySelector:  Chain("a[href*='/category/'] span", ".category"),
			DefaultCategory:   "AI",
			ExcludePatterns:   []string{"/category/", "/tag/"},
			SameSite:          true,
			MinFragmentLength: 20,
			MaxFragments:      10,
			MaxBodyLength:     1500,
		},
		{
			Key:                "theneuron",
			DisplayName:        "The Neuron",
			ListingURL:         "https://www.theneuron.ai/newsletter",
			LinkSelector:       Chain("a[href^='/newsletter/']"),
			TitleSelector:      Chain("h1"),
			ContentSelector:    Chain("article p", "[class*='article'] p", "[class*='content'] p", ".newsletter-content p", "main p"),
			SettleDelay:        2 * time.Second,
			ListingSettleDelay: 4 * time.Second,
			MaxFragments:       15,
		},
	}
}

// DefaultRegistry builds a Registry from Builtin.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		panic(fmt.Sprintf("builtin descriptors are invalid: %v", err))
	}
	return r
}
