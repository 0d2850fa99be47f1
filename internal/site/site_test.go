package site

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{
		"theverge", "techcrunch", "mit_news", "ai_news",
		"deutsche_startups", "futurism", "theneuron",
	}, r.Keys())

	d, ok := r.Get("theneuron")
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, d.SettleDelay)
	assert.Equal(t, 4*time.Second, d.ListingSettleDelay)
	assert.Equal(t, 15, d.MaxFragments)
	assert.Equal(t, DefaultMinFragmentLength, d.MinFragmentLength)

	d, ok = r.Get("theverge")
	require.True(t, ok)
	assert.Equal(t, DefaultSettleDelay, d.SettleDelay)
	assert.Equal(t, DefaultMaxBodyLength, d.MaxBodyLength)

	_, ok = r.Get("nope")
	assert.False(t, ok)
}

func TestRegistryReturnsCopies(t *testing.T) {
	r := DefaultRegistry()
	d, _ := r.Get("techcrunch")
	d.ExcludePatterns[0] = "mutated"
	d.LinkSelector[0] = "mutated"

	again, _ := r.Get("techcrunch")
	assert.Equal(t, "/author/", again.ExcludePatterns[0])
	assert.Equal(t, "article a[href*='/202']", again.LinkSelector[0])
}

func TestNewRegistryRejectsInvalid(t *testing.T) {
	good := Descriptor{
		Key: "a", DisplayName: "A", ListingURL: "https://a.example/",
		LinkSelector: Chain("a"), TitleSelector: Chain("h1"), ContentSelector: Chain("p"),
	}

	_, err := NewRegistry(good, good)
	assert.Error(t, err, "duplicate key")

	rel := good
	rel.ListingURL = "/news"
	_, err = NewRegistry(rel)
	assert.Error(t, err, "relative listing URL")

	noContent := good
	noContent.ContentSelector = nil
	_, err = NewRegistry(noContent)
	assert.Error(t, err)

	r, err := NewRegistry(good)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestDescriptorExcluded(t *testing.T) {
	d, _ := DefaultRegistry().Get("techcrunch")
	assert.True(t, d.Excluded("https://techcrunch.com/tag/ai/"))
	assert.False(t, d.Excluded("https://techcrunch.com/2025/01/02/story/"))
	assert.Equal(t, "https://techcrunch.com", d.Origin().String())
}

func TestDescriptorOnSite(t *testing.T) {
	d, _ := DefaultRegistry().Get("futurism")
	require.True(t, d.SameSite)
	assert.True(t, d.OnSite("https://futurism.com/the-byte/story"))
	assert.True(t, d.OnSite("https://www.futurism.com/story"))
	assert.False(t, d.OnSite("https://facebook.com/futurism.com"))
	assert.False(t, d.OnSite("https://notfuturism.com/story"))

	verge, _ := DefaultRegistry().Get("theverge")
	assert.True(t, verge.OnSite("https://elsewhere.example/story"), "filter is off by default")
}

func TestApplyOverrides(t *testing.T) {
	data := []byte(`
sites:
  theverge:
    content: ["main p", "xpath://div[@id='body']//p"]
    settle: 3s
  example_news:
    name: Example News
    listing_url: https://news.example.com/ai
    links: ["a.story"]
    title: ["h1"]
    content: ["article p"]
    exclude: ["/tag/"]
    same_site: true
  futurism:
    same_site: false
`)
	out, err := ApplyOverrides(data, Builtin())
	require.NoError(t, err)
	require.Len(t, out, len(Builtin())+1)

	verge := out[0]
	assert.Equal(t, "theverge", verge.Key)
	assert.Equal(t, SelectorChain{"main p", "xpath://div[@id='body']//p"}, verge.ContentSelector)
	assert.Equal(t, 3*time.Second, verge.SettleDelay)
	assert.Equal(t, Chain("h1"), verge.TitleSelector, "untouched fields survive")

	added := out[len(out)-1]
	assert.Equal(t, "example_news", added.Key)
	assert.Equal(t, "Example News", added.DisplayName)
	assert.True(t, added.SameSite)

	for _, d := range out {
		if d.Key == "futurism" {
			assert.False(t, d.SameSite, "override switches the filter off")
		}
	}

	r, err := NewRegistry(out...)
	require.NoError(t, err)
	assert.Equal(t, len(out), r.Len())
}

func TestApplyOverridesBadYAML(t *testing.T) {
	_, err := ApplyOverrides([]byte("sites: [unclosed"), Builtin())
	assert.Error(t, err)
}

func TestSelectorChainCompile(t *testing.T) {
	assert.NoError(t, Chain("article p", "xpath://main//p[@class='lead']").Compile())
	assert.Error(t, Chain("p[[").Compile())
	assert.Error(t, Chain("xpath://p[").Compile())
}
