package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/briefbot/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

func TestGenerate(t *testing.T) {
	var got chatRequest
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"briefing text"}}]}`))
	}))
	defer srv.Close()

	c := NewLLMClient(LLMConfig{
		Endpoint:    srv.URL + "/v1/",
		Model:       "test/model",
		APIKey:      "key",
		MaxTokens:   100,
		Temperature: 0.4,
		Referer:     "https://example.com",
		Title:       "briefbot",
	}, testLogger)

	out, err := c.Generate(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "briefing text", out)

	assert.Equal(t, "test/model", got.Model)
	assert.Equal(t, 100, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Content)

	assert.Equal(t, "Bearer key", headers.Get("Authorization"))
	assert.Equal(t, "https://example.com", headers.Get("HTTP-Referer"))
	assert.Equal(t, "briefbot", headers.Get("X-Title"))
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewLLMClient(LLMConfig{Endpoint: srv.URL, Model: "m"}, testLogger)
	_, err := c.Generate(context.Background(), "", "user")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "rate limited")
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewLLMClient(LLMConfig{Endpoint: srv.URL, Model: "m"}, testLogger)
	_, err := c.Generate(context.Background(), "", "user")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewLLMClient(LLMConfig{Endpoint: srv.URL, Model: "m", Timeout: 20 * time.Millisecond}, testLogger)
	_, err := c.Generate(context.Background(), "", "user")
	assert.Error(t, err)
}

type recordingGenerator struct {
	system, user string
	calls        int
}

func (g *recordingGenerator) Generate(_ context.Context, system, user string) (string, error) {
	g.calls++
	g.system, g.user = system, user
	return "ok", nil
}

func TestBriefer(t *testing.T) {
	gen := &recordingGenerator{}
	day := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	b := NewBriefer(gen, testLogger, WithNow(func() time.Time { return day }))

	rec, _ := types.NewRecord("T", "B", "https://x.example", "Reddit")
	sections := []types.Section{
		{Name: "Reddit", Content: "# Reddit Posts", SourceCount: 2, Records: []*types.Record{rec, rec}},
		{Name: "Futurism", Content: "# Futurism News", SourceCount: 1, Records: []*types.Record{rec}},
	}
	out, err := b.Brief(context.Background(), sections, 3)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, DefaultSystemPrompt, gen.system)

	assert.Contains(t, gen.user, "from 3 sources (3 items in total)")
	assert.Contains(t, gen.user, "for 04.03.2026")
	reddit := strings.Index(gen.user, "SOURCE: Reddit")
	futurism := strings.Index(gen.user, "SOURCE: Futurism")
	assert.True(t, reddit >= 0 && futurism > reddit, "sections out of order")
}

func TestBrieferRejectsEmpty(t *testing.T) {
	gen := &recordingGenerator{}
	_, err := NewBriefer(gen, testLogger).Brief(context.Background(), nil, 0)
	assert.Error(t, err)
	assert.Zero(t, gen.calls)
}

func TestLoadSystemPrompt(t *testing.T) {
	p, err := LoadSystemPrompt("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSystemPrompt, p)

	path := filepath.Join(t.TempDir(), "prompt.md")
	require.NoError(t, os.WriteFile(path, []byte("custom"), 0o644))
	p, err = LoadSystemPrompt(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", p)

	_, err = LoadSystemPrompt(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, err != nil && !errors.Is(err, ErrEmptyResponse))
}
