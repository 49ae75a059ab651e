package llm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiverlabs/radar/internal/domain"
)

type stubGenerator struct {
	response string
	err      error
	prompt   string
}

func (s *stubGenerator) generate(ctx context.Context, model, prompt string) (string, error) {
	s.prompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testClient(gen generator) *Client {
	return &Client{
		cfg: DefaultConfig("test-key"),
		gen: gen,
		log: zerolog.Nop(),
	}
}

func testArticles() []domain.NewsArticle {
	return []domain.NewsArticle{
		{
			Title:       "Tech sector rallies on chip demand",
			Source:      "Reuters",
			URL:         "https://example.com/a1",
			PublishedAt: time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC),
			Description: "Semiconductor stocks led gains.",
		},
		{
			Title:       "Software earnings beat expectations",
			Source:      "WSJ",
			URL:         "https://example.com/a2",
			PublishedAt: time.Date(2026, 8, 27, 9, 30, 0, 0, time.UTC),
		},
	}
}

const validResponse = `{
	"summary": "Technology sector showing strong momentum on chip demand.",
	"sentiment_score": 0.65,
	"relevance_score": 0.85,
	"key_themes": ["AI growth", "Strong earnings"],
	"risk_factors": ["Valuation concerns"],
	"investment_implication": "Positive momentum supported by fundamentals."
}`

func TestAnalyze_Success(t *testing.T) {
	gen := &stubGenerator{response: validResponse}
	client := testClient(gen)

	result, err := client.Analyze(context.Background(), "IYW", "iShares U.S. Technology ETF", testArticles())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 0.65, result.Score)
	assert.Equal(t, 0.85, result.Relevance)
	assert.Equal(t, []string{"AI growth", "Strong earnings"}, result.Themes)
	assert.Equal(t, []string{"Valuation concerns"}, result.RiskFactors)
	assert.Contains(t, result.Summary, "strong momentum")
	assert.Contains(t, result.Summary, "Positive momentum")
}

func TestAnalyze_PromptContainsArticles(t *testing.T) {
	gen := &stubGenerator{response: validResponse}
	client := testClient(gen)

	_, err := client.Analyze(context.Background(), "IYW", "iShares U.S. Technology ETF", testArticles())
	require.NoError(t, err)

	assert.Contains(t, gen.prompt, "IYW (iShares U.S. Technology ETF)")
	assert.Contains(t, gen.prompt, "Tech sector rallies on chip demand")
	assert.Contains(t, gen.prompt, "Software earnings beat expectations")
	assert.Contains(t, gen.prompt, "Respond ONLY with valid JSON")
}

func TestAnalyze_NoArticles(t *testing.T) {
	client := testClient(&stubGenerator{response: validResponse})

	result, err := client.Analyze(context.Background(), "IVV", "iShares Core S&P 500 ETF", nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestAnalyze_NotConfigured(t *testing.T) {
	client, err := NewClient(context.Background(), DefaultConfig(""), zerolog.Nop())
	require.NoError(t, err)

	result, err := client.Analyze(context.Background(), "IVV", "iShares Core S&P 500 ETF", testArticles())
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestAnalyze_GenerationError(t *testing.T) {
	gen := &stubGenerator{err: fmt.Errorf("quota exceeded")}
	client := testClient(gen)

	_, err := client.Analyze(context.Background(), "IVV", "iShares Core S&P 500 ETF", testArticles())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestAnalyze_InvalidJSON(t *testing.T) {
	gen := &stubGenerator{response: "I cannot analyze these articles."}
	client := testClient(gen)

	_, err := client.Analyze(context.Background(), "IVV", "iShares Core S&P 500 ETF", testArticles())
	require.Error(t, err)
}

func TestAnalyze_ClampsScores(t *testing.T) {
	gen := &stubGenerator{response: `{
		"summary": "Extreme reading.",
		"sentiment_score": 3.5,
		"relevance_score": -0.2,
		"key_themes": [],
		"risk_factors": []
	}`}
	client := testClient(gen)

	result, err := client.Analyze(context.Background(), "IVV", "iShares Core S&P 500 ETF", testArticles())
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, 0.0, result.Relevance)
}

func TestParseAnalysis_StripsCodeFences(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"json fence", "```json\n" + validResponse + "\n```"},
		{"bare fence", "```\n" + validResponse + "\n```"},
		{"raw", validResponse},
		{"surrounding prose with fence", "Here is the analysis:\n```json\n" + validResponse + "\n```\nLet me know."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := parseAnalysis(tc.text)
			require.NoError(t, err)
			assert.Equal(t, 0.65, result.Score)
		})
	}
}
