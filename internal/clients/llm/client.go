// Package llm provides sentiment analysis of news articles using the Google
// Gemini API. Responses are requested as JSON and parsed into a structured
// scoring; any failure degrades a single focus entry, never an analysis run.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/quiverlabs/radar/internal/domain"
)

const defaultModel = "gemini-2.0-flash"

// Config holds LLM client configuration.
type Config struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	RequestTimeout  time.Duration
}

// DefaultConfig returns the production configuration.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:          apiKey,
		Model:           defaultModel,
		Temperature:     0.3,
		MaxOutputTokens: 500,
		RequestTimeout:  30 * time.Second,
	}
}

// generator abstracts the Gemini call so parsing can be tested without the
// live API.
type generator interface {
	generate(ctx context.Context, model, prompt string) (string, error)
}

// Client analyzes news articles with Gemini. It implements
// domain.SentimentProvider.
type Client struct {
	cfg Config
	gen generator
	log zerolog.Logger
}

// NewClient creates a new Gemini sentiment client.
// An empty API key disables analysis: Analyze returns a nil result.
func NewClient(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	clientLog := log.With().Str("client", "llm").Logger()

	if cfg.APIKey == "" {
		clientLog.Warn().Msg("Gemini API key not configured, sentiment analysis disabled")
		return &Client{cfg: cfg, log: clientLog}, nil
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	return &Client{
		cfg: cfg,
		gen: &geminiGenerator{client: genaiClient, cfg: cfg},
		log: clientLog,
	}, nil
}

// analysisResponse is the JSON shape requested from the model.
type analysisResponse struct {
	Summary               string   `json:"summary"`
	SentimentScore        float64  `json:"sentiment_score"`
	RelevanceScore        float64  `json:"relevance_score"`
	KeyThemes             []string `json:"key_themes"`
	RiskFactors           []string `json:"risk_factors"`
	InvestmentImplication string   `json:"investment_implication"`
}

// Analyze extracts a structured sentiment scoring from the given articles.
// A nil result with nil error means analysis is unavailable; callers
// substitute a neutral default.
func (c *Client) Analyze(ctx context.Context, ticker, name string, articles []domain.NewsArticle) (*domain.SentimentResult, error) {
	if c.gen == nil || len(articles) == 0 {
		return nil, nil
	}

	c.log.Info().
		Str("ticker", ticker).
		Int("articles", len(articles)).
		Msg("Analyzing news articles")

	timeoutCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	prompt := buildAnalysisPrompt(ticker, name, articles)

	text, err := c.gen.generate(timeoutCtx, c.cfg.Model, prompt)
	if err != nil {
		return nil, fmt.Errorf("sentiment analysis failed for %s: %w", ticker, err)
	}

	result, err := parseAnalysis(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sentiment response for %s: %w", ticker, err)
	}

	c.log.Debug().
		Str("ticker", ticker).
		Float64("score", result.Score).
		Float64("relevance", result.Relevance).
		Msg("Sentiment analysis completed")

	return result, nil
}

func buildAnalysisPrompt(ticker, name string, articles []domain.NewsArticle) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a financial analyst analyzing news for %s (%s).\n\n", ticker, name)
	sb.WriteString("Below are recent news articles related to this fund and its underlying sector:\n\n")

	for i, article := range articles {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&sb, "Article %d:\n", i+1)
		fmt.Fprintf(&sb, "  Title: %s\n", article.Title)
		fmt.Fprintf(&sb, "  Source: %s\n", article.Source)
		if article.Description != "" {
			fmt.Fprintf(&sb, "  Description: %s\n", article.Description)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(`Provide a comprehensive analysis in JSON format with the following fields:

1. summary (string): A 2-3 sentence summary of the main themes across all articles. Focus on actionable investment insights.
2. sentiment_score (float): Overall sentiment from -1.0 (very negative) to +1.0 (very positive). Consider both explicit sentiment and implicit market implications.
3. relevance_score (float): How relevant these articles are to the fund's investment thesis, from 0.0 (not relevant) to 1.0 (highly relevant).
4. key_themes (array of strings): 2-4 key investment themes or narratives.
5. risk_factors (array of strings): 2-4 risk factors or concerns mentioned.
6. investment_implication (string): One sentence describing the key investment implication.

Respond ONLY with valid JSON. No markdown formatting, no code blocks, just raw JSON.`)

	return sb.String()
}

// parseAnalysis decodes the model output into a sentiment result. Scores are
// clamped to their documented ranges. Markdown code fences are stripped
// because models occasionally wrap JSON despite instructions.
func parseAnalysis(text string) (*domain.SentimentResult, error) {
	jsonText := extractJSON(text)

	var parsed analysisResponse
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return nil, err
	}

	summary := parsed.Summary
	if parsed.InvestmentImplication != "" {
		summary = strings.TrimSpace(summary + " " + parsed.InvestmentImplication)
	}

	return &domain.SentimentResult{
		Summary:     summary,
		Score:       clamp(parsed.SentimentScore, -1, 1),
		Relevance:   clamp(parsed.RelevanceScore, 0, 1),
		Themes:      parsed.KeyThemes,
		RiskFactors: parsed.RiskFactors,
	}, nil
}

func extractJSON(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+7:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(text)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// geminiGenerator is the live Gemini backend.
type geminiGenerator struct {
	client *genai.Client
	cfg    Config
}

func (g *geminiGenerator) generate(ctx context.Context, model, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.cfg.Temperature),
		MaxOutputTokens:  g.cfg.MaxOutputTokens,
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	var response strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from model")
	}

	return response.String(), nil
}
