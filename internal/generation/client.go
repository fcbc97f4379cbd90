// Package generation drives the Gemini API for all journey text generation:
// auto-generated stage content, section summaries, suggestions, and
// refinements. Market-facing stages are generated with Google Search
// grounding enabled so the results carry sources.
package generation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"venturemap/internal/catalog"
	"venturemap/internal/journey"
	"venturemap/internal/plan"
)

const defaultModel = "gemini-3-flash-preview"

// Config configures the Gemini client.
type Config struct {
	APIKey string
	Model  string
	Logger *zap.Logger
}

// Client implements the journey engine's generator on the Gemini API.
type Client struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

// New creates a Gemini-backed generation client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Client{client: client, model: model, log: log}, nil
}

// searchGrounded lists the stages whose generated content benefits from live
// web results rather than the model's own knowledge.
var searchGrounded = map[catalog.Stage]bool{
	catalog.StagePESTELAnalysis:           true,
	catalog.StageTAMAnalysis:              true,
	catalog.StageSAMAnalysis:              true,
	catalog.StageSOMAnalysis:              true,
	catalog.StageCompetitorIdentification: true,
	catalog.StageCompetitorAnalysis:       true,
}

// GenerateForStage produces the content of an auto-generated stage.
func (c *Client) GenerateForStage(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale) (journey.Generated, error) {
	cfg := &genai.GenerateContentConfig{}
	if searchGrounded[stage] {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(stagePrompt(stage, data, locale)), cfg)
	if err != nil {
		return journey.Generated{}, fmt.Errorf("failed to generate %s: %w", stage, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return journey.Generated{}, fmt.Errorf("empty response for %s", stage)
	}

	c.log.Debug("stage content generated",
		zap.String("stage", string(stage)), zap.Int("chars", len(text)))
	return journey.Generated{Text: text, Sources: groundingSources(resp)}, nil
}

// GenerateSectionSummary produces the narrative summary of a finished section.
func (c *Client) GenerateSectionSummary(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(summaryPrompt(stage, data, locale)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate summary for %s: %w", stage, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty summary for %s", stage)
	}
	return text, nil
}

// GenerateSuggestion drafts an answer to the current stage's question.
func (c *Client) GenerateSuggestion(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale, userHint string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(suggestionPrompt(stage, data, locale, userHint)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate suggestion for %s: %w", stage, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty suggestion for %s", stage)
	}
	return text, nil
}

// RefineText rewrites existing text according to a free-text instruction.
func (c *Client) RefineText(ctx context.Context, original, instruction string, data plan.Data, locale plan.Locale) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(refinePrompt(original, instruction, data, locale)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to refine text: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty refinement result")
	}
	return text, nil
}

// groundingSources extracts web grounding references from a response.
func groundingSources(resp *genai.GenerateContentResponse) []plan.Source {
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var sources []plan.Source
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		sources = append(sources, plan.Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
	}
	return sources
}
