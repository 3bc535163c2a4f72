package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Model identifiers. The flash model handles vision and the heavier
// reasoning stages; the lite model is used for cheap classification calls.
const (
	FlashModel = "gemini-3-flash-preview"
	LiteModel  = "gemini-2.5-flash-lite"
)

// Gemini pricing (per million tokens)
const (
	flashInputPricePerMillion  = 0.50
	flashOutputPricePerMillion = 3.00
	liteInputPricePerMillion   = 0.075
	liteOutputPricePerMillion  = 0.30
)

// Gemini is a Backend implementation on the Gemini API.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a Gemini backend with the given API key.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

// Generate implements Backend. System messages become the system
// instruction; user messages and the optional image become content parts.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}

	model := req.Model
	if model == "" {
		model = FlashModel
	}

	config := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		temp := req.Temperature
		config.Temperature = &temp
	}
	if req.JSONMode {
		config.ResponseMIMEType = "application/json"
	}

	var systemParts []string
	var userParts []*genai.Part
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			systemParts = append(systemParts, msg.Text)
		default:
			userParts = append(userParts, genai.NewPartFromText(msg.Text))
		}
	}
	if len(systemParts) > 0 {
		config.SystemInstruction = genai.NewContentFromParts(
			[]*genai.Part{genai.NewPartFromText(strings.Join(systemParts, "\n\n"))},
			genai.RoleUser,
		)
	}
	if len(req.Image) > 0 {
		userParts = append(userParts, &genai.Part{
			InlineData: &genai.Blob{Data: req.Image, MIMEType: "image/jpeg"},
		})
	}
	if len(userParts) == 0 {
		return "", fmt.Errorf("no user content provided")
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(userParts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini")
	}

	// Calculate usage and cost
	usage := Usage{}
	if result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
		usage.CostUSD = calculateCost(model, usage.InputTokens, usage.OutputTokens)
	}

	log.Info().
		Str("model", model).
		Bool("jsonMode", req.JSONMode).
		Bool("hasImage", len(req.Image) > 0).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("llm call")

	return result.Text(), nil
}

func calculateCost(model string, inputTokens, outputTokens int64) float64 {
	inputPrice, outputPrice := flashInputPricePerMillion, flashOutputPricePerMillion
	if model == LiteModel {
		inputPrice, outputPrice = liteInputPricePerMillion, liteOutputPricePerMillion
	}
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}
