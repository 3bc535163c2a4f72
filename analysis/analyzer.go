package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prasetyo/lapak-ai/llm"
	"github.com/prasetyo/lapak-ai/marketplace"
	"github.com/prasetyo/lapak-ai/search"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Searcher is the market grounding dependency. *search.Client satisfies it;
// tests use fakes. Grounding calls never return errors: degraded search is a
// normal condition, not a failure.
type Searcher interface {
	SearchPrices(ctx context.Context, productName, category string) search.PriceStats
	SearchInfo(ctx context.Context, productName, extraContext string) search.ProductInfo
}

type AnalyzerOpts struct {
	LLMTimeout    time.Duration
	SearchTimeout time.Duration
}

// Analyzer is the single entry point for product analysis. Construct one at
// process start with explicit dependencies and share it across requests;
// it holds no per-request state.
type Analyzer struct {
	backend       llm.Backend
	searcher      Searcher
	llmTimeout    time.Duration
	searchTimeout time.Duration
}

// NewAnalyzer creates an analyzer. searcher may be nil to run without
// market grounding.
func NewAnalyzer(backend llm.Backend, searcher Searcher, opts AnalyzerOpts) *Analyzer {
	if opts.LLMTimeout == 0 {
		opts.LLMTimeout = 90 * time.Second
	}
	if opts.SearchTimeout == 0 {
		opts.SearchTimeout = 10 * time.Second
	}
	return &Analyzer{
		backend:       backend,
		searcher:      searcher,
		llmTimeout:    opts.LLMTimeout,
		searchTimeout: opts.SearchTimeout,
	}
}

// Analyze runs the full reasoning chain for one product and extracts a
// marketplace-ready listing. Returns a *ChainError when a stage fails
// against the backend; grounding failures only degrade the result.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*Result, error) {
	grounding := a.collectGrounding(ctx, in)

	outputs, err := a.runChain(ctx, in, grounding)
	if err != nil {
		return nil, err
	}

	result := Extract(outputs[len(outputs)-1].Text, in.Description)

	log.Info().
		Str("category", string(result.Category)).
		Str("title", result.Title).
		Int("recommendedPrice", result.PriceSuggestion.Recommended).
		Bool("grounded", grounding.Prices.Found).
		Msg("product analysis completed")

	return result, nil
}

// collectGrounding gathers market price statistics and descriptive snippets
// before the chain starts. The two searches share no state and run
// concurrently; either may come back empty.
func (a *Analyzer) collectGrounding(ctx context.Context, in Input) Grounding {
	if a.searcher == nil {
		return Grounding{}
	}

	query := in.Description
	if query == "" {
		query = "produk"
	}

	searchCtx, cancel := context.WithTimeout(ctx, a.searchTimeout)
	defer cancel()

	var g Grounding
	group := new(errgroup.Group)
	group.Go(func() error {
		g.Prices = a.searcher.SearchPrices(searchCtx, query, "")
		return nil
	})
	if in.Description != "" {
		group.Go(func() error {
			info := a.searcher.SearchInfo(searchCtx, in.Description, "spesifikasi review")
			g.Snippets = info.Descriptions
			return nil
		})
	}
	_ = group.Wait()

	return g
}

const consistencyPrompt = `Validasi apakah gambar produk SESUAI dengan deskripsi user.

Deskripsi User: "%s"

ATURAN VALIDASI:
1. Lihat gambar dengan teliti
2. Identifikasi jenis produk di gambar (contoh: motor, sepatu, laptop, dll)
3. Ekstrak kata kunci produk dari deskripsi user
4. Bandingkan: apakah produk di gambar SAMA dengan yang disebutkan user?

Jawab HANYA dengan: "SESUAI" atau "TIDAK SESUAI"`

// ValidateConsistency checks that the uploaded image shows the product the
// description names, returning ErrInconsistentInput on mismatch.
//
// Analyze does not call this: the strict check rejected too many legitimate
// uploads, so the chain is left to reconcile image and description on its
// own. Kept as a callable path until the product decision is revisited.
func (a *Analyzer) ValidateConsistency(ctx context.Context, in Input) error {
	if in.Description == "" || len(in.Image) == 0 {
		return nil
	}

	stageCtx, cancel := context.WithTimeout(ctx, a.llmTimeout)
	defer cancel()

	text, err := a.backend.Generate(stageCtx, llm.Request{
		Model:       llm.FlashModel,
		Temperature: 0.1,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Text: "You are Product Consistency Validator. Kamu adalah validator yang bertugas memastikan gambar produk sesuai dengan deskripsi yang diberikan user. Kamu harus ketat dalam menilai konsistensi."},
			{Role: llm.RoleUser, Text: fmt.Sprintf(consistencyPrompt, in.Description)},
		},
		Image: in.Image,
	})
	if err != nil {
		return &ChainError{Stage: "consistency", Err: err}
	}

	upper := strings.ToUpper(strings.TrimSpace(text))
	if strings.Contains(upper, "TIDAK SESUAI") || !strings.Contains(upper, "SESUAI") {
		return ErrInconsistentInput
	}
	return nil
}

const predictCategoryPrompt = `Predict the most accurate category for this product on %s:

Product Name: %s
Description: %s

Return JSON:
{
  "category_id": <id>,
  "category_name": "<name>",
  "confidence": <0.0-1.0>,
  "alternatives": [
    {"category_id": <id>, "category_name": "<name>", "confidence": <score>}
  ]
}`

// CategoryAlternative is a lower-confidence candidate category.
type CategoryAlternative struct {
	CategoryID   int     `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Confidence   float64 `json:"confidence"`
}

// CategoryPrediction is the platform category suggested for a product.
type CategoryPrediction struct {
	CategoryID   int                   `json:"category_id"`
	CategoryName string                `json:"category_name"`
	Confidence   float64               `json:"confidence"`
	Alternatives []CategoryAlternative `json:"alternatives"`
}

// PredictCategory asks the backend for a platform category in structured
// JSON mode, without running the full chain. The record is produced by the
// backend in machine-readable form, so a malformed response is a hard
// failure wrapping ErrMalformedPrediction rather than a fallback case.
func (a *Analyzer) PredictCategory(ctx context.Context, name, description string, platform marketplace.Platform) (*CategoryPrediction, error) {
	if description == "" {
		description = "N/A"
	}

	callCtx, cancel := context.WithTimeout(ctx, a.llmTimeout)
	defer cancel()

	text, err := a.backend.Generate(callCtx, llm.Request{
		Model:       llm.LiteModel,
		Temperature: 0.2,
		JSONMode:    true,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Text: "You are a product categorization expert."},
			{Role: llm.RoleUser, Text: fmt.Sprintf(predictCategoryPrompt, platform, name, description)},
		},
	})
	if err != nil {
		return nil, &ChainError{Stage: "category_prediction", Err: err}
	}

	payload := llm.ExtractJSONObject(llm.StripFences(text))
	if payload == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrMalformedPrediction)
	}

	var prediction CategoryPrediction
	if err := json.Unmarshal([]byte(payload), &prediction); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPrediction, err)
	}
	if prediction.CategoryName == "" || prediction.Confidence < 0 || prediction.Confidence > 1 {
		return nil, fmt.Errorf("%w: incomplete record", ErrMalformedPrediction)
	}

	log.Info().
		Str("platform", string(platform)).
		Str("category", prediction.CategoryName).
		Float64("confidence", prediction.Confidence).
		Msg("category prediction")

	return &prediction, nil
}
