package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/prasetyo/lapak-ai/llm"
	"github.com/prasetyo/lapak-ai/marketplace"
	"github.com/rs/zerolog/log"
)

// Platform listing APIs cap titles tighter than the extractor's own bound.
const (
	shopeeTitleMax = 120
	tiktokTitleMax = 100

	defaultWarehouseCity = "Jakarta"
	defaultWeightKg      = 1.0

	// Shopee enrichment wants consistent output; TikTok gets more creative
	// room for the social-media tone.
	shopeeEnrichTemperature = 0.3
	tiktokEnrichTemperature = 0.5
)

// EnrichInput is the universal product record an enrichment starts from.
// Name is required; everything else degrades to defaults.
type EnrichInput struct {
	Name        string
	Description string
	Price       int
	Stock       int
	WeightKg    float64
	Condition   string // "new" or "used"
	Images      []string
	SKU         string

	WarehouseCity string
}

const shopeeEnrichSystem = `You are an expert e-commerce product listing specialist for Shopee Indonesia.
Your task is to transform simple product information into a complete, optimized Shopee listing.

CRITICAL RULES:
1. Predict the most accurate category_id based on product name/description
2. Fill ALL mandatory attributes with smart defaults if not provided
3. Enhance product title for SEO (max 120 chars)
4. Write compelling HTML description with proper formatting
5. Suggest relevant hashtags
6. Return ONLY valid JSON, no markdown or explanations

Common Shopee Categories (Indonesia):
- 100017: Sepatu Pria
- 100018: Sepatu Wanita
- 100630: Fashion Pria
- 100631: Fashion Wanita
- 100011: Elektronik
- 100012: Handphone & Aksesoris
- 100644: Makanan & Minuman
- 100645: Kecantikan
- 100646: Kesehatan

Common Attributes:
- Brand (attribute_id: 100001): "No Brand" if unknown
- Condition (attribute_id: 100002): "New" or "Used"
- Size (attribute_id: 100003): Based on product type
- Color (attribute_id: 100004): Based on images/description`

const tiktokEnrichSystem = `You are an expert e-commerce product listing specialist for TikTok Shop Indonesia.
Your task is to transform simple product information into a viral-worthy TikTok Shop listing.

CRITICAL RULES:
1. Predict the most accurate category_id for TikTok Shop
2. Write catchy, social-media friendly product title (max 100 chars)
3. Create engaging description with emojis and hashtags
4. Fill product attributes (brand, size, color, etc.)
5. Suggest trending hashtags for TikTok
6. Return ONLY valid JSON, no markdown

TikTok Shop Categories (Indonesia):
- 201001: Fashion Pria
- 201002: Fashion Wanita
- 201003: Elektronik
- 201004: Kecantikan & Perawatan
- 201005: Makanan & Minuman
- 201006: Olahraga & Outdoor
- 201007: Rumah Tangga

Style Guide:
- Use emojis strategically ✨🔥💯
- Write in conversational tone
- Highlight benefits, not just features
- Create urgency and FOMO`

func buildShopeeEnrichPrompt(in EnrichInput) string {
	warehouse := in.WarehouseCity
	if warehouse == "" {
		warehouse = defaultWarehouseCity
	}
	return fmt.Sprintf(dedent.Dedent(`
		Transform this product into a complete Shopee listing:

		PRODUCT INFORMATION:
		- Name: %s
		- Description: %s
		- Price: Rp %s
		- Stock: %d
		- Weight: %g kg
		- Condition: %s
		- Images: %d images available

		USER SETTINGS:
		- Warehouse City: %s

		REQUIRED OUTPUT (JSON):
		{
		  "category_id": <predicted_category_id>,
		  "category_name": "<category_name>",
		  "title": "<SEO-optimized title max 120 chars>",
		  "description_html": "<HTML formatted description with <p>, <ul>, <li> tags>",
		  "attributes": [
		    {"attribute_id": 100001, "attribute_name": "Brand", "value": "No Brand"},
		    {"attribute_id": 100002, "attribute_name": "Condition", "value": "New"}
		  ],
		  "hashtags": ["#tag1", "#tag2"],
		  "seo_keywords": ["keyword1", "keyword2"],
		  "reasoning": "<brief explanation of category choice>"
		}

		Analyze the product carefully and return the complete JSON.`),
		in.Name, orDefault(in.Description, "No description provided"),
		formatPrice(in.Price), in.Stock, effectiveWeight(in.WeightKg),
		orDefault(in.Condition, "new"), len(in.Images), warehouse)
}

func buildTikTokEnrichPrompt(in EnrichInput) string {
	return fmt.Sprintf(dedent.Dedent(`
		Transform this product into a viral TikTok Shop listing:

		PRODUCT INFORMATION:
		- Name: %s
		- Description: %s
		- Price: Rp %s
		- Stock: %d
		- Weight: %g kg
		- Condition: %s

		REQUIRED OUTPUT (JSON):
		{
		  "category_id": <predicted_category_id>,
		  "category_name": "<category_name>",
		  "title": "<catchy title with emojis max 100 chars>",
		  "description": "<engaging description with emojis and line breaks>",
		  "product_attributes": [
		    {"name": "Brand", "value": "No Brand"},
		    {"name": "Condition", "value": "New"}
		  ],
		  "hashtags": ["#viral", "#fyp", "#trending"],
		  "selling_points": ["point1", "point2", "point3"],
		  "reasoning": "<brief explanation>"
		}

		Make it engaging and viral-worthy!`),
		in.Name, orDefault(in.Description, "No description provided"),
		formatPrice(in.Price), in.Stock, effectiveWeight(in.WeightKg),
		orDefault(in.Condition, "new"))
}

type shopeeEnrichment struct {
	CategoryID      int                           `json:"category_id"`
	CategoryName    string                        `json:"category_name"`
	Title           string                        `json:"title"`
	DescriptionHTML string                        `json:"description_html"`
	Attributes      []marketplace.ShopeeAttribute `json:"attributes"`
	Hashtags        []string                      `json:"hashtags"`
	SEOKeywords     []string                      `json:"seo_keywords"`
	Reasoning       string                        `json:"reasoning"`
}

type tiktokEnrichment struct {
	CategoryID        int                           `json:"category_id"`
	CategoryName      string                        `json:"category_name"`
	Title             string                        `json:"title"`
	Description       string                        `json:"description"`
	ProductAttributes []marketplace.TikTokAttribute `json:"product_attributes"`
	Hashtags          []string                      `json:"hashtags"`
	SellingPoints     []string                      `json:"selling_points"`
	Reasoning         string                        `json:"reasoning"`
}

// EnrichForShopee turns the product record into a ready-to-publish Shopee
// payload. Like PredictCategory the backend answers in structured mode, so a
// malformed record is a hard failure wrapping ErrMalformedEnrichment.
func (a *Analyzer) EnrichForShopee(ctx context.Context, in EnrichInput) (*marketplace.ShopeePayload, error) {
	var out shopeeEnrichment
	err := a.generateEnrichment(ctx, "shopee_enrichment", shopeeEnrichSystem,
		buildShopeeEnrichPrompt(in), shopeeEnrichTemperature, &out)
	if err != nil {
		return nil, err
	}

	payload := &marketplace.ShopeePayload{
		ItemName:    truncateRunes(orDefault(out.Title, in.Name), shopeeTitleMax),
		Description: orDefault(out.DescriptionHTML, in.Description),
		CategoryID:  out.CategoryID,
		Price:       in.Price,
		Stock:       in.Stock,
		WeightKg:    effectiveWeight(in.WeightKg),
		Condition:   normalizeCondition(in.Condition),
		Images:      in.Images,
		Attributes:  out.Attributes,
		ItemSKU:     in.SKU,
		AIMetadata: marketplace.EnrichmentMetadata{
			CategoryName: out.CategoryName,
			Hashtags:     out.Hashtags,
			SEOKeywords:  out.SEOKeywords,
			Reasoning:    out.Reasoning,
		},
	}

	log.Info().
		Str("platform", string(marketplace.Shopee)).
		Str("category", out.CategoryName).
		Str("title", payload.ItemName).
		Msg("product enriched")
	return payload, nil
}

// EnrichForTikTok turns the product record into a ready-to-publish TikTok
// Shop payload.
func (a *Analyzer) EnrichForTikTok(ctx context.Context, in EnrichInput) (*marketplace.TikTokPayload, error) {
	var out tiktokEnrichment
	err := a.generateEnrichment(ctx, "tiktok_enrichment", tiktokEnrichSystem,
		buildTikTokEnrichPrompt(in), tiktokEnrichTemperature, &out)
	if err != nil {
		return nil, err
	}

	payload := &marketplace.TikTokPayload{
		ProductName:       truncateRunes(orDefault(out.Title, in.Name), tiktokTitleMax),
		Description:       orDefault(out.Description, in.Description),
		CategoryID:        out.CategoryID,
		Price:             marketplace.TikTokPrice{Currency: "IDR", Amount: in.Price},
		StockQuantity:     in.Stock,
		ProductAttributes: out.ProductAttributes,
		Images:            in.Images,
		WeightGrams:       int(effectiveWeight(in.WeightKg) * 1000),
		SellerSKU:         in.SKU,
		AIMetadata: marketplace.EnrichmentMetadata{
			CategoryName:  out.CategoryName,
			Hashtags:      out.Hashtags,
			SellingPoints: out.SellingPoints,
			Reasoning:     out.Reasoning,
		},
	}

	log.Info().
		Str("platform", string(marketplace.TikTokShop)).
		Str("category", out.CategoryName).
		Str("title", payload.ProductName).
		Msg("product enriched")
	return payload, nil
}

func (a *Analyzer) generateEnrichment(ctx context.Context, stage, system, prompt string, temperature float32, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, a.llmTimeout)
	defer cancel()

	text, err := a.backend.Generate(callCtx, llm.Request{
		Model:       llm.FlashModel,
		Temperature: temperature,
		JSONMode:    true,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Text: system},
			{Role: llm.RoleUser, Text: prompt},
		},
	})
	if err != nil {
		return &ChainError{Stage: stage, Err: err}
	}

	payload := llm.ExtractJSONObject(llm.StripFences(text))
	if payload == "" {
		return fmt.Errorf("%w: no JSON object in response", ErrMalformedEnrichment)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnrichment, err)
	}
	return nil
}

func normalizeCondition(condition string) string {
	if condition == "" || strings.EqualFold(condition, "new") {
		return "NEW"
	}
	return "USED"
}

func effectiveWeight(kg float64) float64 {
	if kg <= 0 {
		return defaultWeightKg
	}
	return kg
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// formatPrice renders rupiah with thousand separators, e.g. 450000 ->
// "450,000".
func formatPrice(price int) string {
	digits := strconv.Itoa(price)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
