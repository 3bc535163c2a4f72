package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lithammer/dedent"
	"github.com/prasetyo/lapak-ai/llm"
	"github.com/rs/zerolog/log"
)

// TrendPrediction is one predicted viral micro-trend.
type TrendPrediction struct {
	ProductName     string `json:"product_name"`
	ViralReason     string `json:"viral_reason"`
	GrowthPotential string `json:"growth_potential"`
	PriceRange      string `json:"price_range"`
	TargetAudience  string `json:"target_audience"`
}

// TrendReport is the forecast for one category and region. RawAnalysis is
// only set when the model's output could not be parsed and the fixed
// fallback predictions were substituted.
type TrendReport struct {
	Category     string            `json:"category"`
	Region       string            `json:"region"`
	AnalysisDate string            `json:"analysis_date"`
	Season       string            `json:"season"`
	Trends       []TrendPrediction `json:"trends"`
	RawAnalysis  string            `json:"raw_analysis,omitempty"`
}

const trendAnalystPersona = "You are Senior Market Analyst for Indonesia (SE Asia). " +
	"You are an expert market analyst specializing in Indonesian and Southeast Asian markets. " +
	"You have deep knowledge of TikTok trends, seasonal patterns, and consumer behavior. " +
	"You can predict what products will go viral based on current date, season, and social dynamics.\n" +
	"Your goal: Predict viral micro-trends based on seasonality, social media, and market dynamics"

func buildTrendPrompt(category, region string, now time.Time, season, seasonContext string) string {
	return fmt.Sprintf(dedent.Dedent(`
		Analyze market trends for the category: "%s" in %s.

		CURRENT CONTEXT:
		- Date: %s %d
		- Season: %s
		- Context: %s
		- Region: %s (Southeast Asia)

		YOUR TASK:
		Predict 3 specific micro-trends that are likely to go viral based on:
		1. Current season and weather patterns
		2. TikTok and social media trends
		3. Cultural events and holidays
		4. Consumer behavior patterns

		For each trend, provide:
		- product_name: Specific product name (be creative and realistic)
		- viral_reason: Why this product will trend (mention TikTok, season, or cultural factors)
		- growth_potential: Percentage estimate (e.g., "150%%" or "200%%")
		- price_range: Suggested price range in IDR
		- target_audience: Who will buy this

		IMPORTANT: Return ONLY valid JSON in this exact format:
		{
		  "category": "%s",
		  "region": "%s",
		  "analysis_date": "%s",
		  "season": "%s",
		  "trends": [
		    {
		      "product_name": "specific product name",
		      "viral_reason": "detailed reason why it will trend",
		      "growth_potential": "percentage",
		      "price_range": "Rp X - Rp Y",
		      "target_audience": "demographic description"
		    }
		  ]
		}

		Be specific, creative, and realistic. Use actual TikTok trends and seasonal patterns.`),
		category, region, now.Month().String(), now.Year(), season, seasonContext,
		region, category, region, now.Format(time.RFC3339), season)
}

// AnalyzeTrends predicts viral micro-trends for a category from the model's
// market knowledge, anchored on the current Indonesian season. A backend
// error is a retryable ChainError; unparseable output degrades to fixed
// fallback predictions rather than failing.
func (a *Analyzer) AnalyzeTrends(ctx context.Context, category, region string) (*TrendReport, error) {
	if region == "" {
		region = "Indonesia"
	}
	now := time.Now()
	season, seasonContext := seasonFor(now.Month())

	callCtx, cancel := context.WithTimeout(ctx, a.llmTimeout)
	defer cancel()

	text, err := a.backend.Generate(callCtx, llm.Request{
		Model:       llm.FlashModel,
		Temperature: chainTemperature,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Text: trendAnalystPersona},
			{Role: llm.RoleUser, Text: buildTrendPrompt(category, region, now, season, seasonContext)},
		},
	})
	if err != nil {
		return nil, &ChainError{Stage: "trend_analysis", Err: err}
	}

	report := parseTrendReport(text, category, region, now)

	log.Info().
		Str("category", category).
		Str("region", region).
		Int("trends", len(report.Trends)).
		Bool("fallback", report.RawAnalysis != "").
		Msg("trend analysis completed")
	return report, nil
}

// seasonFor maps a month onto the Indonesian retail calendar.
func seasonFor(m time.Month) (season, context string) {
	switch m {
	case time.December, time.January, time.February:
		return "Rainy Season / Holiday Season",
			"End of year holidays, Christmas, New Year celebrations"
	case time.March, time.April, time.May:
		return "Dry Season / Back to School",
			"School preparation, outdoor activities"
	case time.June, time.July, time.August:
		return "Mid-Year / Ramadan Period",
			"Ramadan, Eid celebrations, religious activities"
	default:
		return "Rainy Season / Year-End Preparation",
			"Preparation for holidays, rainy weather needs"
	}
}

// parseTrendReport accepts the model's JSON when it carries at least one
// trend; anything else gets the fixed fallback predictions with the raw text
// preserved for inspection.
func parseTrendReport(raw, category, region string, now time.Time) *TrendReport {
	if payload := llm.ExtractJSONObject(llm.StripFences(raw)); payload != "" {
		var report TrendReport
		if err := json.Unmarshal([]byte(payload), &report); err == nil && len(report.Trends) > 0 {
			return &report
		}
	}

	return &TrendReport{
		Category:     category,
		Region:       region,
		AnalysisDate: now.Format(time.RFC3339),
		Season:       "Current Season",
		Trends: []TrendPrediction{
			{
				ProductName:     fmt.Sprintf("Trending %s Item 1", category),
				ViralReason:     "Popular on TikTok and social media",
				GrowthPotential: "150%",
				PriceRange:      "Rp 50,000 - Rp 200,000",
				TargetAudience:  "Young adults 18-35",
			},
			{
				ProductName:     fmt.Sprintf("Trending %s Item 2", category),
				ViralReason:     "Seasonal demand and weather patterns",
				GrowthPotential: "120%",
				PriceRange:      "Rp 100,000 - Rp 300,000",
				TargetAudience:  "General consumers",
			},
			{
				ProductName:     fmt.Sprintf("Trending %s Item 3", category),
				ViralReason:     "Cultural events and holidays",
				GrowthPotential: "180%",
				PriceRange:      "Rp 75,000 - Rp 250,000",
				TargetAudience:  "Families and gift buyers",
			},
		},
		RawAnalysis: raw,
	}
}
