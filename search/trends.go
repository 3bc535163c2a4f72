package search

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	trendResultsPerCategory = 5
	trendingProductsPerCat  = 10
	keywordsPerResult       = 20
)

// TrendingProduct is one keyword with its mention count across trend search
// results.
type TrendingProduct struct {
	Name     string `json:"name"`
	Mentions int    `json:"mentions"`
}

// CategoryTrends holds the trending keywords for one category.
type CategoryTrends struct {
	Category         string            `json:"category"`
	TrendingProducts []TrendingProduct `json:"trending_products"`
	LastUpdated      time.Time         `json:"last_updated"`
	Sources          []string          `json:"sources"`
}

// CompetitionAnalysis summarizes the competing listings found for a product.
type CompetitionAnalysis struct {
	Product          string    `json:"product"`
	Category         string    `json:"category"`
	CompetitorCount  int       `json:"competitor_count"`
	Competitors      []Result  `json:"competitors"`
	MarketSaturation string    `json:"market_saturation"`
	AnalysisDate     time.Time `json:"analysis_date"`
}

// MarketTrends searches for what is trending per category and counts keyword
// mentions across the results. Shares the degraded-empty failure mode with
// Search: a disabled or failing client yields categories with no trending
// products, never an error.
func (c *Client) MarketTrends(ctx context.Context, categories []string, region string) map[string]CategoryTrends {
	trends := make(map[string]CategoryTrends, len(categories))
	for _, category := range categories {
		query := fmt.Sprintf("trending %s %s %d", category, region, time.Now().Year())
		results := c.Search(ctx, query, trendResultsPerCategory)

		var keywords []string
		sources := make([]string, 0, len(results))
		for _, result := range results {
			keywords = append(keywords, extractKeywords(result.Snippet+" "+result.Title)...)
			sources = append(sources, result.Link)
		}

		trends[category] = CategoryTrends{
			Category:         category,
			TrendingProducts: rankKeywords(keywords, trendingProductsPerCat),
			LastUpdated:      time.Now(),
			Sources:          sources,
		}
	}

	log.Debug().
		Int("categories", len(categories)).
		Str("region", region).
		Msg("market trend search")
	return trends
}

// AnalyzeCompetition searches best-seller listings for the product and grades
// market saturation by how many competitors come back.
func (c *Client) AnalyzeCompetition(ctx context.Context, productName, category string) CompetitionAnalysis {
	query := fmt.Sprintf("%s %s terlaris best seller", productName, category)
	results := c.Search(ctx, query, maxResults)

	saturation := "low"
	switch {
	case len(results) >= 8:
		saturation = "high"
	case len(results) >= 4:
		saturation = "medium"
	}

	return CompetitionAnalysis{
		Product:          productName,
		Category:         category,
		CompetitorCount:  len(results),
		Competitors:      results,
		MarketSaturation: saturation,
		AnalysisDate:     time.Now(),
	}
}

var keywordPattern = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)

// Function words in both Indonesian and English; never trending products.
var keywordStopWords = map[string]struct{}{
	"dan": {}, "atau": {}, "yang": {}, "untuk": {}, "dari": {}, "di": {},
	"ke": {}, "dengan": {}, "adalah": {}, "ini": {}, "itu": {}, "pada": {},
	"dalam": {}, "akan": {}, "dapat": {},
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {},
}

// extractKeywords pulls candidate product keywords from one result text.
// Words of four letters and up, stop words removed, capped per result.
func extractKeywords(text string) []string {
	words := keywordPattern.FindAllString(strings.ToLower(text), -1)
	var keywords []string
	for _, w := range words {
		if _, stop := keywordStopWords[w]; stop || len(w) <= 3 {
			continue
		}
		keywords = append(keywords, w)
		if len(keywords) == keywordsPerResult {
			break
		}
	}
	return keywords
}

// rankKeywords counts mentions and returns the top n, most mentioned first,
// first seen winning ties.
func rankKeywords(keywords []string, n int) []TrendingProduct {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, k := range keywords {
		if _, ok := counts[k]; !ok {
			firstSeen[k] = i
		}
		counts[k]++
	}

	ranked := make([]TrendingProduct, 0, len(counts))
	for k, v := range counts {
		ranked = append(ranked, TrendingProduct{Name: k, Mentions: v})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Mentions != ranked[j].Mentions {
			return ranked[i].Mentions > ranked[j].Mentions
		}
		return firstSeen[ranked[i].Name] < firstSeen[ranked[j].Name]
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
