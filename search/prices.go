package search

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Sanity bounds for extracted prices in rupiah. Anything outside is a page
// number, a year, a percentage or similar noise.
const (
	minSanePrice = 1_000
	maxSanePrice = 1_000_000_000
)

// Ordered price patterns: currency-prefixed forms first, bare separated
// digit groups last.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`Rp\s*([\d.,]+)`),
	regexp.MustCompile(`IDR\s*([\d.,]+)`),
	regexp.MustCompile(`(\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{2})?)`),
}

// PriceSample is one accepted price mention with its provenance.
type PriceSample struct {
	Price  int    `json:"price"`
	Source string `json:"source"`
	Title  string `json:"title"`
	Link   string `json:"link"`
}

// PriceStats aggregates accepted price samples for one query.
type PriceStats struct {
	Found      bool          `json:"found"`
	Min        int           `json:"min_price"`
	Max        int           `json:"max_price"`
	Average    int           `json:"avg_price"`
	Median     int           `json:"median_price"`
	Count      int           `json:"price_count"`
	Confidence float64       `json:"confidence"`
	Sources    []PriceSample `json:"sources,omitempty"`
}

// ProductInfo holds descriptive snippets for prompt grounding.
type ProductInfo struct {
	ProductName  string   `json:"product_name"`
	Descriptions []string `json:"descriptions"`
	Sources      []Result `json:"sources"`
}

// SearchPrices searches marketplaces for the product and aggregates the
// prices mentioned in result snippets and titles. Returns Found=false when
// no price passes the sanity bounds.
func (c *Client) SearchPrices(ctx context.Context, productName, category string) PriceStats {
	query := productName + " harga"
	if category != "" {
		query += " " + category
	}
	query += " site:tokopedia.com OR site:shopee.co.id OR site:bukalapak.com OR site:lazada.co.id"

	results := c.Search(ctx, query, maxResults)

	var prices []int
	var sources []PriceSample
	for _, result := range results {
		text := result.Snippet + " " + result.Title
		for _, price := range extractPrices(text) {
			prices = append(prices, price)
			sources = append(sources, PriceSample{
				Price:  price,
				Source: result.DisplayLink,
				Title:  result.Title,
				Link:   result.Link,
			})
		}
	}

	stats := aggregatePrices(prices, sources)
	log.Debug().
		Str("query", productName).
		Int("count", stats.Count).
		Bool("found", stats.Found).
		Msg("market price search")
	return stats
}

// SearchInfo searches for descriptive product information (specs, reviews)
// to ground the vision stage.
func (c *Client) SearchInfo(ctx context.Context, productName, extraContext string) ProductInfo {
	query := productName
	if extraContext != "" {
		query += " " + extraContext
	}
	query += " spesifikasi review"

	results := c.Search(ctx, query, 5)

	info := ProductInfo{ProductName: productName}
	for _, result := range results {
		info.Descriptions = append(info.Descriptions, result.Snippet)
		info.Sources = append(info.Sources, result)
	}
	return info
}

// extractPrices runs every pattern over the text and keeps all matches that
// pass the sanity bounds. Duplicate mentions are intentionally kept: a price
// repeated across patterns or listings weights the aggregate toward it.
func extractPrices(text string) []int {
	var prices []int
	for _, pattern := range pricePatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			raw := strings.NewReplacer(".", "", ",", "").Replace(match[1])
			price, err := strconv.Atoi(raw)
			if err != nil {
				continue
			}
			if price >= minSanePrice && price <= maxSanePrice {
				prices = append(prices, price)
			}
		}
	}
	return prices
}

func aggregatePrices(prices []int, sources []PriceSample) PriceStats {
	if len(prices) == 0 {
		return PriceStats{Found: false}
	}

	sort.Ints(prices)
	sum := 0
	for _, p := range prices {
		sum += p
	}

	confidence := float64(len(prices)) / 10
	if confidence > 1.0 {
		confidence = 1.0
	}

	if len(sources) > 5 {
		sources = sources[:5]
	}

	return PriceStats{
		Found:   true,
		Min:     prices[0],
		Max:     prices[len(prices)-1],
		Average: sum / len(prices),
		// Upper-middle element for even-length lists. Not the textbook
		// median; downstream price recommendations depend on this exact
		// tie-break.
		Median:     prices[len(prices)/2],
		Count:      len(prices),
		Confidence: confidence,
		Sources:    sources,
	}
}
