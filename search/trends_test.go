package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeywords(t *testing.T) {
	keywords := extractKeywords("Sepatu lari dan jaket untuk the best outdoor gear")

	// Stop words and short words are gone, the rest lowercased in order.
	assert.Equal(t, []string{"sepatu", "lari", "jaket", "best", "outdoor", "gear"}, keywords)
}

func TestExtractKeywordsStopWordsAndLength(t *testing.T) {
	keywords := extractKeywords("dan atau yang di ke ini ABC ab sepatu")

	assert.Equal(t, []string{"sepatu"}, keywords)
}

func TestExtractKeywordsCap(t *testing.T) {
	var text string
	for i := 0; i < 30; i++ {
		text += "word" + string(rune('a'+i)) + " "
	}

	assert.Len(t, extractKeywords(text), keywordsPerResult)
}

func TestRankKeywords(t *testing.T) {
	ranked := rankKeywords([]string{"jaket", "sepatu", "sepatu", "tas", "jaket", "sepatu"}, 10)

	require.Len(t, ranked, 3)
	assert.Equal(t, TrendingProduct{Name: "sepatu", Mentions: 3}, ranked[0])
	assert.Equal(t, TrendingProduct{Name: "jaket", Mentions: 2}, ranked[1])
	assert.Equal(t, TrendingProduct{Name: "tas", Mentions: 1}, ranked[2])
}

func TestRankKeywordsTieBreakAndCap(t *testing.T) {
	ranked := rankKeywords([]string{"beta", "alpha", "gamma"}, 2)

	// Equal mention counts keep first-seen order, capped at n.
	require.Len(t, ranked, 2)
	assert.Equal(t, "beta", ranked[0].Name)
	assert.Equal(t, "alpha", ranked[1].Name)
}

func TestMarketTrends(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(searchResponse{Items: []Result{
			{Title: "Sepatu sneakers viral", Link: "https://a.example", Snippet: "sneakers sneakers jaket"},
			{Title: "Jaket hoodie murah", Link: "https://b.example", Snippet: "hoodie jaket"},
		}})
	}))
	defer srv.Close()

	c := NewClient(ClientOpts{BaseURL: srv.URL, APIKey: "k", EngineID: "e"})
	trends := c.MarketTrends(context.Background(), []string{"fashion"}, "Indonesia")

	require.Contains(t, trends, "fashion")
	ct := trends["fashion"]
	assert.Equal(t, "fashion", ct.Category)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, ct.Sources)
	assert.WithinDuration(t, time.Now(), ct.LastUpdated, time.Minute)

	require.NotEmpty(t, ct.TrendingProducts)
	assert.Equal(t, "sneakers", ct.TrendingProducts[0].Name)
	assert.Equal(t, 3, ct.TrendingProducts[0].Mentions)

	require.Len(t, queries, 1)
	assert.Contains(t, queries[0], "trending fashion Indonesia "+strconv.Itoa(time.Now().Year()))
}

func TestMarketTrendsDisabledClient(t *testing.T) {
	c := NewClient(ClientOpts{})

	trends := c.MarketTrends(context.Background(), []string{"fashion", "elektronik"}, "Indonesia")

	require.Len(t, trends, 2)
	assert.Empty(t, trends["fashion"].TrendingProducts)
	assert.Empty(t, trends["elektronik"].TrendingProducts)
}

func TestAnalyzeCompetition(t *testing.T) {
	tests := []struct {
		name       string
		results    int
		saturation string
	}{
		{"low", 2, "low"},
		{"medium", 5, "medium"},
		{"high", 9, "high"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				items := make([]Result, tt.results)
				for i := range items {
					items[i] = Result{Title: "Listing " + strconv.Itoa(i), Link: "https://x.example"}
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(searchResponse{Items: items})
			}))
			defer srv.Close()

			c := NewClient(ClientOpts{BaseURL: srv.URL, APIKey: "k", EngineID: "e"})
			analysis := c.AnalyzeCompetition(context.Background(), "Sepatu Lari", "sports")

			assert.Equal(t, "Sepatu Lari", analysis.Product)
			assert.Equal(t, "sports", analysis.Category)
			assert.Equal(t, tt.results, analysis.CompetitorCount)
			assert.Len(t, analysis.Competitors, tt.results)
			assert.Equal(t, tt.saturation, analysis.MarketSaturation)
		})
	}
}
