package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeTrendsParsesModelJSON(t *testing.T) {
	fb := newFakeBackend("```json\n" + `{
		"category": "fashion",
		"region": "Indonesia",
		"analysis_date": "2026-08-27T00:00:00Z",
		"season": "Mid-Year / Ramadan Period",
		"trends": [
			{
				"product_name": "Jaket Waterproof Oversize",
				"viral_reason": "TikTok outdoor content wave",
				"growth_potential": "170%",
				"price_range": "Rp 150,000 - Rp 350,000",
				"target_audience": "Young adults 18-30"
			}
		]
	}` + "\n```")
	a := NewAnalyzer(fb, nil, AnalyzerOpts{})

	report, err := a.AnalyzeTrends(context.Background(), "fashion", "Indonesia")
	require.NoError(t, err)

	assert.Equal(t, "fashion", report.Category)
	assert.Empty(t, report.RawAnalysis)
	require.Len(t, report.Trends, 1)
	assert.Equal(t, "Jaket Waterproof Oversize", report.Trends[0].ProductName)
	assert.Equal(t, "170%", report.Trends[0].GrowthPotential)

	require.Len(t, fb.requests, 1)
	assert.Contains(t, fb.requests[0].Messages[0].Text, "Senior Market Analyst")
	assert.Contains(t, fb.userPrompt(0), `category: "fashion" in Indonesia`)
	assert.Contains(t, fb.userPrompt(0), "Predict 3 specific micro-trends")
}

func TestAnalyzeTrendsFallbackOnUnparseableOutput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"prose", "trend pasar sedang naik untuk kategori ini"},
		{"json without trends", `{"category": "fashion", "trends": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(newFakeBackend(tt.raw), nil, AnalyzerOpts{})

			report, err := a.AnalyzeTrends(context.Background(), "fashion", "")
			require.NoError(t, err)

			// Region defaults and the raw text is preserved for inspection.
			assert.Equal(t, "fashion", report.Category)
			assert.Equal(t, "Indonesia", report.Region)
			assert.Equal(t, tt.raw, report.RawAnalysis)
			require.Len(t, report.Trends, 3)
			assert.Equal(t, "Trending fashion Item 1", report.Trends[0].ProductName)
			assert.Equal(t, "150%", report.Trends[0].GrowthPotential)
			assert.Equal(t, "120%", report.Trends[1].GrowthPotential)
			assert.Equal(t, "180%", report.Trends[2].GrowthPotential)
		})
	}
}

func TestAnalyzeTrendsBackendError(t *testing.T) {
	fb := newFakeBackend()
	fb.failAt = 0
	fb.failErr = assert.AnError
	a := NewAnalyzer(fb, nil, AnalyzerOpts{})

	_, err := a.AnalyzeTrends(context.Background(), "fashion", "Indonesia")

	var chainErr *ChainError
	require.ErrorAs(t, err, &chainErr)
	assert.Equal(t, "trend_analysis", chainErr.Stage)
}

func TestSeasonFor(t *testing.T) {
	tests := []struct {
		month  time.Month
		season string
	}{
		{time.January, "Rainy Season / Holiday Season"},
		{time.April, "Dry Season / Back to School"},
		{time.July, "Mid-Year / Ramadan Period"},
		{time.October, "Rainy Season / Year-End Preparation"},
	}
	for _, tt := range tests {
		season, seasonContext := seasonFor(tt.month)
		assert.Equal(t, tt.season, season)
		assert.NotEmpty(t, seasonContext)
	}
}
