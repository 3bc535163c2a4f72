package analysis

import (
	"context"
	"sync"
	"testing"

	"github.com/prasetyo/lapak-ai/llm"
	"github.com/prasetyo/lapak-ai/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records every request and replays scripted responses in call
// order.
type fakeBackend struct {
	mu        sync.Mutex
	requests  []llm.Request
	responses []string
	failAt    int
	failErr   error
}

func newFakeBackend(responses ...string) *fakeBackend {
	return &fakeBackend{responses: responses, failAt: -1}
}

func (f *fakeBackend) Generate(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := len(f.requests)
	f.requests = append(f.requests, req)
	if call == f.failAt {
		return "", f.failErr
	}
	if call < len(f.responses) {
		return f.responses[call], nil
	}
	return "ok", nil
}

func (f *fakeBackend) userPrompt(i int) string {
	return f.requests[i].Messages[1].Text
}

func TestRunChainStageOrder(t *testing.T) {
	fb := newFakeBackend("vision out", "category out", "pricing out", "copy out")
	a := NewAnalyzer(fb, nil, AnalyzerOpts{})

	outputs, err := a.runChain(context.Background(), Input{Description: "sepatu nike", Image: []byte{0xff}}, Grounding{})
	require.NoError(t, err)
	require.Len(t, outputs, 4)
	require.Len(t, fb.requests, 4)

	assert.Equal(t, "vision", outputs[0].Stage)
	assert.Equal(t, "category", outputs[1].Stage)
	assert.Equal(t, "pricing", outputs[2].Stage)
	assert.Equal(t, "copywriting", outputs[3].Stage)

	assert.Equal(t, llm.FlashModel, fb.requests[0].Model)
	assert.Equal(t, llm.LiteModel, fb.requests[1].Model)
	assert.Equal(t, llm.FlashModel, fb.requests[2].Model)
	assert.Equal(t, llm.FlashModel, fb.requests[3].Model)

	// Only the vision stage sees the image.
	assert.NotEmpty(t, fb.requests[0].Image)
	assert.Empty(t, fb.requests[1].Image)
	assert.Empty(t, fb.requests[2].Image)
	assert.Empty(t, fb.requests[3].Image)
}

func TestRunChainThreadsPredecessorOutputs(t *testing.T) {
	fb := newFakeBackend("vision out", "category out", "pricing out", "copy out")
	a := NewAnalyzer(fb, nil, AnalyzerOpts{})

	_, err := a.runChain(context.Background(), Input{Description: "kamera"}, Grounding{})
	require.NoError(t, err)

	assert.NotContains(t, fb.userPrompt(0), "HASIL ANALISIS SEBELUMNYA")

	assert.Contains(t, fb.userPrompt(1), "[vision]\nvision out")

	assert.Contains(t, fb.userPrompt(3), "[vision]\nvision out")
	assert.Contains(t, fb.userPrompt(3), "[category]\ncategory out")
	assert.Contains(t, fb.userPrompt(3), "[pricing]\npricing out")
}

func TestRunChainPersonas(t *testing.T) {
	fb := newFakeBackend()
	a := NewAnalyzer(fb, nil, AnalyzerOpts{})

	_, err := a.runChain(context.Background(), Input{Description: "laptop"}, Grounding{})
	require.NoError(t, err)

	assert.Contains(t, fb.requests[0].Messages[0].Text, "You are Product Vision Specialist")
	assert.Contains(t, fb.requests[1].Messages[0].Text, "You are Product Category Classifier")
	assert.Contains(t, fb.requests[1].Messages[0].Text, string(CategoryElectronics))
	assert.Contains(t, fb.requests[2].Messages[0].Text, "You are Market Price Analyst")
	assert.Contains(t, fb.requests[3].Messages[0].Text, "You are E-commerce Copywriter")

	for _, req := range fb.requests {
		assert.InDelta(t, chainTemperature, req.Temperature, 0.001)
	}
}

func TestRunChainAbortsOnStageFailure(t *testing.T) {
	fb := newFakeBackend("vision out", "category out")
	fb.failAt = 2
	fb.failErr = assert.AnError
	a := NewAnalyzer(fb, nil, AnalyzerOpts{})

	outputs, err := a.runChain(context.Background(), Input{Description: "tas"}, Grounding{})

	require.Error(t, err)
	var chainErr *ChainError
	require.ErrorAs(t, err, &chainErr)
	assert.Equal(t, "pricing", chainErr.Stage)
	assert.ErrorIs(t, chainErr.Err, assert.AnError)
	assert.Nil(t, outputs)
	assert.Len(t, fb.requests, 3)
}

func TestRunChainMarketDataInPricingPrompt(t *testing.T) {
	fb := newFakeBackend()
	a := NewAnalyzer(fb, nil, AnalyzerOpts{})

	g := Grounding{Prices: search.PriceStats{
		Found:      true,
		Min:        100_000,
		Max:        500_000,
		Average:    250_000,
		Median:     300_000,
		Count:      4,
		Confidence: 0.4,
	}}
	_, err := a.runChain(context.Background(), Input{Description: "sepatu"}, g)
	require.NoError(t, err)

	pricing := fb.userPrompt(2)
	assert.Contains(t, pricing, "REAL MARKET DATA")
	assert.Contains(t, pricing, "Harga Minimum di Pasar: Rp 100000")
	assert.Contains(t, pricing, "Harga Maximum di Pasar: Rp 500000")
	assert.Contains(t, pricing, "Harga Median: Rp 300000")
	assert.Contains(t, pricing, "Jumlah Data: 4 sumber")
}

func TestRunChainWithoutMarketData(t *testing.T) {
	fb := newFakeBackend()
	a := NewAnalyzer(fb, nil, AnalyzerOpts{})

	_, err := a.runChain(context.Background(), Input{Description: "sepatu"}, Grounding{})
	require.NoError(t, err)

	assert.NotContains(t, fb.userPrompt(2), "REAL MARKET DATA")
}

func TestVisionPromptEmbedsUserContext(t *testing.T) {
	fb := newFakeBackend()
	a := NewAnalyzer(fb, nil, AnalyzerOpts{})

	g := Grounding{Snippets: []string{"snippet satu", "snippet dua", "snippet tiga", "snippet empat"}}
	in := Input{
		Description:    "iPhone 13 Pro 256GB bekas mulus",
		Specifications: map[string]string{"warna": "sierra blue"},
	}
	_, err := a.runChain(context.Background(), in, g)
	require.NoError(t, err)

	vision := fb.userPrompt(0)
	assert.Contains(t, vision, "DESKRIPSI DARI USER")
	assert.Contains(t, vision, "iPhone 13 Pro 256GB bekas mulus")
	assert.Contains(t, vision, "DATA DARI GOOGLE SEARCH")
	assert.Contains(t, vision, "snippet tiga")
	assert.NotContains(t, vision, "snippet empat") // only the first three ground the prompt
	assert.Contains(t, vision, "Spesifikasi dari user: warna: sierra blue")
}

func TestVisionPromptWithoutDescription(t *testing.T) {
	fb := newFakeBackend()
	a := NewAnalyzer(fb, nil, AnalyzerOpts{})

	_, err := a.runChain(context.Background(), Input{Image: []byte{0xff}}, Grounding{})
	require.NoError(t, err)

	vision := fb.userPrompt(0)
	assert.Contains(t, vision, "Analisis produk dari gambar.")
	assert.NotContains(t, vision, "DESKRIPSI DARI USER")
}
