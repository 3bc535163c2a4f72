package analysis

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
	"github.com/prasetyo/lapak-ai/llm"
	"github.com/prasetyo/lapak-ai/search"
)

// Input is one analysis request. Immutable once constructed; a fresh Input
// is built per request and discarded after producing one Result.
type Input struct {
	// Image is the product photo (JPEG). Optional: analysis can run from
	// the description alone.
	Image []byte

	// Description is the user's free-text description. Its explicit
	// details (brand, model, spec, year) take precedence over visual
	// inference.
	Description string

	// Specifications are optional key-value technical specs.
	Specifications map[string]string
}

// Grounding is search-derived context injected into stage prompts to reduce
// hallucination. Zero value means grounding is unavailable, which degrades
// the analysis but never fails it.
type Grounding struct {
	Prices   search.PriceStats
	Snippets []string
}

// StageOutput is the immutable text produced by one chain stage.
type StageOutput struct {
	Stage string
	Text  string
}

// stage is one step of the reasoning chain, modeled as data rather than a
// type hierarchy: a persona biasing generation style plus a prompt builder
// that threads predecessor outputs explicitly.
type stage struct {
	name      string
	role      string
	goal      string
	backstory string
	model     string
	withImage bool
	build     func(in Input, g Grounding, prior []StageOutput) string
}

// persona renders the system message for a stage.
func (s stage) persona() string {
	return fmt.Sprintf("You are %s. %s\nYour goal: %s", s.role, s.backstory, s.goal)
}

// chainStages returns the fixed linear chain:
// vision -> category -> pricing -> copywriting.
func chainStages() []stage {
	return []stage{
		{
			name: "vision",
			role: "Product Vision Specialist",
			goal: "Menganalisis gambar produk secara detail dan akurat",
			backstory: "Kamu adalah AI vision specialist yang ahli dalam mengidentifikasi " +
				"produk dari gambar. Kamu bisa mendeteksi brand, model, kondisi, " +
				"dan detail visual lainnya dengan presisi tinggi.",
			model:     llm.FlashModel,
			withImage: true,
			build:     buildVisionPrompt,
		},
		{
			name: "category",
			role: "Product Category Classifier",
			goal: "Menentukan kategori produk yang paling tepat",
			backstory: "Kamu adalah classifier expert yang bisa mengkategorikan produk " +
				"dengan akurat berdasarkan karakteristik visualnya. " +
				"Kategori yang tersedia: " + categoryList(),
			model: llm.LiteModel,
			build: buildCategoryPrompt,
		},
		{
			name: "pricing",
			role: "Market Price Analyst",
			goal: "Memberikan saran harga yang kompetitif berdasarkan market research",
			backstory: "Kamu adalah pricing analyst yang memahami harga pasar produk " +
				"di Indonesia. Kamu bisa memberikan range harga yang realistis " +
				"berdasarkan brand, kondisi, dan spesifikasi produk.",
			model: llm.FlashModel,
			build: buildPricingPrompt,
		},
		{
			name: "copywriting",
			role: "E-commerce Copywriter",
			goal: "Membuat deskripsi produk yang menarik dan persuasif",
			backstory: "Kamu adalah copywriter profesional untuk e-commerce Indonesia. " +
				"Kamu tahu cara menulis deskripsi yang singkat, jelas, dan menarik. " +
				"Kamu HARUS mempertahankan informasi dari user dan menambahkan " +
				"copywriting yang engaging tanpa bertele-tele.",
			model: llm.FlashModel,
			build: buildCopywritingPrompt,
		},
	}
}

// priorContext renders predecessor outputs for embedding in a prompt. Each
// stage receives the literal text of every stage before it.
func priorContext(prior []StageOutput) string {
	if len(prior) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nHASIL ANALISIS SEBELUMNYA:\n")
	for _, p := range prior {
		b.WriteString("\n[" + p.Stage + "]\n" + p.Text + "\n")
	}
	return b.String()
}

func buildVisionPrompt(in Input, g Grounding, _ []StageOutput) string {
	var userContext string
	if in.Description != "" {
		var searchContext string
		if len(g.Snippets) > 0 {
			snippets := g.Snippets
			if len(snippets) > 3 {
				snippets = snippets[:3]
			}
			searchContext = fmt.Sprintf(dedent.Dedent(`

				DATA DARI GOOGLE SEARCH:
				%s

				GUNAKAN informasi di atas untuk memperkaya analisis produk!`),
				strings.Join(snippets, "\n"))
		}

		userContext = fmt.Sprintf(dedent.Dedent(`

			DESKRIPSI DARI USER:
			%s%s

			INSTRUKSI: Gabungkan informasi visual dengan deskripsi user di atas.
			- Gunakan deskripsi user untuk detail spesifik (brand, model, spesifikasi, tahun)
			- Gunakan data dari Google Search untuk validasi dan informasi tambahan
			- Validasi dengan gambar jika tersedia
			- Jika deskripsi lengkap, GUNAKAN semua detail dari deskripsi`),
			in.Description, searchContext)
	}

	if len(in.Specifications) > 0 {
		var specs []string
		for k, v := range in.Specifications {
			specs = append(specs, k+": "+v)
		}
		userContext += "\n\nSpesifikasi dari user: " + strings.Join(specs, ", ")
	}

	return fmt.Sprintf(dedent.Dedent(`
		Analisis produk dari gambar.%s

		Output: Brand, model, kondisi, dan detail visual yang terlihat.`),
		userContext)
}

func buildCategoryPrompt(_ Input, _ Grounding, prior []StageOutput) string {
	return fmt.Sprintf(dedent.Dedent(`
		Tentukan kategori dari: %s

		Jawab dengan SATU kategori dari daftar di atas. Jangan membuat kategori baru.%s`),
		categoryList(), priorContext(prior))
}

func buildPricingPrompt(_ Input, g Grounding, prior []StageOutput) string {
	var marketContext string
	if g.Prices.Found {
		marketContext = fmt.Sprintf(dedent.Dedent(`

			REAL MARKET DATA (dari Google Search):
			- Harga Minimum di Pasar: Rp %d
			- Harga Maximum di Pasar: Rp %d
			- Harga Rata-rata: Rp %d
			- Harga Median: Rp %d
			- Jumlah Data: %d sumber
			- Confidence: %.1f%%

			GUNAKAN data pasar real ini sebagai acuan utama untuk saran harga!`),
			g.Prices.Min, g.Prices.Max, g.Prices.Average, g.Prices.Median,
			g.Prices.Count, g.Prices.Confidence*100)
	}

	return fmt.Sprintf(dedent.Dedent(`
		Berikan saran harga pasar Indonesia berdasarkan data real.%s

		Format:
		Min Price: Rp X.XXX.XXX
		Max Price: Rp X.XXX.XXX
		Recommended: Rp X.XXX.XXX
		Reasoning: [singkat, sebutkan data pasar jika ada]%s`),
		marketContext, priorContext(prior))
}

func buildCopywritingPrompt(_ Input, _ Grounding, prior []StageOutput) string {
	return dedent.Dedent(`
		Buat konten penjualan menarik.

		Format:
		JUDUL: [max 100 char]
		DESKRIPSI: [2-3 paragraf]
		FITUR UTAMA:
		- [3-5 fitur]
		HASHTAG: #tag1 #tag2 #tag3`) + priorContext(prior)
}
