// Package server exposes the analysis facade over HTTP. Handlers are thin
// I/O wrappers: they validate input, call into the core, and map the closed
// set of error kinds to status codes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prasetyo/lapak-ai/analysis"
	"github.com/prasetyo/lapak-ai/marketplace"
	"github.com/prasetyo/lapak-ai/search"
	"github.com/prasetyo/lapak-ai/storage"
	"github.com/rs/zerolog/log"
)

const (
	maxImageBytes = 10 << 20 // 10 MB

	trendCacheTTL = 24 * time.Hour
)

// Categories the market trends endpoint tracks.
var defaultTrendCategories = []string{
	"Fashion Pria",
	"Fashion Wanita",
	"Elektronik",
	"Handphone",
	"Kecantikan",
	"Makanan & Minuman",
	"Olahraga",
	"Rumah Tangga",
}

// ProductAnalyzer is the analysis facade consumed by the handlers.
type ProductAnalyzer interface {
	Analyze(ctx context.Context, in analysis.Input) (*analysis.Result, error)
	PredictCategory(ctx context.Context, name, description string, platform marketplace.Platform) (*analysis.CategoryPrediction, error)
	EnrichForShopee(ctx context.Context, in analysis.EnrichInput) (*marketplace.ShopeePayload, error)
	EnrichForTikTok(ctx context.Context, in analysis.EnrichInput) (*marketplace.TikTokPayload, error)
	AnalyzeTrends(ctx context.Context, category, region string) (*analysis.TrendReport, error)
}

// TrendSource supplies search-grounded market trends. *search.Client
// satisfies it; nil means the feature reports itself unconfigured.
type TrendSource interface {
	MarketTrends(ctx context.Context, categories []string, region string) map[string]search.CategoryTrends
}

type Server struct {
	analyzer ProductAnalyzer
	store    storage.Store
	registry *marketplace.Registry
	trends   TrendSource

	trendMu      sync.Mutex
	trendCache   map[string]search.CategoryTrends
	trendFetched time.Time
}

func New(analyzer ProductAnalyzer, store storage.Store, registry *marketplace.Registry, trends TrendSource) *Server {
	return &Server{analyzer: analyzer, store: store, registry: registry, trends: trends}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/products/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/enrichment/enrich", s.handleEnrich)
	mux.HandleFunc("POST /api/enrichment/predict-category", s.handlePredictCategory)
	mux.HandleFunc("POST /api/marketplaces/publish", s.handlePublish)
	mux.HandleFunc("GET /api/trends/market", s.handleMarketTrends)
	mux.HandleFunc("POST /api/trends/refresh", s.handleRefreshTrends)
	mux.HandleFunc("POST /api/trends/analyze", s.handleAnalyzeTrends)
	return requestLogger(mux)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}

	in := analysis.Input{
		Description: r.FormValue("description"),
	}

	if specs := r.FormValue("specifications"); specs != "" {
		if err := json.Unmarshal([]byte(specs), &in.Specifications); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "specifications must be a JSON object of strings")
			return
		}
	}

	if file, _, err := r.FormFile("image"); err == nil {
		defer file.Close()
		// One extra byte distinguishes "exactly at the limit" from "over
		// it"; oversized uploads are rejected, never truncated.
		data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "failed to read image")
			return
		}
		if len(data) > maxImageBytes {
			writeError(w, http.StatusBadRequest, "bad_request", "image exceeds the 10 MB limit")
			return
		}
		in.Image = data
	}

	if len(in.Image) == 0 && in.Description == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "image or description is required")
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), in)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	productID := uuid.NewString()
	if s.store != nil {
		analysisJSON, err := json.Marshal(result)
		if err == nil {
			err = s.store.SaveProduct(&storage.Product{
				ID:       productID,
				Name:     result.Title,
				Analysis: string(analysisJSON),
			})
		}
		if err != nil {
			log.Error().Err(err).Str("productId", productID).Msg("failed to persist product")
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"product_id": productID,
		"analysis":   result,
	})
}

type predictCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Platform    string `json:"platform"`
}

func (s *Server) handlePredictCategory(w http.ResponseWriter, r *http.Request) {
	var req predictCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}
	platform, err := marketplace.ParsePlatform(req.Platform)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	prediction, err := s.analyzer.PredictCategory(r.Context(), req.Name, req.Description, platform)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, prediction)
}

type enrichRequest struct {
	Platform    string   `json:"platform"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int      `json:"price"`
	Stock       int      `json:"stock"`
	WeightKg    float64  `json:"weight_kg"`
	Condition   string   `json:"condition"`
	Images      []string `json:"images"`
	SKU         string   `json:"sku"`
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Name == "" || req.Price <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "name and a positive price are required")
		return
	}
	platform, err := marketplace.ParsePlatform(req.Platform)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	in := analysis.EnrichInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		WeightKg:    req.WeightKg,
		Condition:   req.Condition,
		Images:      req.Images,
		SKU:         req.SKU,
	}

	var payload any
	switch platform {
	case marketplace.Shopee:
		payload, err = s.analyzer.EnrichForShopee(r.Context(), in)
	case marketplace.TikTokShop:
		payload, err = s.analyzer.EnrichForTikTok(r.Context(), in)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", "platform does not support enrichment")
		return
	}
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"platform":      platform,
		"platform_data": payload,
		"status":        "success",
	})
}

func (s *Server) handleMarketTrends(w http.ResponseWriter, r *http.Request) {
	if s.trends == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"trends":    map[string]any{},
			"message":   "market trend search is not configured",
			"cache_hit": false,
		})
		return
	}

	s.trendMu.Lock()
	cacheHit := s.trendCache != nil && time.Since(s.trendFetched) < trendCacheTTL
	if !cacheHit {
		s.trendCache = s.trends.MarketTrends(r.Context(), defaultTrendCategories, "Indonesia")
		s.trendFetched = time.Now()
	}
	trends := s.trendCache
	fetched := s.trendFetched
	s.trendMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"trends":       trends,
		"last_updated": fetched,
		"cache_hit":    cacheHit,
	})
}

func (s *Server) handleRefreshTrends(w http.ResponseWriter, r *http.Request) {
	if s.trends == nil {
		writeError(w, http.StatusBadRequest, "bad_request", "market trend search is not configured")
		return
	}

	s.trendMu.Lock()
	s.trendCache = s.trends.MarketTrends(r.Context(), defaultTrendCategories, "Indonesia")
	s.trendFetched = time.Now()
	trends := s.trendCache
	fetched := s.trendFetched
	s.trendMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"trends":       trends,
		"last_updated": fetched,
	})
}

type analyzeTrendsRequest struct {
	Category string `json:"category"`
	Region   string `json:"region"`
}

func (s *Server) handleAnalyzeTrends(w http.ResponseWriter, r *http.Request) {
	var req analyzeTrendsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Category == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "category is required")
		return
	}

	report, err := s.analyzer.AnalyzeTrends(r.Context(), req.Category, req.Region)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    report,
	})
}

type publishRequest struct {
	ProductID   string   `json:"product_id"`
	Platforms   []string `json:"platforms"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       int      `json:"price"`
	Stock       int      `json:"stock"`
	Images      []string `json:"images"`
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" || req.Title == "" || req.Price <= 0 || len(req.Platforms) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "product_id, title, price and platforms are required")
		return
	}

	reqs := make([]marketplace.PublishRequest, 0, len(req.Platforms))
	for _, name := range req.Platforms {
		platform, err := marketplace.ParsePlatform(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		reqs = append(reqs, marketplace.PublishRequest{
			ProductID:   req.ProductID,
			Platform:    platform,
			Title:       req.Title,
			Description: req.Description,
			Price:       req.Price,
			Stock:       req.Stock,
			Images:      req.Images,
		})
	}

	responses := s.registry.PublishAll(r.Context(), reqs)

	if s.store != nil {
		for _, resp := range responses {
			if !resp.Success {
				continue
			}
			err := s.store.SaveListing(&storage.Listing{
				ProductID:            req.ProductID,
				Platform:             string(resp.Platform),
				MarketplaceProductID: resp.MarketplaceProductID,
				ProductURL:           resp.ProductURL,
				Title:                req.Title,
				Price:                req.Price,
			})
			if err != nil {
				log.Error().Err(err).Str("platform", string(resp.Platform)).Msg("failed to persist listing")
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": responses})
}

// writeAnalysisError maps core errors to the closed error surface. Raw
// backend error text is logged, never returned as the sole signal.
func writeAnalysisError(w http.ResponseWriter, err error) {
	var chainErr *analysis.ChainError
	switch {
	case errors.As(err, &chainErr):
		log.Error().Err(chainErr.Err).Str("stage", chainErr.Stage).Msg("analysis chain failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":     "analysis_failed",
			"stage":     chainErr.Stage,
			"retryable": true,
		})
	case errors.Is(err, analysis.ErrMalformedPrediction):
		log.Error().Err(err).Msg("category prediction failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":     "prediction_failed",
			"retryable": true,
		})
	case errors.Is(err, analysis.ErrMalformedEnrichment):
		log.Error().Err(err).Msg("enrichment failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":     "enrichment_failed",
			"retryable": true,
		})
	case errors.Is(err, analysis.ErrInconsistentInput):
		writeError(w, http.StatusUnprocessableEntity, "inconsistent_input",
			"Gambar yang diupload tidak cocok dengan deskripsi produk.")
	default:
		log.Error().Err(err).Msg("analysis failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "analysis failed")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		next.ServeHTTP(w, r)
		log.Info().
			Str("requestId", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
