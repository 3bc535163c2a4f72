package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClientPublish(t *testing.T) {
	var gotMethod, gotPath, gotRequestID string
	var gotBody PublishRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-Id")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(PublishResponse{
			Success:              true,
			ProductURL:           "https://shopee.co.id/product/SHOPEE_1",
			MarketplaceProductID: "SHOPEE_1",
			Message:              "ok",
		})
	}))
	defer srv.Close()

	c := NewAPIClient(Shopee, ClientOpts{BaseURL: srv.URL})
	resp, err := c.Publish(context.Background(), PublishRequest{
		ProductID: "p1",
		Title:     "Sepatu Lari",
		Price:     450_000,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/products", gotPath)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "Sepatu Lari", gotBody.Title)
	assert.Equal(t, 450_000, gotBody.Price)

	assert.True(t, resp.Success)
	assert.Equal(t, Shopee, resp.Platform)
	assert.Equal(t, "SHOPEE_1", resp.MarketplaceProductID)
}

func TestAPIClientUpdate(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(PublishResponse{Success: true, MarketplaceProductID: "TOKPED_9"})
	}))
	defer srv.Close()

	c := NewAPIClient(Tokopedia, ClientOpts{BaseURL: srv.URL})
	resp, err := c.Update(context.Background(), "TOKPED_9", PublishRequest{Title: "Sepatu"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/products/TOKPED_9", gotPath)
	assert.Equal(t, Tokopedia, resp.Platform)
}

func TestAPIClientDelete(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewAPIClient(TikTokShop, ClientOpts{BaseURL: srv.URL})
	err := c.Delete(context.Background(), "TIKTOK_7")
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/products/TIKTOK_7", gotPath)
}

func TestAPIClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewAPIClient(Shopee, ClientOpts{BaseURL: srv.URL})
	_, err := c.Publish(context.Background(), PublishRequest{ProductID: "p1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status: 502")
}

func TestAPIClientAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewAPIClient(Shopee, ClientOpts{BaseURL: srv.URL, Auth: "Bearer token-123"})
	require.NoError(t, c.Delete(context.Background(), "SHOPEE_1"))

	assert.Equal(t, "Bearer token-123", gotAuth)
}
