package marketplace

import (
	"context"
	"fmt"
)

// Platform identifies a target marketplace.
type Platform string

const (
	Shopee     Platform = "shopee"
	Tokopedia  Platform = "tokopedia"
	TikTokShop Platform = "tiktok_shop"
)

// Platforms lists every supported platform.
var Platforms = []Platform{Shopee, Tokopedia, TikTokShop}

// ParsePlatform validates a platform name.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range Platforms {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported platform: %q", s)
}

// PublishRequest carries one listing to one platform.
type PublishRequest struct {
	ProductID   string   `json:"product_id"`
	Platform    Platform `json:"platform"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       int      `json:"price"`
	Stock       int      `json:"stock"`
	Images      []string `json:"images"`
}

// PublishResponse is the per-platform outcome. Failures are recorded here
// rather than returned as errors so a batch can partially succeed.
type PublishResponse struct {
	Success              bool     `json:"success"`
	Platform             Platform `json:"platform"`
	ProductURL           string   `json:"product_url,omitempty"`
	MarketplaceProductID string   `json:"marketplace_product_id,omitempty"`
	Message              string   `json:"message"`
}

// Publisher is one marketplace integration.
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) (PublishResponse, error)
	Update(ctx context.Context, marketplaceProductID string, req PublishRequest) (PublishResponse, error)
	Delete(ctx context.Context, marketplaceProductID string) error
}
