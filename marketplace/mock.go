package marketplace

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product URL and ID prefixes per platform, mirroring the shapes the real
// APIs hand back.
var mockProfiles = map[Platform]struct {
	idPrefix string
	urlBase  string
}{
	Shopee:     {"SHOPEE", "https://shopee.co.id/product"},
	Tokopedia:  {"TOKPED", "https://tokopedia.com/product"},
	TikTokShop: {"TIKTOK", "https://shop.tiktok.com/product"},
}

// MockPublisher simulates a marketplace API in-process: a small artificial
// delay and fabricated product IDs. Used until real platform credentials
// exist.
type MockPublisher struct {
	platform Platform
	delay    time.Duration
}

// NewMockPublisher creates a mock for the given platform.
func NewMockPublisher(platform Platform, delay time.Duration) *MockPublisher {
	return &MockPublisher{platform: platform, delay: delay}
}

func (m *MockPublisher) wait(ctx context.Context) error {
	if m.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(m.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MockPublisher) productID() string {
	profile := mockProfiles[m.platform]
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s", profile.idPrefix, suffix)
}

// Publish implements Publisher.
func (m *MockPublisher) Publish(ctx context.Context, req PublishRequest) (PublishResponse, error) {
	if err := m.wait(ctx); err != nil {
		return PublishResponse{}, err
	}

	id := m.productID()
	return PublishResponse{
		Success:              true,
		Platform:             m.platform,
		ProductURL:           fmt.Sprintf("%s/%s", mockProfiles[m.platform].urlBase, id),
		MarketplaceProductID: id,
		Message:              fmt.Sprintf("Produk berhasil dipublish ke %s!", m.platform),
	}, nil
}

// Update implements Publisher.
func (m *MockPublisher) Update(ctx context.Context, marketplaceProductID string, req PublishRequest) (PublishResponse, error) {
	if err := m.wait(ctx); err != nil {
		return PublishResponse{}, err
	}

	return PublishResponse{
		Success:              true,
		Platform:             m.platform,
		ProductURL:           fmt.Sprintf("%s/%s", mockProfiles[m.platform].urlBase, marketplaceProductID),
		MarketplaceProductID: marketplaceProductID,
		Message:              fmt.Sprintf("Produk berhasil diupdate di %s!", m.platform),
	}, nil
}

// Delete implements Publisher.
func (m *MockPublisher) Delete(ctx context.Context, marketplaceProductID string) error {
	return m.wait(ctx)
}
