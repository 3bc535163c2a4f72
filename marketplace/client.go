package marketplace

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// APIClient publishes listings through a marketplace's HTTP API. All three
// supported platforms expose the same product resource shape through the
// mock gateway, so one client covers them, parameterized by base URL.
type APIClient struct {
	httpClient *resty.Client
	platform   Platform
}

type ClientOpts struct {
	BaseURL string
	Auth    string
}

// NewAPIClient creates a publisher for the given platform API.
func NewAPIClient(platform Platform, opts ClientOpts) *APIClient {
	c := &APIClient{platform: platform}
	c.httpClient = resty.New().
		SetDebug(false).
		SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json")
	if opts.Auth != "" {
		c.httpClient.SetHeader("Authorization", opts.Auth)
	}
	return c
}

func (c *APIClient) req(ctx context.Context, result any) *resty.Request {
	request := c.httpClient.
		NewRequest().
		SetContext(ctx).
		SetHeader("X-Request-Id", uuid.NewString())

	if result != nil {
		request.SetResult(result)
	}

	return request
}

// Publish implements Publisher.
func (c *APIClient) Publish(ctx context.Context, req PublishRequest) (PublishResponse, error) {
	result := &PublishResponse{}
	_, err := handleError(c.req(ctx, result).
		SetBody(req).
		Post("/products"))
	if err != nil {
		return PublishResponse{}, err
	}
	result.Platform = c.platform
	return *result, nil
}

// Update implements Publisher.
func (c *APIClient) Update(ctx context.Context, marketplaceProductID string, req PublishRequest) (PublishResponse, error) {
	result := &PublishResponse{}
	_, err := handleError(c.req(ctx, result).
		SetBody(req).
		SetPathParams(map[string]string{"productId": marketplaceProductID}).
		Put("/products/{productId}"))
	if err != nil {
		return PublishResponse{}, err
	}
	result.Platform = c.platform
	return *result, nil
}

// Delete implements Publisher.
func (c *APIClient) Delete(ctx context.Context, marketplaceProductID string) error {
	_, err := handleError(c.req(ctx, nil).
		SetPathParams(map[string]string{"productId": marketplaceProductID}).
		Delete("/products/{productId}"))
	return err
}

// handleError is a generic error handler for failing responses (>399 status
// code). Without this, failing responses would have nil error.
func handleError(res *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return res, err
	}
	if res.IsError() {
		return res, fmt.Errorf("request failed: %s %s (status: %d)", res.Request.Method, res.Request.URL, res.StatusCode())
	}

	return res, nil
}
