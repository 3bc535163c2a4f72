package marketplace

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Registry routes publish requests to per-platform publishers.
type Registry struct {
	publishers map[Platform]Publisher
}

// NewRegistry creates a registry from explicit platform publishers.
func NewRegistry(publishers map[Platform]Publisher) *Registry {
	return &Registry{publishers: publishers}
}

// Get returns the publisher for a platform.
func (r *Registry) Get(platform Platform) (Publisher, error) {
	p, ok := r.publishers[platform]
	if !ok {
		return nil, fmt.Errorf("platform %s not supported", platform)
	}
	return p, nil
}

// Publish sends one listing to its platform.
func (r *Registry) Publish(ctx context.Context, req PublishRequest) (PublishResponse, error) {
	p, err := r.Get(req.Platform)
	if err != nil {
		return PublishResponse{}, err
	}
	return p.Publish(ctx, req)
}

// PublishAll fans out the requests concurrently and joins all of them.
// Every request produces exactly one response in submission order; a failed
// call becomes a per-platform failure record instead of aborting the batch,
// so partial success is a valid outcome.
func (r *Registry) PublishAll(ctx context.Context, reqs []PublishRequest) []PublishResponse {
	responses := make([]PublishResponse, len(reqs))
	g := new(errgroup.Group)
	for i := range reqs {
		g.Go(func() error {
			resp, err := r.Publish(ctx, reqs[i])
			if err != nil {
				log.Error().
					Err(err).
					Str("platform", string(reqs[i].Platform)).
					Str("productId", reqs[i].ProductID).
					Msg("marketplace publish failed")
				responses[i] = PublishResponse{
					Success:  false,
					Platform: reqs[i].Platform,
					Message:  fmt.Sprintf("Error: %v", err),
				}
				return nil
			}
			responses[i] = resp
			return nil
		})
	}
	_ = g.Wait()
	return responses
}
