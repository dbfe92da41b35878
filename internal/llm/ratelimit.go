package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Completer so each call waits for a limiter token.
func RateLimited(next Completer, limiter *rate.Limiter) Completer {
	if limiter == nil {
		return next
	}
	return CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		if err := limiter.Wait(ctx); err != nil {
			return "", err
		}
		return next.Complete(ctx, req)
	})
}

// NewLimiter returns a limiter for rps requests per second, or nil when rps <= 0.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// rateLimitedFeatures gates every FeatureService call on a shared limiter.
type rateLimitedFeatures struct {
	next    FeatureService
	limiter *rate.Limiter
}

// RateLimitedFeatures wraps a FeatureService with the limiter.
func RateLimitedFeatures(next FeatureService, limiter *rate.Limiter) FeatureService {
	if limiter == nil {
		return next
	}
	return &rateLimitedFeatures{next: next, limiter: limiter}
}

func (r *rateLimitedFeatures) Search(ctx context.Context, query string, topK int) ([]Feature, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Search(ctx, query, topK)
}

func (r *rateLimitedFeatures) Contrast(ctx context.Context, req ContrastRequest) ([]Feature, []Feature, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}
	return r.next.Contrast(ctx, req)
}

func (r *rateLimitedFeatures) Inspect(ctx context.Context, conversation []Message) (Inspection, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Inspection{}, err
	}
	return r.next.Inspect(ctx, conversation)
}

func (r *rateLimitedFeatures) Neighbors(ctx context.Context, feature Feature, topK int) ([]Feature, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Neighbors(ctx, feature, topK)
}
