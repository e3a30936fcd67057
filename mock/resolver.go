package mock

import (
	"context"

	"github.com/fwojciec/carnet"
)

var _ carnet.Resolver = (*Resolver)(nil)

// Resolver is a mock implementation of carnet.Resolver.
type Resolver struct {
	ResolveFn func(ctx context.Context, payload carnet.Payload) (*carnet.Resolution, error)
}

func (r *Resolver) Resolve(ctx context.Context, payload carnet.Payload) (*carnet.Resolution, error) {
	return r.ResolveFn(ctx, payload)
}
