package main

import (
	"net"
	"strconv"

	carnethttp "github.com/fwojciec/carnet/http"
)

// Run executes the serve command.
func (c *ServeCmd) Run(deps *Dependencies) error {
	opts := []carnethttp.ServerOption{
		carnethttp.WithLogger(deps.Logger),
		carnethttp.WithResolveTimeout(c.ResolveTimeout),
	}
	if deps.Metrics != nil {
		opts = append(opts,
			carnethttp.WithMetricsHandler(deps.Metrics.Handler()),
			carnethttp.WithMiddleware(deps.Metrics.Middleware),
		)
	}

	srv := carnethttp.NewServer(deps.Resolver, deps.Allowlist, opts...)
	return srv.ListenAndServe(deps.Ctx, net.JoinHostPort("", strconv.Itoa(c.Port)))
}
