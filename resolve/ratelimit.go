package resolve

import (
	"context"
	"strings"
	"sync"

	"github.com/fwojciec/carnet"
	"golang.org/x/time/rate"
)

var _ carnet.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter keeps resolution from hammering a university's card portal.
// Each host name gets its own token bucket, keyed case-insensitively.
type DomainLimiter struct {
	limit rate.Limit
	burst int

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewDomainLimiter allows rps card fetches per second to each host. An rps
// of zero or less disables limiting. A burst below 1 is treated as 1.
func NewDomainLimiter(rps float64, burst int) *DomainLimiter {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &DomainLimiter{
		limit: limit,
		burst: max(burst, 1),
		hosts: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a fetch from host is allowed or ctx is done.
func (d *DomainLimiter) Wait(ctx context.Context, host string) error {
	return d.bucket(host).Wait(ctx)
}

func (d *DomainLimiter) bucket(host string) *rate.Limiter {
	host = strings.ToLower(host)

	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.hosts[host]
	if !ok {
		b = rate.NewLimiter(d.limit, d.burst)
		d.hosts[host] = b
	}
	return b
}
