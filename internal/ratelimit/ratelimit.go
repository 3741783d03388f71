// Package ratelimit composes per-service rate limiting and bounded
// concurrency (§5): a token-bucket limiter and a semaphore, keyed by
// service name, the way the original's ConcurrencyManager bundles a rate
// limiter, a semaphore, and a retry handler per remote service.
package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Policy configures one service's rate limit and concurrency ceiling.
type Policy struct {
	// CallsPerPeriod and Period define the token-bucket rate: N calls per
	// T seconds.
	CallsPerPeriod int
	Period         float64 // seconds

	// MaxConcurrent bounds in-flight calls to this service; 0 means
	// unbounded.
	MaxConcurrent int
}

type service struct {
	limiter *rate.Limiter
	sem     *semaphore.Weighted
}

// ServiceLimiter holds one rate limiter and semaphore pair per registered
// service name.
type ServiceLimiter struct {
	mu       sync.RWMutex
	services map[string]*service
}

// New constructs an empty ServiceLimiter.
func New() *ServiceLimiter {
	return &ServiceLimiter{services: make(map[string]*service)}
}

// Configure registers or replaces the policy for serviceName.
func (s *ServiceLimiter) Configure(serviceName string, p Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc := &service{}
	if p.CallsPerPeriod > 0 && p.Period > 0 {
		svc.limiter = rate.NewLimiter(rate.Limit(float64(p.CallsPerPeriod)/p.Period), p.CallsPerPeriod)
	}
	if p.MaxConcurrent > 0 {
		svc.sem = semaphore.NewWeighted(int64(p.MaxConcurrent))
	}
	s.services[serviceName] = svc
}

// Acquire blocks until serviceName's rate limit and concurrency ceiling
// both admit one call, returning a release function the caller must
// invoke when the call completes. A service with no configured policy
// admits immediately.
func (s *ServiceLimiter) Acquire(ctx context.Context, serviceName string) (release func(), err error) {
	s.mu.RLock()
	svc, ok := s.services[serviceName]
	s.mu.RUnlock()
	if !ok {
		return func() {}, nil
	}

	if svc.sem != nil {
		if err := svc.sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("acquire concurrency slot for %s: %w", serviceName, err)
		}
	}
	if svc.limiter != nil {
		if err := svc.limiter.Wait(ctx); err != nil {
			if svc.sem != nil {
				svc.sem.Release(1)
			}
			return nil, fmt.Errorf("acquire rate limit token for %s: %w", serviceName, err)
		}
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		if svc.sem != nil {
			svc.sem.Release(1)
		}
	}, nil
}
