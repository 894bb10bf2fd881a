package acp

import "golang.org/x/time/rate"

// IncomingLimiter throttles incoming requests on a single connection. A
// multi-tenant host (an agent shared across many client processes) keys one
// of these per peer; a single stdio connection just needs one.
type IncomingLimiter struct {
	limiter *rate.Limiter
}

// NewIncomingLimiter allows up to burst requests immediately, then
// replenishes at rps requests per second.
func NewIncomingLimiter(rps float64, burst int) *IncomingLimiter {
	return &IncomingLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Allow reports whether one more incoming request may be dispatched right
// now. Responses and notifications are never throttled: a client that sent
// a request expects an answer regardless of subsequent traffic shape.
func (l *IncomingLimiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.limiter.Allow()
}
