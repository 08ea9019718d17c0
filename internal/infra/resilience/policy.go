package resilience

import "time"

// Policy configures the breaker around outbound LLM calls. Attempts stays
// at 1 unless configured otherwise, so a failed call is not replayed.
type Policy struct {
	Attempts     int
	Backoff      time.Duration
	MaxBackoff   time.Duration
	Breaker      bool
	MinRequests  uint32
	FailureRatio float64
	OpenTimeout  time.Duration
	HalfOpenMax  uint32
}

func DefaultPolicy() Policy {
	return Policy{
		Attempts:     1,
		Backoff:      500 * time.Millisecond,
		MaxBackoff:   4 * time.Second,
		Breaker:      true,
		MinRequests:  5,
		FailureRatio: 0.6,
		OpenTimeout:  30 * time.Second,
		HalfOpenMax:  1,
	}
}

func (p Policy) normalize() Policy {
	def := DefaultPolicy()
	if p.Attempts <= 0 {
		p.Attempts = def.Attempts
	}
	if p.Backoff <= 0 {
		p.Backoff = def.Backoff
	}
	if p.MaxBackoff < p.Backoff {
		p.MaxBackoff = p.Backoff
	}
	if p.MinRequests == 0 {
		p.MinRequests = def.MinRequests
	}
	if p.FailureRatio <= 0 || p.FailureRatio > 1 {
		p.FailureRatio = def.FailureRatio
	}
	if p.OpenTimeout <= 0 {
		p.OpenTimeout = def.OpenTimeout
	}
	if p.HalfOpenMax == 0 {
		p.HalfOpenMax = def.HalfOpenMax
	}
	return p
}
