package testserver

import "time"

const warnRateLimited = "You are sending too much text. Wait a moment and try again."

// rateLimiter counts chat frames per fixed window. A zero limit allows all.
type rateLimiter struct {
	limit   int
	window  time.Duration
	counter int
	start   time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &rateLimiter{limit: limit, window: window}
}

func (r *rateLimiter) allow(now time.Time) bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	if now.Sub(r.start) >= r.window {
		r.start = now
		r.counter = 0
	}
	r.counter++
	return r.counter <= r.limit
}
