// Package ratelimit builds request limiters for the OpenAI-backed
// capabilities.
package ratelimit

import (
	"os"
	"strconv"

	"golang.org/x/time/rate"
)

const (
	DefaultRPS   = 2.0
	DefaultBurst = 4
)

// New creates a rate limiter from configured values. Non-positive values
// fall back to the defaults; OPENAI_RPS and OPENAI_BURST override both.
func New(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		rps = DefaultRPS
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	if v := os.Getenv("OPENAI_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			rps = f
		}
	}
	if v := os.Getenv("OPENAI_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			burst = n
		}
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
