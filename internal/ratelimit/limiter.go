// Package ratelimit provides per-tool rate limiting for MCP tools.
package ratelimit

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a tool is called faster than its limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*rate.Limiter

// NewToolLimiters creates the default set of per-tool rate limiters.
// density_summary scans every column of the table and gets the tightest limit.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"density_info":    rate.NewLimiter(rate.Every(time.Second), 10),           // 60/minute, burst 10
		"density_cells":   rate.NewLimiter(rate.Every(500*time.Millisecond), 20), // 120/minute, burst 20
		"density_summary": rate.NewLimiter(rate.Every(2*time.Second), 5),         // 30/minute, burst 5
	}
}

// Check reports whether a call to tool may proceed now.
// Tools without a configured limiter are always allowed.
func (tl ToolLimiters) Check(tool string) error {
	l, ok := tl[tool]
	if !ok {
		return nil
	}
	if !l.Allow() {
		return fmt.Errorf("%w for %s, please try again shortly", ErrRateLimited, tool)
	}
	return nil
}
