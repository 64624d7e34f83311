// Package dedupe suppresses repeated webhook deliveries inside a short window.
package dedupe

import (
	"context"
	"time"
)

// Admitter decides whether an event key is seen for the first time within ttl.
// Admit returns true exactly once per key per window.
type Admitter interface {
	Admit(ctx context.Context, key string, ttl time.Duration) bool
}
