package chaos

import (
	"context"
	"math/rand"
	"time"
)

// Context derives a per-call context. Roughly one call in five gets a
// deadline short enough to interrupt a simulated delay, and one in twenty is
// cancelled before it starts.
func Context(parent context.Context, rng *rand.Rand) (context.Context, context.CancelFunc) {
	switch n := rng.Intn(20); {
	case n == 0:
		ctx, cancel := context.WithCancel(parent)
		cancel()
		return ctx, cancel
	case n < 5:
		return context.WithTimeout(parent, time.Duration(rng.Intn(2000))*time.Microsecond)
	default:
		return context.WithCancel(parent)
	}
}
