package clock

import (
	"context"
	"time"
)

type SystemClock struct{}

func (SystemClock) Now(ctx context.Context) time.Time {
	if t, ok := FromContext(ctx); ok {
		return t
	}
	return time.Now().UTC()
}

type simulatedTimeKey struct{}

// WithTime pins SystemClock to t for the lifetime of ctx. Batch drivers use it to
// bill a past month deterministically.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, simulatedTimeKey{}, t.UTC())
}

func FromContext(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(simulatedTimeKey{}).(time.Time)
	return t, ok
}

// Fixed always reports the same instant.
type Fixed time.Time

func (f Fixed) Now(context.Context) time.Time {
	return time.Time(f).UTC()
}
