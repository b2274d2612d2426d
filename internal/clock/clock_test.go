package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSystemClockHonoursContextTime(t *testing.T) {
	pinned := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	ctx := WithTime(context.Background(), pinned)

	require.Equal(t, pinned, SystemClock{}.Now(ctx))
	require.WithinDuration(t, time.Now().UTC(), SystemClock{}.Now(context.Background()), time.Minute)
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, at, Fixed(at).Now(context.Background()))
}
