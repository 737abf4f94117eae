package scheduler

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixed(n int) func(int) int {
	return func(int) int { return n }
}

func TestNextDayBounds(t *testing.T) {
	now := time.Date(2024, 3, 10, 10, 30, 0, 0, time.UTC)

	require.Equal(t, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC), Window{Intn: fixed(0)}.NextDay(now))
	require.Equal(t, time.Date(2024, 3, 11, 11, 59, 0, 0, time.UTC), Window{Intn: fixed(179)}.NextDay(now))
}

func TestNextDayRandomised(t *testing.T) {
	w := Window{Intn: rand.New(rand.NewSource(1)).Intn}
	// inside the band the gap to the next run is always 21h to 27h
	for _, now := range []time.Time{
		time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 28, 10, 15, 42, 0, time.UTC),
		time.Date(2024, 12, 31, 11, 59, 59, 0, time.UTC),
	} {
		for i := 0; i < 200; i++ {
			next := w.NextDay(now)
			require.Equal(t, now.AddDate(0, 0, 1).Day(), next.Day())
			require.GreaterOrEqual(t, next.Hour(), 9)
			require.LessOrEqual(t, next.Hour(), 11)
			require.Zero(t, next.Second())
			require.Zero(t, next.Nanosecond())
			gap := next.Sub(now)
			require.GreaterOrEqual(t, gap, 21*time.Hour)
			require.Less(t, gap, 27*time.Hour)
		}
	}
}

func TestNextDayUsesUTCCalendarDay(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)
	// 2024-03-10 17:00 UTC
	now := time.Date(2024, 3, 11, 1, 0, 0, 0, shanghai)

	next := Window{Intn: fixed(30)}.NextDay(now)
	require.Equal(t, time.Date(2024, 3, 11, 9, 30, 0, 0, time.UTC), next)
	require.Equal(t, time.UTC, next.Location())
}

func TestInitial(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		n    int
		want time.Time
	}{
		{
			name: "before window",
			now:  time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
			n:    0,
			want: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "inside window, candidate ahead",
			now:  time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC),
			n:    90,
			want: time.Date(2024, 3, 10, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "candidate equal to now is kept",
			now:  time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC),
			n:    60,
			want: time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "candidate passed",
			now:  time.Date(2024, 3, 10, 9, 0, 30, 0, time.UTC),
			n:    0,
			want: time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "after window",
			now:  time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC),
			n:    179,
			want: time.Date(2024, 3, 11, 11, 59, 0, 0, time.UTC),
		},
		{
			name: "exactly noon, last minute",
			now:  time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
			n:    179,
			want: time.Date(2024, 3, 11, 11, 59, 0, 0, time.UTC),
		},
		{
			name: "exactly noon, first minute",
			now:  time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
			n:    0,
			want: time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Window{Intn: fixed(tt.n)}.Initial(tt.now)
			require.Equal(t, tt.want, got)
			require.False(t, got.Before(tt.now))
		})
	}
}

func TestZeroWindowFallsBackToMathRand(t *testing.T) {
	now := time.Date(2024, 3, 10, 13, 0, 0, 0, time.UTC)
	next := Window{}.NextDay(now)
	require.Equal(t, 11, next.Day())
	require.True(t, next.Hour() >= 9 && next.Hour() <= 11)
}
