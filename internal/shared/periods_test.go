package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWindowIsHalfOpen(t *testing.T) {
	w := WindowBetween(date("2024-05-01"), date("2024-06-01"))
	require.True(t, w.Contains(date("2024-05-01")))
	require.True(t, w.Contains(date("2024-05-31")))
	require.False(t, w.Contains(date("2024-06-01")))
	require.False(t, w.Contains(date("2024-04-30")))
}

func TestUnboundedWindowContainsEverything(t *testing.T) {
	var w Window
	require.True(t, w.Contains(date("1999-01-01")))
	require.True(t, w.Contains(date("2999-01-01")))
}

func TestThroughIsInclusive(t *testing.T) {
	cutoff := date("2024-05-13")
	require.True(t, Through(date("2024-05-13"), cutoff))
	require.True(t, Through(date("2024-05-12"), cutoff))
	require.False(t, Through(date("2024-05-14"), cutoff))
}
