package service

import (
	"context"
	"math"
	"time"
)

// roundTo rounds value to the given number of decimal places.
func roundTo(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}

// startOfDay returns midnight UTC of the day containing t.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// dateKey formats t as a UTC calendar date (YYYY-MM-DD).
func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// withTimeout is context.WithTimeout that treats a non-positive timeout as no timeout.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
