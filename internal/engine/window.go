package engine

import "time"

// Window is one trailing lookback period ending at the as-of date.
// Exactly one of Days/Months is set; the lifetime window has neither and is
// bounded only by the global lookback horizon.
type Window struct {
	Name   string
	Days   int
	Months int
}

// The fixed window set, ordered shortest to longest. Index positions are
// stable; windowLifetime is the last slot.
var lookbackWindows = [...]Window{
	{Name: "15d", Days: 15},
	{Name: "30d", Days: 30},
	{Name: "3m", Months: 3},
	{Name: "6m", Months: 6},
	{Name: "12m", Months: 12},
	{Name: "lifetime"},
}

const (
	window15d = iota
	window30d
	window3m
	window6m
	window12m
	windowLifetime
	windowCount
)

// Cutoff returns the inclusive lower bound of the window. The lifetime
// window returns the zero time (no lower bound beyond the horizon filter
// already applied to the snapshot).
func (w Window) Cutoff(asOf time.Time) time.Time {
	switch {
	case w.Days > 0:
		return asOf.AddDate(0, 0, -w.Days)
	case w.Months > 0:
		return asOf.AddDate(0, -w.Months, 0)
	default:
		return time.Time{}
	}
}

// windowCutoffs precomputes every cutoff once so the order set is scanned a
// single time regardless of how many windows exist.
func windowCutoffs(asOf time.Time) [windowCount]time.Time {
	var cutoffs [windowCount]time.Time
	for i, w := range lookbackWindows {
		cutoffs[i] = w.Cutoff(asOf)
	}
	return cutoffs
}

// inWindow reports whether an order date falls inside the window. Windows
// are right-closed at the as-of date; the snapshot loader already excludes
// orders after it.
func inWindow(orderDate, cutoff time.Time) bool {
	return !orderDate.Before(cutoff)
}
