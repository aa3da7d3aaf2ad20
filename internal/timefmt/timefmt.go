// Package timefmt renders event timestamps and durations the way the
// browser and analytics report display them.
package timefmt

import "fmt"

// Relative renders the elapsed time between t (unix seconds) and now as a
// short relative string: Ns, Nm, Nh, Nd, Nw, Nmo or Ny, picking the
// coarsest unit that fits.
func Relative(t, now int64) string {
	delta := now - t
	if delta < 0 {
		delta = 0
	}
	switch {
	case delta < 60:
		return fmt.Sprintf("%ds", delta)
	case delta < 3600:
		return fmt.Sprintf("%dm", delta/60)
	case delta < 86400:
		return fmt.Sprintf("%dh", delta/3600)
	case delta < 7*86400:
		return fmt.Sprintf("%dd", delta/86400)
	case delta < 30*86400:
		return fmt.Sprintf("%dw", delta/(7*86400))
	case delta < 365*86400:
		return fmt.Sprintf("%dmo", delta/(30*86400))
	default:
		return fmt.Sprintf("%dy", delta/(365*86400))
	}
}

// Duration renders a millisecond duration in the browser's compact form,
// omitting anything under one second entirely. Callers should skip the field when this
// returns "".
func Duration(ms int64) string {
	if ms < 1000 {
		return ""
	}
	seconds := ms / 1000
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	return fmt.Sprintf("%dm%ds", minutes, secs)
}
