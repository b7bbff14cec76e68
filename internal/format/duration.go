// Package format renders player-facing message templates and the plain text
// helpers used alongside them.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FormatElapsed renders a coarse duration such as "2d 3h" or "45s". At most two
// adjacent units are shown, starting from the largest non-zero one.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Second {
		return "0s"
	}

	units := []struct {
		size   time.Duration
		suffix string
	}{
		{24 * time.Hour, "d"},
		{time.Hour, "h"},
		{time.Minute, "m"},
		{time.Second, "s"},
	}

	parts := make([]string, 0, 2)
	for _, u := range units {
		if d < u.size {
			if len(parts) > 0 {
				break
			}
			continue
		}
		n := d / u.size
		d -= n * u.size
		parts = append(parts, fmt.Sprintf("%d%s", n, u.suffix))
		if len(parts) == 2 {
			break
		}
	}
	return strings.Join(parts, " ")
}

// FormatLatency renders a short duration as "Xms" under a second and as
// seconds with up to two decimals otherwise.
func FormatLatency(d time.Duration) string {
	ms := float64(d) / float64(time.Millisecond)
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return "unknown"
	}
	if ms < 0 {
		ms = 0
	}
	if ms < 1000 {
		return fmt.Sprintf("%.0fms", ms)
	}
	return trimTrailingZeros(fmt.Sprintf("%.2f", ms/1000)) + "s"
}

// trimTrailingZeros removes trailing zeros after the decimal point.
// e.g., "1.50" -> "1.5", "2.00" -> "2"
func trimTrailingZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
