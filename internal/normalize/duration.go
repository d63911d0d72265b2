package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseDuration converts a heterogeneous duration string into whole seconds.
// Accepted shapes, tried in order: "HH:MM:SS" / "MM:SS", "<n>s" / "<n>m",
// a bare integer (seconds), a decimal number (minutes). It is a total
// function: anything unparseable yields 0, negatives clamp to 0.
func ParseDuration(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	if strings.Contains(s, ":") {
		return clampSeconds(parseColonDuration(s))
	}

	if n, ok := parseSuffixed(s, "s"); ok {
		return clampSeconds(n)
	}
	if n, ok := parseSuffixed(s, "m"); ok {
		return clampSeconds(n * 60)
	}

	if n, err := strconv.Atoi(s); err == nil {
		return clampSeconds(n)
	}

	// Decimal values are minutes, e.g. "3.5" -> 210s
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return clampSeconds(int(math.Round(f * 60)))
	}

	return 0
}

// FormatDuration renders seconds as "H:MM:SS" above one hour, "M:SS" below
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// parseColonDuration handles "MM:SS" and "HH:MM:SS"
func parseColonDuration(s string) int {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0
	}

	values := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0
		}
		values = append(values, n)
	}

	if len(values) == 2 {
		return values[0]*60 + values[1]
	}
	return values[0]*3600 + values[1]*60 + values[2]
}

func parseSuffixed(s, suffix string) (int, bool) {
	if !strings.HasSuffix(strings.ToLower(s), suffix) {
		return 0, false
	}
	body := strings.TrimSpace(s[:len(s)-len(suffix)])
	n, err := strconv.Atoi(body)
	if err != nil {
		return 0, false
	}
	return n, true
}

func clampSeconds(n int) int {
	if n < 0 {
		return 0
	}
	// Out-of-range values (>24h) pass through; the quality auditor flags them
	return n
}
