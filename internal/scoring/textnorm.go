package scoring

import (
	"math"
	"strings"
)

// normalizeText lowercases and trims surrounding whitespace. Interior
// whitespace and accents are kept as-is: "  Penicillin " matches
// "penicillin" but "pénicilline" does not match "penicilline".
func normalizeText(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

// Round2 rounds to two decimal places. The engine applies it to
// attempt totals; HTTP callers apply it to percentages.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
