package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// NormalizePrice turns the catalog's price field into a number. Numbers pass
// through. Strings such as "₹4,999/-" keep only their digits and dots and are
// read as the longest leading decimal. Anything else is 0.
func NormalizePrice(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	return parsePriceString(s)
}

func parsePriceString(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return leadingDecimal(b.String())
}

// leadingDecimal parses the longest prefix of s of the form digits[.digits].
func leadingDecimal(s string) float64 {
	end := 0
	seenDot := false
	for end < len(s) {
		if s[end] == '.' {
			if seenDot {
				break
			}
			seenDot = true
		}
		end++
	}
	prefix := strings.TrimSuffix(s[:end], ".")
	if prefix == "" || prefix == "." {
		return 0
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0
	}
	return v
}
