package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Korean listing prices group amounts by 억 (100,000,000 won) and
// 만 (10,000 won), with 천 (1,000) as a sub-unit of 만. The map backend
// mixes every variant: "3억 8,000만원", "7.5억", "3억2천", bare "8,500".
var (
	reEok      = regexp.MustCompile(`(\d+(?:\.\d+)?)억`)
	reEokMan   = regexp.MustCompile(`억(\d+)만`)
	reEokBare  = regexp.MustCompile(`억(\d+)$`)
	reEokCheon = regexp.MustCompile(`억(\d+)천`)
	reMan      = regexp.MustCompile(`(\d+)만`)
	reCheon    = regexp.MustCompile(`(\d+)천만?`)
	reDigits   = regexp.MustCompile(`^\d+$`)

	reSalePrefix = regexp.MustCompile(`^\s*매매\s*`)
)

const (
	eokWon = 100_000_000
	manWon = 10_000
)

// ParseWon translates a Korean currency notation into whole won.
// The second return is false when the text carries no parseable amount;
// callers treat that as "unknown", not as an error.
func ParseWon(s string) (int64, bool) {
	t := strings.NewReplacer(" ", "", ",", "").Replace(strings.TrimSpace(s))
	hasWonMarker := strings.Contains(t, "원")
	t = strings.ReplaceAll(t, "원", "")
	if t == "" {
		return 0, false
	}

	var total, man int64
	matched := false

	if m := reEok.FindStringSubmatch(t); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			total += int64(math.Round(f * eokWon))
			matched = true
		}

		// A trailing man-quantity may be attached directly ("3억8000만"),
		// bare ("3억8000"), or in thousands ("3억2천"). At most one applies.
		if m2 := reEokMan.FindStringSubmatch(t); m2 != nil {
			man = parseDigits(m2[1])
		} else if m2 := reEokBare.FindStringSubmatch(t); m2 != nil {
			man = parseDigits(m2[1])
		} else if m2 := reEokCheon.FindStringSubmatch(t); m2 != nil {
			man = parseDigits(m2[1]) * 1000
		}
	} else if m := reMan.FindStringSubmatch(t); m != nil {
		man = parseDigits(m[1])
		matched = true
	} else if m := reCheon.FindStringSubmatch(t); m != nil {
		man = parseDigits(m[1]) * 1000
		matched = true
	}

	// Bare number: already won if the 원 marker was present, otherwise the
	// backend quotes it in man-units.
	if total == 0 && man == 0 && reDigits.MatchString(t) {
		n := parseDigits(t)
		if hasWonMarker {
			return n, true
		}
		return n * manWon, true
	}

	if !matched && man == 0 {
		return 0, false
	}
	return total + man*manWon, true
}

// SaleWon parses a listing's raw sale price, tolerating the 매매 prefix the
// list endpoint prepends.
func SaleWon(rawPrice string) (int64, bool) {
	return ParseWon(reSalePrefix.ReplaceAllString(rawPrice, ""))
}

func parseDigits(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
