package orders

import (
	"regexp"
	"strings"
	"time"

	"guardian-futures-engine/internal/risk"
)

// ParsedOrderID contains extracted components from a plan clientOrderId
type ParsedOrderID struct {
	Direction risk.Side
	Time      time.Time // Trigger candle time, minute precision, UTC
	Symbol    string
	Leg       LegType
	BaseID    string
	Raw       string
}

var codeToDirection = map[string]risk.Side{
	"LNG": risk.SideLong,
	"SHT": risk.SideShort,
}

// Format: DIR-DDMMMHHMM-SYMBOL-TYPE. Input is upper-cased before matching.
var planIDRegex = regexp.MustCompile(`^(LNG|SHT)-(\d{2}[A-Z]{3}\d{4})-([A-Z0-9]+)-(E|SL|TP1|TP2|RUN)$`)

// ParseClientOrderID parses an ID produced by ClientOrderID.
// Returns nil if the ID is not in that format. The year is not encoded, so
// the parsed time carries year zero.
func ParseClientOrderID(id string) *ParsedOrderID {
	if id == "" {
		return nil
	}
	normalized := strings.ToUpper(id)
	m := planIDRegex.FindStringSubmatch(normalized)
	if m == nil {
		return nil
	}

	// month names match case-insensitively
	ts, err := time.Parse(timestampLayout, m[2])
	if err != nil {
		return nil
	}

	return &ParsedOrderID{
		Direction: codeToDirection[m[1]],
		Time:      ts,
		Symbol:    m[3],
		Leg:       LegType(m[4]),
		BaseID:    strings.Join([]string{m[1], m[2], m[3]}, "-"),
		Raw:       id,
	}
}
