package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"guardian-futures-engine/internal/risk"
)

const (
	// MaxClientOrderIDLength is the maximum length allowed by Binance
	MaxClientOrderIDLength = 36

	// timestampLayout renders the trigger candle time, e.g. "17OCT1430"
	timestampLayout = "02Jan1504"
)

// Errors for client order ID operations
var (
	ErrClientOrderIDTooLong = errors.New("client order ID exceeds maximum length of 36 characters")
	ErrInvalidClientOrderID = errors.New("invalid client order ID format")
	ErrInvalidLegType       = errors.New("invalid leg type")
)

// directionCode maps a trade direction to its 3-character code
var directionCode = map[risk.Side]string{
	risk.SideLong:  "LNG",
	risk.SideShort: "SHT",
}

// ClientOrderID builds a suggested clientOrderId for one leg of a plan.
// Format: [DIR]-[DDMMMHHMM]-[SYMBOL]-[TYPE] (e.g., "SHT-17OCT1430-BTCUSDT-TP1").
// The time is the trigger candle's open time in UTC, so the same snapshot
// always yields the same IDs.
func ClientOrderID(dir risk.Side, symbol string, asOf int64, leg LegType) (string, error) {
	code, ok := directionCode[dir]
	if !ok {
		return "", fmt.Errorf("%w: direction '%s'", ErrInvalidClientOrderID, dir)
	}
	if err := validateLegType(leg); err != nil {
		return "", err
	}
	if symbol == "" || strings.Contains(symbol, "-") {
		return "", fmt.Errorf("%w: symbol '%s'", ErrInvalidClientOrderID, symbol)
	}

	stamp := strings.ToUpper(time.UnixMilli(asOf).UTC().Format(timestampLayout))
	id := fmt.Sprintf("%s-%s-%s-%s", code, stamp, strings.ToUpper(symbol), leg)
	if len(id) > MaxClientOrderIDLength {
		return "", fmt.Errorf("%w: generated ID '%s' is %d characters", ErrClientOrderIDTooLong, id, len(id))
	}
	return id, nil
}

// validateLegType checks if the leg type is valid
func validateLegType(leg LegType) error {
	for _, l := range AllLegTypes() {
		if l == leg {
			return nil
		}
	}
	return fmt.Errorf("%w: '%s'", ErrInvalidLegType, leg)
}
