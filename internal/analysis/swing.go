package analysis

import "math"

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)

// SwingKind marks a swing point as a local high or low.
type SwingKind string

const (
	SwingHigh SwingKind = "HIGH"
	SwingLow  SwingKind = "LOW"
)

// DefaultSwingLook is the number of candles checked on each side of a fractal.
const DefaultSwingLook = 2

// SwingPoint represents a confirmed fractal extreme
type SwingPoint struct {
	Index     int       `json:"index"`
	Price     float64   `json:"price"`
	Timestamp int64     `json:"t"`
	Kind      SwingKind `json:"kind"`
}

// Swings holds swing highs and lows, each in chronological order.
type Swings struct {
	Highs []SwingPoint `json:"highs"`
	Lows  []SwingPoint `json:"lows"`
}

// SwingDetector finds fractal swing points
type SwingDetector struct {
	look int
}

// NewSwingDetector creates a detector with the given window. A non-positive
// window falls back to DefaultSwingLook.
func NewSwingDetector(look int) *SwingDetector {
	if look <= 0 {
		look = DefaultSwingLook
	}
	return &SwingDetector{look: look}
}

// Detect scans candles for fractals. Candle i is a swing high when its high is
// strictly above the highs of the look candles on both sides; lows mirror
// that. Equal neighbours disqualify a candidate. Fewer than 2*look+1 candles
// yield empty sequences.
func (sd *SwingDetector) Detect(candles []Candle) Swings {
	swings := Swings{
		Highs: make([]SwingPoint, 0),
		Lows:  make([]SwingPoint, 0),
	}
	if len(candles) < 2*sd.look+1 {
		return swings
	}

	for i := sd.look; i < len(candles)-sd.look; i++ {
		h := candles[i].High
		l := candles[i].Low
		isHigh, isLow := true, true

		for j := 1; j <= sd.look; j++ {
			if candles[i-j].High >= h || candles[i+j].High >= h {
				isHigh = false
			}
			if candles[i-j].Low <= l || candles[i+j].Low <= l {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}

		if isHigh {
			swings.Highs = append(swings.Highs, SwingPoint{
				Index:     i,
				Price:     h,
				Timestamp: candles[i].OpenTime,
				Kind:      SwingHigh,
			})
		}
		if isLow {
			swings.Lows = append(swings.Lows, SwingPoint{
				Index:     i,
				Price:     l,
				Timestamp: candles[i].OpenTime,
				Kind:      SwingLow,
			})
		}
	}

	return swings
}

// lastTwo returns the previous and last points, ok=false with fewer than two.
func lastTwo(points []SwingPoint) (prev, last SwingPoint, ok bool) {
	if len(points) < 2 {
		return SwingPoint{}, SwingPoint{}, false
	}
	return points[len(points)-2], points[len(points)-1], true
}
