package analysis

// Candle is one OHLC bar. Sequences are ordered by ascending OpenTime.
type Candle struct {
	OpenTime int64   `json:"t"`
	Open     float64 `json:"o"`
	High     float64 `json:"h"`
	Low      float64 `json:"l"`
	Close    float64 `json:"c"`
}

// MaxHigh returns the highest high in candles, or -Inf when empty.
func MaxHigh(candles []Candle) float64 {
	m := negInf
	for _, c := range candles {
		if c.High > m {
			m = c.High
		}
	}
	return m
}

// MinLow returns the lowest low in candles, or +Inf when empty.
func MinLow(candles []Candle) float64 {
	m := posInf
	for _, c := range candles {
		if c.Low < m {
			m = c.Low
		}
	}
	return m
}

// Tail returns the last n candles (all of them when fewer exist).
func Tail(candles []Candle, n int) []Candle {
	if n <= 0 || n >= len(candles) {
		return candles
	}
	return candles[len(candles)-n:]
}
