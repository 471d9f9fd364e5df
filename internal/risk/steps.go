package risk

import (
	"strings"
	"sync"
)

// DefaultQuantityStep applies to symbols without a listed step.
const DefaultQuantityStep = 1.0

// StepSource returns the minimum quantity increment for a symbol.
type StepSource interface {
	Step(symbol string) float64
}

var builtinSteps = map[string]float64{
	"BTCUSDT": 0.001,
	"ETHUSDT": 0.01,
	"SOLUSDT": 0.1,
}

// StepTable is a concurrency-safe StepSource seeded with the built-in steps.
// Overrides come from config and from venue LOT_SIZE filters.
type StepTable struct {
	mu    sync.RWMutex
	steps map[string]float64
	def   float64
}

// NewStepTable creates a table with the built-in steps plus overrides.
func NewStepTable(overrides map[string]float64) *StepTable {
	st := &StepTable{
		steps: make(map[string]float64, len(builtinSteps)+len(overrides)),
		def:   DefaultQuantityStep,
	}
	for sym, step := range builtinSteps {
		st.steps[sym] = step
	}
	st.Merge(overrides)
	return st
}

// Step returns the step for symbol or DefaultQuantityStep.
func (st *StepTable) Step(symbol string) float64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if step, ok := st.steps[strings.ToUpper(symbol)]; ok {
		return step
	}
	return st.def
}

// Merge adds or replaces steps. Non-positive steps are ignored.
func (st *StepTable) Merge(steps map[string]float64) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for sym, step := range steps {
		if step <= 0 {
			continue
		}
		st.steps[strings.ToUpper(sym)] = step
		n++
	}
	return n
}

// Len returns the number of symbols with an explicit step.
func (st *StepTable) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.steps)
}
