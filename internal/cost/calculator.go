package cost

import "sync"

// Rates holds per-model token pricing.
type Rates struct {
	Anthropic map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Claude computes the cost for a Claude API call. Unknown models cost 0.
func (c *Calculator) Claude(model string, input, output int64) float64 {
	rate, ok := c.rates.Anthropic[model]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"claude-3-5-haiku-20241022":  {Input: 0.80, Output: 4.00},
			"claude-3-5-sonnet-20241022": {Input: 3.00, Output: 15.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
		},
	}
}

// Summary is the accumulated spend of a Tracker.
type Summary struct {
	Calls        int
	InputTokens  int64
	OutputTokens int64
	USD          float64
}

// Tracker accumulates token usage across concurrent calls. A nil Tracker
// ignores every call.
type Tracker struct {
	calc *Calculator

	mu  sync.Mutex
	sum Summary
}

// NewTracker creates a Tracker priced by calc.
func NewTracker(calc *Calculator) *Tracker {
	return &Tracker{calc: calc}
}

// Record adds one call's usage.
func (t *Tracker) Record(model string, input, output int64) {
	if t == nil {
		return
	}
	usd := t.calc.Claude(model, input, output)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sum.Calls++
	t.sum.InputTokens += input
	t.sum.OutputTokens += output
	t.sum.USD += usd
}

// Summary returns the totals so far.
func (t *Tracker) Summary() Summary {
	if t == nil {
		return Summary{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sum
}
