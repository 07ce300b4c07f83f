// Package risk implements the deterministic clearance channel rule.
//
// A declaration is flagged RED when its declared value falls below a
// configured fraction of the market reference value for the goods. The
// rule is a pure function of its two inputs: submission-time labeling and
// verification-time re-derivation must be configured with the same
// threshold, and the ledger records the market reference used at
// submission so the decision never drifts with a later reference update.
package risk

import (
	"math"
	"math/big"
)

// Channel is the inspection channel assigned to a declaration.
type Channel string

const (
	// ChannelGreen clears the shipment for immediate release.
	ChannelGreen Channel = "GREEN"

	// ChannelRed flags the shipment for physical inspection.
	ChannelRed Channel = "RED"
)

// DefaultThreshold flags declarations below 70% of the market reference.
const DefaultThreshold = 0.7

// Engine applies the undervaluation rule with a fixed threshold.
//
// The threshold is held as a rational number (per-mille) so the boundary
// comparison is exact in integer arithmetic: with the default 0.7,
// declaredValue == marketReference*0.7 is GREEN, never misclassified by
// floating-point drift.
type Engine struct {
	num int64 // threshold numerator, per mille
	den int64
}

// NewEngine builds an Engine for the given threshold, quantised to 1/1000.
// Thresholds outside (0, 1] fall back to DefaultThreshold.
func NewEngine(threshold float64) *Engine {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Engine{num: int64(math.Round(threshold * 1000)), den: 1000}
}

// Decide returns RED iff declaredValue < marketReference*threshold.
// Equality at the boundary is GREEN (inclusive threshold). The cross
// products are compared in arbitrary precision: an int64 product would
// wrap for references above ~2^53 and silently flip the channel.
func (e *Engine) Decide(declaredValue, marketReference int64) Channel {
	lhs := new(big.Int).Mul(big.NewInt(declaredValue), big.NewInt(e.den))
	rhs := new(big.Int).Mul(big.NewInt(marketReference), big.NewInt(e.num))
	if lhs.Cmp(rhs) < 0 {
		return ChannelRed
	}
	return ChannelGreen
}

// Threshold returns the configured threshold as a float for display.
func (e *Engine) Threshold() float64 {
	return float64(e.num) / float64(e.den)
}
