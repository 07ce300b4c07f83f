package risk_test

import (
	"math"
	"testing"

	"github.com/GangaMannan/CustomsClearnace/internal/risk"
)

func TestDecide_defaultThreshold(t *testing.T) {
	engine := risk.NewEngine(risk.DefaultThreshold)

	tests := []struct {
		name      string
		declared  int64
		reference int64
		want      risk.Channel
	}{
		{"well below threshold", 500, 1000, risk.ChannelRed},
		{"just below threshold", 699, 1000, risk.ChannelRed},
		{"exactly at threshold is green", 700, 1000, risk.ChannelGreen},
		{"above threshold", 900, 1000, risk.ChannelGreen},
		{"equal to reference", 1000, 1000, risk.ChannelGreen},
		{"above reference", 1500, 1000, risk.ChannelGreen},
		{"zero declared", 0, 1000, risk.ChannelRed},
		{"zero reference", 0, 0, risk.ChannelGreen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.Decide(tt.declared, tt.reference); got != tt.want {
				t.Errorf("Decide(%d, %d) = %s, want %s", tt.declared, tt.reference, got, tt.want)
			}
		})
	}
}

func TestDecide_boundaryExactWithOddReference(t *testing.T) {
	// 0.7 * 930 = 651 exactly; integer arithmetic must not round this
	// either way.
	engine := risk.NewEngine(0.7)
	if got := engine.Decide(651, 930); got != risk.ChannelGreen {
		t.Errorf("Decide(651, 930) = %s, want GREEN", got)
	}
	if got := engine.Decide(650, 930); got != risk.ChannelRed {
		t.Errorf("Decide(650, 930) = %s, want RED", got)
	}
}

func TestDecide_largeValuesStayExact(t *testing.T) {
	// reference*700 exceeds int64 once reference passes ~2^53; a wrapped
	// product would clear grossly undervalued declarations.
	engine := risk.NewEngine(risk.DefaultThreshold)

	tests := []struct {
		name      string
		declared  int64
		reference int64
		want      risk.Channel
	}{
		{"token declaration against huge reference", 1, 1 << 54, risk.ChannelRed},
		{"boundary holds at scale", 7 << 55, 10 << 55, risk.ChannelGreen},
		{"just below boundary at scale", 7<<55 - 1, 10 << 55, risk.ChannelRed},
		{"max declared against max reference", math.MaxInt64, math.MaxInt64, risk.ChannelGreen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.Decide(tt.declared, tt.reference); got != tt.want {
				t.Errorf("Decide(%d, %d) = %s, want %s", tt.declared, tt.reference, got, tt.want)
			}
		})
	}
}

func TestDecide_isPure(t *testing.T) {
	engine := risk.NewEngine(0.7)
	first := engine.Decide(840, 1200)
	for i := 0; i < 100; i++ {
		if got := engine.Decide(840, 1200); got != first {
			t.Fatal("Decide is not deterministic")
		}
	}
}

func TestNewEngine_outOfRangeFallsBack(t *testing.T) {
	for _, bad := range []float64{-1, 0, 1.5} {
		engine := risk.NewEngine(bad)
		if engine.Threshold() != risk.DefaultThreshold {
			t.Errorf("NewEngine(%v).Threshold() = %v, want default", bad, engine.Threshold())
		}
	}
}
