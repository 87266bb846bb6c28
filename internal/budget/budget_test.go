package budget

import (
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"workbench/internal/fragment"
	"workbench/internal/model"
	"workbench/internal/workspace"
)

func makeSnapshot(t *testing.T, approxTokens int) *workspace.Snapshot {
	t.Helper()
	text := strings.Repeat("a", approxTokens*4)
	return workspace.EmptySnapshot().AddVirtual(fragment.NewString(text, "filler"))
}

func staticPricing(tables map[string]model.Pricing) *model.Registry {
	return model.NewStaticRegistry(nil, tables, zap.NewNop())
}

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 0, ApproxTokens(""))
	assert.Equal(t, 1, ApproxTokens("abcd"))
	assert.Equal(t, 2, ApproxTokens("abcdefgh"))
	assert.Equal(t, 1, ApproxTokens("abcdefg"), "remainder rounds down")
}

func TestTierFor_Boundaries(t *testing.T) {
	const capacity = 10000

	tests := []struct {
		name   string
		tokens int
		want   Tier
	}{
		{"far below half", 4000, TierNone},
		{"exactly half", 5000, TierNone},
		{"just over half", 5001, TierYellow},
		{"well into yellow", 5500, TierYellow},
		{"just under red threshold", 9090, TierYellow},
		{"just over red threshold", 9091, TierRed},
		{"near capacity", 9100, TierRed},
		{"over capacity", 20000, TierRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TierFor(tt.tokens, capacity))
		})
	}
}

func TestTierFor_Monotone(t *testing.T) {
	prev := TierNone
	for tokens := 0; tokens <= 12000; tokens += 100 {
		tier := TierFor(tokens, 10000)
		assert.GreaterOrEqual(t, int(tier), int(prev), "tier must never decrease as tokens grow")
		prev = tier
	}
}

func TestTierFor_ZeroCapacity(t *testing.T) {
	assert.Equal(t, TierNone, TierFor(1000, 0))
}

func TestEstimate_WorstProfileWins(t *testing.T) {
	e := NewEstimator(staticPricing(nil), zap.NewNop())
	snap := makeSnapshot(t, 9100)
	profiles := []model.Profile{
		{Name: "big", MaxInputTokens: 1_000_000, Available: true},
		{Name: "small", MaxInputTokens: 10000, Available: true},
	}

	est := e.Estimate(snap, profiles)

	assert.Equal(t, 9100, est.ApproxTokens)
	assert.Equal(t, TierRed, est.Tier)
}

func TestEstimate_SkipsUnavailableProfiles(t *testing.T) {
	e := NewEstimator(staticPricing(nil), zap.NewNop())
	snap := makeSnapshot(t, 9100)
	profiles := []model.Profile{
		{Name: "ghost", MaxInputTokens: 10000, Available: false},
		{Name: "zero", MaxInputTokens: 0, Available: true},
	}

	est := e.Estimate(snap, profiles)

	assert.Equal(t, TierNone, est.Tier)
	assert.Empty(t, est.CostsByModel)
}

func TestEstimate_ImagesContributeNothing(t *testing.T) {
	e := NewEstimator(staticPricing(nil), zap.NewNop())
	img := fragment.NewPasteImage(image.NewRGBA(image.Rect(0, 0, 2, 2)), "")
	snap := makeSnapshot(t, 100).AddVirtual(img)

	est := e.Estimate(snap, nil)

	assert.Equal(t, 100, est.ApproxTokens)
}

func TestEstimate_UnreadableFragmentSkippedAndReported(t *testing.T) {
	e := NewEstimator(staticPricing(nil), zap.NewNop())
	bad := fragment.NewProjectPath(t.TempDir(), "missing.go")
	snap := makeSnapshot(t, 50).AddVirtual(bad)

	est := e.Estimate(snap, nil)

	assert.Equal(t, 50, est.ApproxTokens, "estimate covers the readable subset")
	assert.Equal(t, []string{bad.ID()}, est.UnreadableIDs)
}

func TestEstimate_CostsPerDistinctPricedModel(t *testing.T) {
	tables := map[string]model.Pricing{
		"priced": {Bands: []model.PriceBand{{InputPerMTok: 1.0, OutputPerMTok: 10.0}}},
	}
	e := NewEstimator(staticPricing(tables), zap.NewNop())
	snap := makeSnapshot(t, 1_000_000)
	profiles := []model.Profile{
		{Name: "priced", MaxInputTokens: 10_000_000, Available: true},
		{Name: "priced", MaxInputTokens: 10_000_000, Available: true}, // duplicate
		{Name: "unpriced", MaxInputTokens: 10_000_000, Available: true},
	}

	est := e.Estimate(snap, profiles)

	require.Len(t, est.CostsByModel, 1)
	// 1M input at $1/MTok + 4000 output (capped) at $10/MTok
	assert.InDelta(t, 1.0+0.04, est.CostsByModel["priced"], 1e-9)
}

func TestEstimate_ReasoningProfileAddsOutputTokens(t *testing.T) {
	tables := map[string]model.Pricing{
		"r": {Bands: []model.PriceBand{{OutputPerMTok: 1_000_000}}}, // $1 per output token
	}
	e := NewEstimator(staticPricing(tables), zap.NewNop())
	snap := makeSnapshot(t, 1000)
	profiles := []model.Profile{
		{Name: "r", Reasoning: true, MaxInputTokens: 1_000_000, Available: true},
	}

	est := e.Estimate(snap, profiles)

	// output = min(4000, 1000/2) + 1000 reasoning allowance = 1500
	assert.InDelta(t, 1500.0, est.CostsByModel["r"], 1e-9)
}

func TestEstimate_OutputCappedAt4000(t *testing.T) {
	tables := map[string]model.Pricing{
		"m": {Bands: []model.PriceBand{{OutputPerMTok: 1_000_000}}},
	}
	e := NewEstimator(staticPricing(tables), zap.NewNop())
	snap := makeSnapshot(t, 100_000)
	profiles := []model.Profile{
		{Name: "m", MaxInputTokens: 1_000_000, Available: true},
	}

	est := e.Estimate(snap, profiles)

	assert.InDelta(t, 4000.0, est.CostsByModel["m"], 1e-9)
}
