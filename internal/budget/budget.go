// Package budget estimates context-window fullness and request cost for the
// current workspace snapshot.
package budget

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"workbench/internal/model"
	"workbench/internal/workspace"
)

// Tier is the context-window fullness warning level.
type Tier int

const (
	TierNone Tier = iota
	TierYellow
	TierRed
)

func (t Tier) String() string {
	switch t {
	case TierRed:
		return "red"
	case TierYellow:
		return "yellow"
	default:
		return "none"
	}
}

// ApproxTokens is the heuristic token count for text: characters divided by
// four.
func ApproxTokens(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// TierFor grades a token count against one model's capacity. The thresholds
// are strict: exactly capacity/1.1 tokens is not yet red, exactly capacity/2
// is not yet yellow.
func TierFor(tokens, maxInputTokens int) Tier {
	if maxInputTokens <= 0 {
		return TierNone
	}
	capacity := float64(maxInputTokens)
	switch {
	case float64(tokens) > capacity/1.1:
		return TierRed
	case float64(tokens) > capacity/2.0:
		return TierYellow
	default:
		return TierNone
	}
}

// PricingSource supplies price tables by model name.
type PricingSource interface {
	Pricing(name string) (model.Pricing, bool)
}

// Estimate is the result of grading a snapshot against the configured model
// profiles.
type Estimate struct {
	ApproxTokens int
	Tier         Tier

	// CostsByModel holds the estimated dollar cost of one request per
	// distinct priced model.
	CostsByModel map[string]float64

	// UnreadableIDs lists fragments whose text could not be read. They were
	// skipped here; the caller removes them from the snapshot.
	UnreadableIDs []string
}

// Estimator grades snapshots. It only reads the snapshot; removal of
// unreadable fragments is the workspace manager's job.
type Estimator struct {
	pricing PricingSource
	log     *zap.Logger
}

// NewEstimator creates an Estimator using the given pricing source.
func NewEstimator(pricing PricingSource, log *zap.Logger) *Estimator {
	return &Estimator{pricing: pricing, log: log}
}

// Estimate counts tokens over every readable text fragment and grades the
// total against each available profile. Unavailable or zero-capacity
// profiles contribute nothing; the overall tier is the worst per-profile
// tier.
func (e *Estimator) Estimate(snap *workspace.Snapshot, profiles []model.Profile) Estimate {
	est := Estimate{CostsByModel: map[string]float64{}}

	var sb strings.Builder
	for _, f := range snap.AllFragments() {
		if !f.IsText() {
			continue
		}
		text, err := f.Text()
		if err != nil {
			e.log.Warn("skipping unreadable fragment", zap.String("id", f.ID()), zap.Error(err))
			est.UnreadableIDs = append(est.UnreadableIDs, f.ID())
			continue
		}
		sb.WriteString(text)
	}
	est.ApproxTokens = ApproxTokens(sb.String())

	seen := map[string]bool{}
	for _, p := range profiles {
		if !p.Available || p.MaxInputTokens <= 0 {
			continue
		}
		if t := TierFor(est.ApproxTokens, p.MaxInputTokens); t > est.Tier {
			est.Tier = t
		}
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		pricing, ok := e.pricing.Pricing(p.Name)
		if !ok {
			continue
		}
		est.CostsByModel[p.Name] = pricing.EstimateCost(est.ApproxTokens, 0, estimateOutputTokens(est.ApproxTokens, p))
	}
	return est
}

// estimateOutputTokens is the heuristic output size for a request: half the
// input capped at 4000, plus a reasoning allowance.
func estimateOutputTokens(inputTokens int, p model.Profile) int {
	out := inputTokens / 2
	if out > 4000 {
		out = 4000
	}
	if p.Reasoning {
		out += 1000
	}
	return out
}
