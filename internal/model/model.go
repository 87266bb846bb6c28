// Package model resolves configured model profiles against the live model
// list and carries the banded pricing used for cost estimates.
package model

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"workbench/internal/gemini"
)

// Profile is a resolved model profile. Unresolved names come back with
// Available=false and are skipped by every consumer.
type Profile struct {
	Name           string
	Reasoning      bool
	MaxInputTokens int
	Available      bool
}

// PriceBand prices one input-size range, in dollars per million tokens.
type PriceBand struct {
	// UpToInputTokens bounds the band; zero means unbounded. Input larger
	// than every bound falls into the last band.
	UpToInputTokens int     `mapstructure:"up_to_input_tokens"`
	InputPerMTok    float64 `mapstructure:"input_per_mtok"`
	CachedPerMTok   float64 `mapstructure:"cached_per_mtok"`
	OutputPerMTok   float64 `mapstructure:"output_per_mtok"`
}

// Pricing is a model's banded price table. An empty table means the model is
// unpriced and excluded from cost estimates.
type Pricing struct {
	Bands []PriceBand
}

// Empty reports whether no pricing data exists.
func (p Pricing) Empty() bool { return len(p.Bands) == 0 }

const tokensPerM = 1_000_000

// EstimateCost prices a request shape against the band selected by input
// size.
func (p Pricing) EstimateCost(inputTokens, cachedTokens, outputTokens int) float64 {
	if len(p.Bands) == 0 {
		return 0
	}
	band := p.Bands[len(p.Bands)-1]
	for _, b := range p.Bands {
		if b.UpToInputTokens > 0 && inputTokens <= b.UpToInputTokens {
			band = b
			break
		}
	}
	return float64(inputTokens-cachedTokens)*band.InputPerMTok/tokensPerM +
		float64(cachedTokens)*band.CachedPerMTok/tokensPerM +
		float64(outputTokens)*band.OutputPerMTok/tokensPerM
}

// Registry maps model names to context-window limits and pricing. Limits are
// populated from the provider's model list; pricing comes from configuration.
type Registry struct {
	mu      sync.RWMutex
	limits  map[string]int
	pricing map[string]Pricing
	log     *zap.Logger
}

// NewRegistry creates an empty Registry; call Refresh to populate limits.
func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		limits:  map[string]int{},
		pricing: map[string]Pricing{},
		log:     log,
	}
}

// NewStaticRegistry creates a Registry with fixed limits and pricing, for
// tests and offline operation.
func NewStaticRegistry(limits map[string]int, pricing map[string]Pricing, log *zap.Logger) *Registry {
	r := NewRegistry(log)
	for name, limit := range limits {
		r.limits[name] = limit
	}
	for name, p := range pricing {
		r.pricing[name] = p
	}
	return r
}

// Refresh replaces the limit table with the provider's current model list.
func (r *Registry) Refresh(ctx context.Context, client gemini.Client) error {
	infos, err := client.ListModels(ctx)
	if err != nil {
		return err
	}
	limits := make(map[string]int, len(infos))
	for _, info := range infos {
		limits[strings.TrimPrefix(info.Name, "models/")] = info.InputTokenLimit
	}
	r.mu.Lock()
	r.limits = limits
	r.mu.Unlock()
	return nil
}

// SetPricing installs a model's price table.
func (r *Registry) SetPricing(name string, p Pricing) {
	r.mu.Lock()
	r.pricing[name] = p
	r.mu.Unlock()
}

// Resolve looks up a model name. Unknown names or names without a positive
// context window resolve to an unavailable profile, logged at debug level.
func (r *Registry) Resolve(name string, reasoning bool) Profile {
	r.mu.RLock()
	limit, ok := r.limits[name]
	r.mu.RUnlock()
	if !ok || limit <= 0 {
		r.log.Debug("model profile unavailable", zap.String("model", name))
		return Profile{Name: name, Reasoning: reasoning}
	}
	return Profile{Name: name, Reasoning: reasoning, MaxInputTokens: limit, Available: true}
}

// MaxInputTokens returns the profile's context-window capacity.
func (r *Registry) MaxInputTokens(p Profile) int { return p.MaxInputTokens }

// Pricing returns the model's price table, if one is configured.
func (r *Registry) Pricing(name string) (Pricing, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pricing[name]
	if !ok || p.Empty() {
		return Pricing{}, false
	}
	return p, true
}
