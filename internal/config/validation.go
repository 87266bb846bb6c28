package config

import (
	"fmt"
)

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	if len(c.Models.Profiles) == 0 {
		errs = append(errs, "models.profiles must name at least one model")
	}
	seen := map[string]bool{}
	for i, p := range c.Models.Profiles {
		if p.Name == "" {
			errs = append(errs, fmt.Sprintf("models.profiles[%d].name must be set", i))
			continue
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Sprintf("models.profiles has duplicate name %q", p.Name))
		}
		seen[p.Name] = true
	}

	// Pricing tables must decode and carry non-negative rates.
	tables, err := c.PricingTables()
	if err != nil {
		errs = append(errs, err.Error())
	} else {
		for name, pricing := range tables {
			for i, band := range pricing.Bands {
				if band.InputPerMTok < 0 || band.CachedPerMTok < 0 || band.OutputPerMTok < 0 {
					errs = append(errs, fmt.Sprintf("models.pricing[%q] band %d has a negative rate", name, i))
				}
				if band.UpToInputTokens < 0 {
					errs = append(errs, fmt.Sprintf("models.pricing[%q] band %d has a negative bound", name, i))
				}
			}
		}
	}

	if c.Network.FetchTimeoutMs < 1 {
		errs = append(errs, "network.fetch_timeout_ms must be >= 1")
	}
	if c.Summarizer.Model == "" {
		errs = append(errs, "summarizer.model must be set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
