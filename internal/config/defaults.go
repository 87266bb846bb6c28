package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Models     ModelsConfig     `json:"models"`
	Network    NetworkConfig    `json:"network"`
	Summarizer SummarizerConfig `json:"summarizer"`
}

// ModelsConfig lists the model profiles the budget estimator grades against,
// plus their price tables keyed by model name.
type ModelsConfig struct {
	Profiles []ProfileConfig `json:"profiles"`

	// Pricing maps a model name to its price bands. Band entries are loose
	// maps so the dotfile stays forgiving; they are decoded into typed bands
	// on access.
	Pricing map[string][]map[string]any `json:"pricing"`
}

// ProfileConfig names one model to grade against.
type ProfileConfig struct {
	Name      string `json:"name"`
	Reasoning bool   `json:"reasoning"`
}

type NetworkConfig struct {
	// FetchTimeoutMs bounds each HEAD/GET issued for a pasted URL.
	FetchTimeoutMs int `json:"fetch_timeout_ms"` // Default: 1000
}

type SummarizerConfig struct {
	// Model used for paste summarization.
	Model string `json:"model"` // Default: gemini-2.5-flash
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Models: ModelsConfig{
			Profiles: []ProfileConfig{
				{Name: "gemini-2.5-pro", Reasoning: true},
				{Name: "gemini-2.5-flash"},
			},
			Pricing: map[string][]map[string]any{
				"gemini-2.5-pro": {
					{"up_to_input_tokens": 200_000, "input_per_mtok": 1.25, "cached_per_mtok": 0.31, "output_per_mtok": 10.0},
					{"input_per_mtok": 2.50, "cached_per_mtok": 0.625, "output_per_mtok": 15.0},
				},
				"gemini-2.5-flash": {
					{"input_per_mtok": 0.30, "cached_per_mtok": 0.075, "output_per_mtok": 2.50},
				},
			},
		},
		Network: NetworkConfig{
			FetchTimeoutMs: 1000,
		},
		Summarizer: SummarizerConfig{
			Model: "gemini-2.5-flash",
		},
	}
}
