package config

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFileSystem implements FileSystem for testing.
type MockFileSystem struct {
	HomeDir     string
	HomeDirErr  error
	Files       map[string][]byte
	ReadFileErr error
}

func (m *MockFileSystem) UserHomeDir() (string, error) {
	return m.HomeDir, m.HomeDirErr
}

func (m *MockFileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileErr != nil {
		return nil, m.ReadFileErr
	}
	data, ok := m.Files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

// --- HAPPY PATH TESTS ---

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	// Config file doesn't exist - should return all defaults
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files:   map[string][]byte{}, // Empty - no config file
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Network.FetchTimeoutMs)
	assert.Equal(t, "gemini-2.5-flash", cfg.Summarizer.Model)
	require.Len(t, cfg.Models.Profiles, 2)
	assert.True(t, cfg.Models.Profiles[0].Reasoning)
}

func TestLoad_FullOverride_AllValuesReplaced(t *testing.T) {
	configJSON := `{
		"models": {
			"profiles": [{"name": "gemini-2.0-flash", "reasoning": false}],
			"pricing": {"gemini-2.0-flash": [{"input_per_mtok": 0.1, "output_per_mtok": 0.4}]}
		},
		"network": {"fetch_timeout_ms": 2500},
		"summarizer": {"model": "gemini-2.0-flash"}
	}`
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/workbench/config.json": []byte(configJSON),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 2500, cfg.Network.FetchTimeoutMs)
	assert.Equal(t, "gemini-2.0-flash", cfg.Summarizer.Model)
	require.Len(t, cfg.Models.Profiles, 1)
	assert.Equal(t, "gemini-2.0-flash", cfg.Models.Profiles[0].Name)
}

func TestLoad_PartialOverride_MergesWithDefaults(t *testing.T) {
	// Only the network timeout is overridden - rest should be defaults
	configJSON := `{"network": {"fetch_timeout_ms": 250}}`
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/workbench/config.json": []byte(configJSON),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Network.FetchTimeoutMs)          // Overridden
	assert.Equal(t, "gemini-2.5-flash", cfg.Summarizer.Model) // Default
	assert.Len(t, cfg.Models.Profiles, 2)                     // Default
}

func TestLoad_EmptyConfigFile_ReturnsDefaults(t *testing.T) {
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/workbench/config.json": []byte(`{}`),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Network.FetchTimeoutMs, cfg.Network.FetchTimeoutMs)
}

// --- ERROR PATH TESTS ---

func TestLoad_MalformedJSON_ReturnsError(t *testing.T) {
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/workbench/config.json": []byte(`{not json`),
		},
	}
	loader := NewLoaderWithFS(fs)

	_, err := loader.Load()

	assert.Error(t, err)
}

func TestLoad_PermissionError_ReturnsError(t *testing.T) {
	fs := &MockFileSystem{
		HomeDir:     "/home/user",
		ReadFileErr: errors.New("permission denied"),
	}
	loader := NewLoaderWithFS(fs)

	_, err := loader.Load()

	assert.Error(t, err)
}

func TestLoad_NoHomeDir_ReturnsDefaults(t *testing.T) {
	fs := &MockFileSystem{
		HomeDirErr: errors.New("no home"),
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Network.FetchTimeoutMs)
}

func TestLoad_InvalidValues_ReturnsValidationError(t *testing.T) {
	configJSON := `{"network": {"fetch_timeout_ms": 0}}`
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/workbench/config.json": []byte(configJSON),
		},
	}
	loader := NewLoaderWithFS(fs)

	_, err := loader.Load()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fetch_timeout_ms")
}

// --- PRICING DECODE TESTS ---

func TestPricingTables_DecodesBands(t *testing.T) {
	cfg := DefaultConfig()

	tables, err := cfg.PricingTables()

	require.NoError(t, err)
	pro, ok := tables["gemini-2.5-pro"]
	require.True(t, ok)
	require.Len(t, pro.Bands, 2)
	assert.Equal(t, 200_000, pro.Bands[0].UpToInputTokens)
	assert.Equal(t, 1.25, pro.Bands[0].InputPerMTok)
	assert.Equal(t, 0, pro.Bands[1].UpToInputTokens) // unbounded last band
}

func TestPricingTables_JSONNumbersDecode(t *testing.T) {
	configJSON := `{
		"models": {
			"profiles": [{"name": "m"}],
			"pricing": {"m": [{"up_to_input_tokens": 128000, "input_per_mtok": 3, "output_per_mtok": 15}]}
		}
	}`
	fs := &MockFileSystem{
		HomeDir: "/home/user",
		Files: map[string][]byte{
			"/home/user/.config/workbench/config.json": []byte(configJSON),
		},
	}
	loader := NewLoaderWithFS(fs)

	cfg, err := loader.Load()
	require.NoError(t, err)

	tables, err := cfg.PricingTables()
	require.NoError(t, err)
	m := tables["m"]
	require.Len(t, m.Bands, 1)
	assert.Equal(t, 128000, m.Bands[0].UpToInputTokens)
	assert.Equal(t, 3.0, m.Bands[0].InputPerMTok)
}
