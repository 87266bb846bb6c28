// Package main runs the workbench: an interactive context workspace that
// collects files, pasted content and task history into immutable snapshots
// and grades them against the configured model profiles.
package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"workbench/internal/budget"
	"workbench/internal/clipboard"
	"workbench/internal/config"
	"workbench/internal/fetch"
	"workbench/internal/gemini"
	"workbench/internal/model"
	"workbench/internal/summarize"
	"workbench/internal/task"
	"workbench/internal/tracker"
	"workbench/internal/ui"
	"workbench/internal/workspace"
)

// Dependencies holds the components required to run the application.
type Dependencies struct {
	Config     *config.Config
	Logger     *zap.Logger
	Tracker    workspace.Tracker
	Summarizer workspace.Summarizer
	Registry   *model.Registry
	Client     gemini.Client
}

func createLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	// The TUI owns the terminal; logs go to a file.
	cfg.OutputPaths = []string{filepath.Join(os.TempDir(), "workbench.log")}
	cfg.ErrorOutputPaths = cfg.OutputPaths
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func createRealTracker(root string, logger *zap.Logger) workspace.Tracker {
	repo, err := tracker.Open(root)
	if err != nil {
		logger.Warn("no git repository found, file tracking disabled", zap.Error(err))
		return tracker.NewStatic()
	}
	return repo
}

func createRealClient(ctx context.Context) (gemini.Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return gemini.NewRealClient(genaiClient), nil
}

// unavailableSummarizer fails every request; paste descriptions fall back to
// the error placeholder.
type unavailableSummarizer struct{}

func (unavailableSummarizer) Summarize(context.Context, string) (string, error) {
	return "", fmt.Errorf("summarizer unavailable: GEMINI_API_KEY not set")
}

func (unavailableSummarizer) SummarizeImage(context.Context, image.Image) (string, error) {
	return "", fmt.Errorf("summarizer unavailable: GEMINI_API_KEY not set")
}

func createDependencies(ctx context.Context) Dependencies {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration.\n")
		cfg = config.DefaultConfig()
	}

	logger := createLogger()

	root, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to get working directory: %v\n", err)
		os.Exit(1)
	}

	registry := model.NewRegistry(logger)
	tables, err := cfg.PricingTables()
	if err != nil {
		logger.Warn("pricing tables unusable", zap.Error(err))
	} else {
		for name, pricing := range tables {
			registry.SetPricing(name, pricing)
		}
	}

	deps := Dependencies{
		Config:   cfg,
		Logger:   logger,
		Tracker:  createRealTracker(root, logger),
		Registry: registry,
	}

	client, err := createRealClient(ctx)
	if err != nil {
		logger.Warn("running without a model provider", zap.Error(err))
		deps.Summarizer = unavailableSummarizer{}
	} else {
		deps.Client = client
		deps.Summarizer = summarize.New(client, cfg.Summarizer.Model, logger)
	}

	return deps
}

func main() {
	ctx := context.Background()
	deps := createDependencies(ctx)
	defer deps.Logger.Sync()

	root, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to get working directory: %v\n", err)
		os.Exit(1)
	}

	runner := task.NewRunner(deps.Logger)
	defer runner.Close()

	fetcher := fetch.NewClient(deps.Config.FetchTimeout(), deps.Logger)
	classifier := clipboard.NewClassifier(fetcher, deps.Logger)

	// Chain change notifications reach the UI once it exists.
	var changeMu sync.Mutex
	var onChange func(*workspace.Snapshot)
	chain := workspace.NewChain(deps.Logger, func(s *workspace.Snapshot) {
		changeMu.Lock()
		fn := onChange
		changeMu.Unlock()
		if fn != nil {
			fn(s)
		}
	})

	relay := &ui.NoticeRelay{}
	instructions := &ui.InstructionBuffer{}

	manager := workspace.NewManager(workspace.ManagerOptions{
		Chain:        chain,
		Executor:     runner,
		Tracker:      deps.Tracker,
		Summarizer:   deps.Summarizer,
		Classifier:   classifier,
		Notifier:     relay,
		Logger:       deps.Logger,
		ProjectRoot:  root,
		Instructions: instructions.Get,
		OnCopy: func(text string) {
			if err := clipboard.WriteSystem(text); err != nil {
				deps.Logger.Warn("system clipboard write failed", zap.Error(err))
			}
		},
	})

	estimator := budget.NewEstimator(deps.Registry, deps.Logger)
	profiles := func() []model.Profile {
		out := make([]model.Profile, 0, len(deps.Config.Models.Profiles))
		for _, p := range deps.Config.Models.Profiles {
			out = append(out, deps.Registry.Resolve(p.Name, p.Reasoning))
		}
		return out
	}

	appUI := ui.New(manager, estimator, profiles, instructions)
	relay.Bind(appUI)
	changeMu.Lock()
	onChange = appUI.NotifyChainChanged
	changeMu.Unlock()

	// Context-window limits arrive asynchronously; profiles stay unavailable
	// until the model list loads.
	if deps.Client != nil {
		go func() {
			if err := deps.Registry.Refresh(ctx, deps.Client); err != nil {
				deps.Logger.Warn("model list refresh failed", zap.Error(err))
				return
			}
			appUI.NotifyChainChanged(chain.Top())
		}()
	}

	if err := appUI.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running UI: %v\n", err)
		os.Exit(1)
	}
}
