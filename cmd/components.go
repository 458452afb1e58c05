// File: cmd/components.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/remedy/api/schemas"
	"github.com/xkilldash9x/remedy/internal/autofix"
	"github.com/xkilldash9x/remedy/internal/batch"
	"github.com/xkilldash9x/remedy/internal/cache"
	"github.com/xkilldash9x/remedy/internal/classifier"
	"github.com/xkilldash9x/remedy/internal/config"
	"github.com/xkilldash9x/remedy/internal/diagnostics"
	"github.com/xkilldash9x/remedy/internal/inference"
	"github.com/xkilldash9x/remedy/internal/llmclient"
	"github.com/xkilldash9x/remedy/internal/patterns"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newLLMClient is swapped out in tests.
var newLLMClient = llmclient.NewClient

// components holds the initialized fix pipeline.
type components struct {
	Catalog     *patterns.Catalog
	Classifier  *classifier.Classifier
	Diagnostics *diagnostics.Engine
	Cache       *cache.ResultCache
	Fixer       *autofix.Orchestrator
	Batch       *batch.Coordinator

	llm         schemas.LLMClient
	stopSweeper context.CancelFunc
	sweeperDone <-chan struct{}
	logger      *zap.Logger
}

// initializeComponents builds everything a fix needs. On error, whatever was
// already opened has been released.
func initializeComponents(ctx context.Context, cfg config.Interface, logger *zap.Logger) (*components, error) {
	c := &components{
		Catalog: patterns.Default(),
		logger:  logger,
	}
	c.Classifier = classifier.New(logger, c.Catalog)
	c.Diagnostics = newDiagnosticEngine(cfg, logger)

	// 1. LLM tiers
	llm, err := newLLMClient(ctx, cfg.Agent(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	c.llm = llm

	// 2. Result cache
	var resultCache autofix.CacheInterface
	if cfg.Cache().Enabled {
		rc, err := cache.Open(ctx, cfg.Cache(), logger)
		if err != nil {
			c.Shutdown()
			return nil, fmt.Errorf("failed to open result cache: %w", err)
		}
		c.Cache = rc
		resultCache = rc

		sweepCtx, cancel := context.WithCancel(context.Background())
		c.stopSweeper = cancel
		c.sweeperDone = rc.StartSweeper(sweepCtx, cfg.Cache().SweepInterval)
	} else {
		logger.Info("Result cache disabled.")
	}

	// 3. Pipeline
	svc := inference.NewService(logger, llm, cfg.Inference())
	c.Fixer = autofix.NewOrchestrator(logger, c.Classifier, svc, resultCache, cfg.Autofix())
	c.Batch = batch.NewCoordinator(logger, c.Fixer, cfg.Batch())
	return c, nil
}

// Shutdown stops the sweeper and closes the cache and LLM clients.
func (c *components) Shutdown() {
	if c.stopSweeper != nil {
		c.stopSweeper()
		<-c.sweeperDone
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.logger.Warn("Failed to close result cache.", zap.Error(err))
		}
	}
	if c.llm != nil {
		if err := c.llm.Close(); err != nil {
			c.logger.Warn("Failed to close LLM client.", zap.Error(err))
		}
	}
}

func newDiagnosticEngine(cfg config.Interface, logger *zap.Logger) *diagnostics.Engine {
	return diagnostics.NewEngine(logger, diagnostics.WithMaxLineLength(cfg.Diagnostics().MaxLineLength))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readSource reads path, or stdin when path is "-".
func readSource(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(b), nil
}
