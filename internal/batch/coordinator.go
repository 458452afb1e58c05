// internal/batch/coordinator.go
package batch

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/remedy/api/schemas"
	"github.com/xkilldash9x/remedy/internal/autofix"
	"github.com/xkilldash9x/remedy/internal/config"
)

// Priority selectors accepted by FixAll.
const (
	PrioritySeverity     = "severity"
	PriorityFrequency    = "frequency"
	PriorityDependencies = "dependencies"
	PriorityComplexity   = "complexity"
)

const defaultBatchSize = 5

// Coordinator fixes many errors in prioritized, bounded-width slices.
type Coordinator struct {
	logger *zap.Logger
	fixer  autofix.FixerInterface
	cfg    config.BatchConfig
}

// NewCoordinator creates a coordinator. A non-positive batch size selects 5.
func NewCoordinator(logger *zap.Logger, fixer autofix.FixerInterface, cfg config.BatchConfig) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Size <= 0 {
		cfg.Size = defaultBatchSize
	}
	if cfg.PrioritizeBy == "" {
		cfg.PrioritizeBy = PrioritySeverity
	}
	return &Coordinator{
		logger: logger.Named("batch"),
		fixer:  fixer,
		cfg:    cfg,
	}
}

type outcome struct {
	result *schemas.RankedFixResult
	reason string
}

// FixAll runs every item to a terminal state. A failing item never cancels
// its siblings. An empty prioritizeBy uses the configured default.
func (c *Coordinator) FixAll(ctx context.Context, items []schemas.BatchItem, prioritizeBy string) *schemas.BatchResult {
	if prioritizeBy == "" {
		prioritizeBy = c.cfg.PrioritizeBy
	}
	batchID := uuid.NewString()
	logger := c.logger.With(zap.String("batch_id", batchID))

	ordered := slices.Clone(items)
	key := priorityKey(prioritizeBy)
	slices.SortStableFunc(ordered, func(a, b schemas.BatchItem) int {
		return key(b) - key(a)
	})

	result := &schemas.BatchResult{
		BatchID: batchID,
		Fixes:   []schemas.RankedFixResult{},
		Failed:  []schemas.BatchFailure{},
	}

	logger.Info("Starting batch fix.", zap.Int("items", len(ordered)), zap.String("prioritize_by", prioritizeBy), zap.Int("batch_size", c.cfg.Size))

	for start := 0; start < len(ordered); start += c.cfg.Size {
		chunk := ordered[start:min(start+c.cfg.Size, len(ordered))]
		outcomes := make([]outcome, len(chunk))

		// Every goroutine returns nil so the group never cancels siblings.
		var g errgroup.Group
		for i, item := range chunk {
			g.Go(func() error {
				outcomes[i] = c.fixOne(ctx, item.Request)
				return nil
			})
		}
		_ = g.Wait()

		for i, o := range outcomes {
			if o.reason != "" {
				result.Failed = append(result.Failed, schemas.BatchFailure{Request: chunk[i].Request, Reason: o.reason})
				continue
			}
			result.Fixes = append(result.Fixes, *o.result)
		}
	}

	logger.Info("Batch fix complete.", zap.Int("fixed", len(result.Fixes)), zap.Int("failed", len(result.Failed)))
	return result
}

// fixOne settles a single item. A non-empty reason marks a failure.
func (c *Coordinator) fixOne(ctx context.Context, req schemas.ErrorFixRequest) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Batch item panicked.", zap.Any("panic", r), zap.Stack("stack"))
			o = outcome{reason: fmt.Sprintf("panic: %v", r)}
		}
	}()

	res, err := c.fixer.Fix(ctx, req)
	switch {
	case err != nil:
		return outcome{reason: err.Error()}
	case res == nil:
		return outcome{reason: "fix pipeline returned no result"}
	case !res.Success:
		return outcome{reason: nonEmpty(res.Details, "fix pipeline failed")}
	case !res.IsValidated:
		return outcome{reason: nonEmpty(res.Details, autofix.DetailNotValidated)}
	case res.RecommendedFix == nil:
		return outcome{reason: "no recommended fix"}
	}
	return outcome{result: res}
}

// priorityKey returns the descending sort key for a selector. Unknown
// selectors fall back to severity.
func priorityKey(by string) func(schemas.BatchItem) int {
	switch by {
	case PriorityFrequency:
		return func(it schemas.BatchItem) int { return atLeastOne(it.Frequency) }
	case PriorityDependencies:
		return func(it schemas.BatchItem) int { return atLeastOne(it.Dependencies) }
	case PriorityComplexity:
		return func(it schemas.BatchItem) int { return it.Complexity.Weight() }
	default:
		return func(it schemas.BatchItem) int { return it.Severity.Weight() }
	}
}

func atLeastOne(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
