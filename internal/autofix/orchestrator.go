// internal/autofix/orchestrator.go
package autofix

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/remedy/api/schemas"
	"github.com/xkilldash9x/remedy/internal/cache"
	"github.com/xkilldash9x/remedy/internal/config"
)

// Orchestrator drives a request from classification to a ranked, validated
// and cached result.
type Orchestrator struct {
	logger     *zap.Logger
	classifier ClassifierInterface
	inference  schemas.InferenceService
	cache      CacheInterface
	cfg        config.AutofixConfig
	now        func() time.Time
}

var _ FixerInterface = (*Orchestrator)(nil)

// NewOrchestrator wires the pipeline. resultCache may be nil to disable
// caching.
func NewOrchestrator(
	logger *zap.Logger,
	classifier ClassifierInterface,
	inference schemas.InferenceService,
	resultCache CacheInterface,
	cfg config.AutofixConfig,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &Orchestrator{
		logger:     logger.Named("autofix"),
		classifier: classifier,
		inference:  inference,
		cache:      resultCache,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Fix runs the full pipeline for a single request.
func (o *Orchestrator) Fix(ctx context.Context, req schemas.ErrorFixRequest) (*schemas.RankedFixResult, error) {
	start := o.now()
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	req = req.Normalized()

	// 1. Serve validated results from the cache verbatim.
	key := cache.RequestKey(req)
	if o.cache != nil {
		if cached, ok := o.cache.Get(ctx, key); ok {
			o.logger.Debug("Serving fix from cache.", zap.String("key", key))
			return cached, nil
		}
	}

	requestID := uuid.NewString()
	logger := o.logger.With(zap.String("request_id", requestID), zap.String("language", req.Language))
	logger.Info("Starting fix pipeline.")

	// 2. Classify and generate candidates, falling back to templates.
	analysis := o.classifier.Classify(ctx, req)
	candidates, degraded := o.generate(ctx, logger, req, analysis)

	// 3. Screen each candidate independently.
	ranked := make([]schemas.RankedFix, 0, len(candidates))
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate.FixedCode) == "" {
			continue
		}
		fix, ok := o.screen(ctx, logger, req, candidate)
		degraded = degraded || !ok
		ranked = append(ranked, fix)
	}

	if len(ranked) == 0 {
		logger.Warn("No candidate carried fixed code.", zap.Int("candidates", len(candidates)))
		return o.failure(req, &analysis, requestID, start, degraded), nil
	}

	// 4. Rank and pick the recommendation.
	Rank(ranked)
	top := ranked[0]

	// 5. Authoritative validation of the recommendation with the test cases.
	validated, ok := o.authoritative(ctx, logger, req, top)
	degraded = degraded || !ok

	result := &schemas.RankedFixResult{
		Success:        true,
		OriginalError:  req.ErrorMessage,
		Analysis:       &analysis,
		RecommendedFix: &top,
		Fixes:          ranked,
		IsValidated:    validated,
		Degraded:       degraded,
		Metadata:       o.metadata(requestID, start, top.Confidence, len(ranked)-1),
	}
	if !validated {
		result.Details = DetailNotValidated
	}

	// 6. Only authoritative validations are worth remembering.
	if validated && o.cache != nil {
		if err := o.cache.Set(ctx, key, result, o.cfg.CacheTTL); err != nil {
			logger.Warn("Failed to cache fix result.", zap.Error(err))
		}
	}

	logger.Info("Fix pipeline complete.",
		zap.Bool("validated", validated),
		zap.Bool("degraded", degraded),
		zap.Int("candidates", len(ranked)),
		zap.Float64("rank_score", top.RankScore),
	)
	return result, nil
}

// QuickFix asks for a single suggestion and skips validation and caching.
func (o *Orchestrator) QuickFix(ctx context.Context, req schemas.ErrorFixRequest) (*schemas.RankedFixResult, error) {
	start := o.now()
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	req = req.Normalized()

	requestID := uuid.NewString()
	logger := o.logger.With(zap.String("request_id", requestID), zap.String("language", req.Language))

	analysis := o.classifier.Classify(ctx, req)

	var (
		candidates []schemas.CodeFix
		err        error
	)
	if quick, ok := o.inference.(schemas.QuickFixGenerator); ok {
		var fix *schemas.CodeFix
		if fix, err = quick.GenerateQuickFix(ctx, req, analysis); err == nil && fix != nil {
			candidates = []schemas.CodeFix{*fix}
		}
	} else {
		candidates, err = o.inference.GenerateFixes(ctx, req, analysis)
	}

	degraded := false
	if err != nil || len(candidates) == 0 {
		logger.Warn("Quick fix generation failed, using fallback template.", zap.Error(err))
		candidates = []schemas.CodeFix{fallbackFix(req, analysis, o.cfg.FallbackConfidence)}
		degraded = true
	}

	ranked := make([]schemas.RankedFix, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.FixedCode) == "" {
			continue
		}
		ranked = append(ranked, schemas.RankedFix{CodeFix: c, ValidationDetails: DetailQuickUnverified})
	}
	if len(ranked) == 0 {
		return o.failure(req, &analysis, requestID, start, degraded), nil
	}

	rankByConfidence(ranked)
	top := ranked[0]
	return &schemas.RankedFixResult{
		Success:        true,
		OriginalError:  req.ErrorMessage,
		Analysis:       &analysis,
		RecommendedFix: &top,
		Fixes:          ranked,
		Degraded:       degraded,
		Details:        DetailQuickUnverified,
		Metadata:       o.metadata(requestID, start, top.Confidence, len(ranked)-1),
	}, nil
}

// Validate checks a fix directly. Inference failures degrade to an invalid
// verdict with zero confidence.
func (o *Orchestrator) Validate(ctx context.Context, in schemas.ValidationInput) (*schemas.ValidationResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	in.Language = schemas.NormalizeLanguage(in.Language)

	res, err := o.inference.ValidateFix(ctx, in)
	if err != nil {
		o.logger.Warn("Validation unavailable.", zap.Error(err))
		return &schemas.ValidationResult{
			IsValid:         false,
			Confidence:      0,
			Explanation:     detailUnavailable + err.Error(),
			PotentialIssues: []string{},
		}, nil
	}
	return res, nil
}

func (o *Orchestrator) generate(ctx context.Context, logger *zap.Logger, req schemas.ErrorFixRequest, analysis schemas.ErrorAnalysis) ([]schemas.CodeFix, bool) {
	candidates, err := o.inference.GenerateFixes(ctx, req, analysis)
	if err == nil && len(candidates) > 0 {
		return candidates, false
	}
	logger.Warn("Fix generation failed, using fallback template.",
		zap.Error(err),
		zap.String("type", string(analysis.Type)),
	)
	return []schemas.CodeFix{fallbackFix(req, analysis, o.cfg.FallbackConfidence)}, true
}

// screen validates one candidate. ok is false when the validator itself
// failed, as opposed to rejecting the fix.
func (o *Orchestrator) screen(ctx context.Context, logger *zap.Logger, req schemas.ErrorFixRequest, fix schemas.CodeFix) (schemas.RankedFix, bool) {
	ranked := schemas.RankedFix{CodeFix: fix}

	res, err := o.inference.ValidateFix(ctx, schemas.ValidationInput{
		OriginalCode:  req.Code,
		FixedCode:     fix.FixedCode,
		Language:      req.Language,
		OriginalError: req.ErrorMessage,
	})
	if err != nil {
		logger.Warn("Candidate validation failed.", zap.String("title", fix.Title), zap.Error(err))
		ranked.ValidationDetails = detailCandidateFailed + err.Error()
		return ranked, false
	}

	ranked.IsValidated = res.IsValid
	if res.IsValid {
		ranked.ValidationScore = res.Confidence
	}
	ranked.ValidationDetails = res.Explanation
	return ranked, true
}

func (o *Orchestrator) authoritative(ctx context.Context, logger *zap.Logger, req schemas.ErrorFixRequest, top schemas.RankedFix) (validated, ok bool) {
	res, err := o.inference.ValidateFix(ctx, schemas.ValidationInput{
		OriginalCode:  req.Code,
		FixedCode:     top.FixedCode,
		Language:      req.Language,
		OriginalError: req.ErrorMessage,
		TestCases:     req.TestCases,
	})
	if err != nil {
		logger.Warn("Authoritative validation failed.", zap.Error(err))
		return false, false
	}
	return res.IsValid, true
}

func (o *Orchestrator) failure(req schemas.ErrorFixRequest, analysis *schemas.ErrorAnalysis, requestID string, start time.Time, degraded bool) *schemas.RankedFixResult {
	return &schemas.RankedFixResult{
		Success:       false,
		OriginalError: req.ErrorMessage,
		Analysis:      analysis,
		Fixes:         []schemas.RankedFix{},
		Degraded:      degraded,
		Details:       DetailNoValidFixes,
		Metadata:      o.metadata(requestID, start, 0, 0),
	}
}

func (o *Orchestrator) metadata(requestID string, start time.Time, confidence float64, alternatives int) schemas.ResultMetadata {
	now := o.now()
	return schemas.ResultMetadata{
		RequestID:        requestID,
		ProcessingTimeMs: now.Sub(start).Milliseconds(),
		Confidence:       confidence,
		Alternatives:     alternatives,
		GeneratedAt:      now.UTC(),
	}
}
