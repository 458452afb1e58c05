// internal/inference/service.go
package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/remedy/api/schemas"
	"github.com/xkilldash9x/remedy/internal/config"
	"github.com/xkilldash9x/remedy/internal/llmutil"
)

// ErrEmptyResponse is returned when the model produced parsable JSON without
// any usable content.
var ErrEmptyResponse = errors.New("inference response contained no results")

// Service implements the inference capability on top of an LLM client.
type Service struct {
	logger  *zap.Logger
	llm     schemas.LLMClient
	cfg     config.InferenceConfig
	limiter *rate.Limiter
}

var (
	_ schemas.InferenceService  = (*Service)(nil)
	_ schemas.QuickFixGenerator = (*Service)(nil)
)

// NewService wraps an LLM client. A positive RateLimit bounds outbound calls
// across every method.
func NewService(logger *zap.Logger, llm schemas.LLMClient, cfg config.InferenceConfig) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 3
	}
	s := &Service{
		logger: logger.Named("inference"),
		llm:    llm,
		cfg:    cfg,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return s
}

type fixResponse struct {
	Fixes []schemas.CodeFix `json:"fixes"`
}

// GenerateFixes asks the powerful tier for up to MaxCandidates fixes.
func (s *Service) GenerateFixes(ctx context.Context, req schemas.ErrorFixRequest, analysis schemas.ErrorAnalysis) ([]schemas.CodeFix, error) {
	fixes, err := s.generate(ctx, req, analysis, schemas.TierPowerful, s.cfg.MaxCandidates)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Fix candidates generated.", zap.Int("count", len(fixes)), zap.String("type", string(analysis.Type)))
	return fixes, nil
}

// GenerateQuickFix asks the fast tier for a single fix.
func (s *Service) GenerateQuickFix(ctx context.Context, req schemas.ErrorFixRequest, analysis schemas.ErrorAnalysis) (*schemas.CodeFix, error) {
	fixes, err := s.generate(ctx, req, analysis, schemas.TierFast, 1)
	if err != nil {
		return nil, err
	}
	return &fixes[0], nil
}

func (s *Service) generate(ctx context.Context, req schemas.ErrorFixRequest, analysis schemas.ErrorAnalysis, tier schemas.ModelTier, limit int) ([]schemas.CodeFix, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.GenerateTimeout)
	defer cancel()

	response, err := s.call(ctx, schemas.GenerationRequest{
		SystemPrompt: generateSystemPrompt,
		UserPrompt:   buildFixPrompt(req, analysis, limit),
		Tier:         tier,
		Options: schemas.GenerationOptions{
			ForceJSONFormat: true,
			Temperature:     0.2,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fix generation failed: %w", err)
	}

	fixes, err := parseFixes(response)
	if err != nil {
		s.logger.Error("Failed to parse LLM response.", zap.Error(err), zap.Int("response_bytes", len(response)))
		return nil, fmt.Errorf("fix generation failed: %w", err)
	}

	if len(fixes) > limit {
		fixes = fixes[:limit]
	}
	for i := range fixes {
		fixes[i] = s.sanitizeFix(fixes[i], analysis)
	}
	return fixes, nil
}

// parseFixes accepts either {"fixes":[...]} or a bare array of fixes.
func parseFixes(response string) ([]schemas.CodeFix, error) {
	if strings.HasPrefix(llmutil.ExtractJSON(response), "[") {
		list, err := llmutil.ParseJSONResponse[[]schemas.CodeFix](response)
		if err != nil {
			return nil, err
		}
		if len(*list) == 0 {
			return nil, ErrEmptyResponse
		}
		return *list, nil
	}
	parsed, err := llmutil.ParseJSONResponse[fixResponse](response)
	if err != nil {
		return nil, err
	}
	if len(parsed.Fixes) == 0 {
		return nil, ErrEmptyResponse
	}
	return parsed.Fixes, nil
}

func (s *Service) sanitizeFix(fix schemas.CodeFix, analysis schemas.ErrorAnalysis) schemas.CodeFix {
	fix.FixedCode = llmutil.CleanCodeOutput(fix.FixedCode)
	if fix.Confidence < 0.0 || fix.Confidence > 1.0 {
		s.logger.Warn("Invalid confidence score received, clamping to range.", zap.Float64("received_confidence", fix.Confidence))
		fix.Confidence = clamp(fix.Confidence)
	}
	if fix.Category == "" {
		fix.Category = analysis.Category
	}
	if fix.Changes == nil {
		fix.Changes = []schemas.CodeChange{}
	}
	return fix
}

// ValidateFix asks the powerful tier whether in.FixedCode resolves the error.
func (s *Service) ValidateFix(ctx context.Context, in schemas.ValidationInput) (*schemas.ValidationResult, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.ValidateTimeout)
	defer cancel()

	response, err := s.call(ctx, schemas.GenerationRequest{
		SystemPrompt: validateSystemPrompt,
		UserPrompt:   buildValidationPrompt(in),
		Tier:         schemas.TierPowerful,
		Options: schemas.GenerationOptions{
			ForceJSONFormat: true,
			Temperature:     0.1, // High precision required for verdicts.
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fix validation failed: %w", err)
	}

	result, err := llmutil.ParseJSONResponse[schemas.ValidationResult](response)
	if err != nil {
		s.logger.Error("Failed to parse LLM response.", zap.Error(err), zap.Int("response_bytes", len(response)))
		return nil, fmt.Errorf("fix validation failed: %w", err)
	}

	result.Confidence = clamp(result.Confidence)
	if result.PotentialIssues == nil {
		result.PotentialIssues = []string{}
	}
	s.logger.Debug("Fix validated.", zap.Bool("valid", result.IsValid), zap.Float64("confidence", result.Confidence))
	return result, nil
}

func (s *Service) call(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}
	return s.llm.Generate(ctx, req)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func clamp(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
