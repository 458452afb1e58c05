// internal/mcp/tools.go
package mcp

import (
	"context"
	"fmt"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/remedy/api/schemas"
	"github.com/xkilldash9x/remedy/internal/patterns"
)

// Tool names.
const (
	ToolDiagnose        = "diagnose"
	ToolAutoFix         = "auto_fix"
	ToolQuickFix        = "quick_fix"
	ToolBatchFix        = "batch_fix"
	ToolValidateFix     = "validate_fix"
	ToolPatternAnalysis = "pattern_analysis"
)

type toolFunc func(ctx context.Context, args map[string]any) (any, error)

func (s *Server) registerTools() {
	s.addTool(ToolDiagnose,
		"Run static checks over source code. Arguments: code, language, optional checkTypes (syntax, semantic, style, security, performance, all).",
		s.handleDiagnose)
	s.addTool(ToolAutoFix,
		"Classify an error, generate candidate fixes, validate and rank them. Arguments: errorMessage, code, language, optional filePath, lineNumber, stackTrace, context, testCases.",
		s.handleAutoFix)
	s.addTool(ToolQuickFix,
		"Return a single fast, unvalidated fix suggestion. Same arguments as auto_fix.",
		s.handleQuickFix)
	s.addTool(ToolBatchFix,
		"Fix many errors in priority order. Arguments: errors (array of auto_fix arguments, each optionally with severity, frequency, dependencies, complexity), optional prioritizeBy.",
		s.handleBatchFix)
	s.addTool(ToolValidateFix,
		"Check whether fixed code resolves the original error. Arguments: originalCode, fixedCode, language, originalError, optional testCases.",
		s.handleValidateFix)
	s.addTool(ToolPatternAnalysis,
		"Match an error message against the known error pattern catalog. Arguments: errorMessage, language.",
		s.handlePatternAnalysis)
}

// addTool registers fn with call logging. Returned errors become tool
// errors on the wire.
func (s *Server) addTool(name, description string, fn toolFunc) {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, args map[string]any) (*sdkmcp.CallToolResult, any, error) {
			start := time.Now()
			out, err := fn(ctx, args)
			if err != nil {
				s.logger.Warn("Tool call failed.", zap.String("tool", name), zap.Duration("duration", time.Since(start)), zap.Error(err))
				return nil, nil, err
			}
			s.logger.Info("Tool call complete.", zap.String("tool", name), zap.Duration("duration", time.Since(start)))
			return nil, out, nil
		})
}

type diagnoseArgs struct {
	Code       string   `mapstructure:"code"`
	Language   string   `mapstructure:"language"`
	CheckTypes []string `mapstructure:"checkTypes"`
}

type diagnoseResult struct {
	Language    string               `json:"language"`
	Diagnostics []schemas.Diagnostic `json:"diagnostics"`
	Count       int                  `json:"count"`
}

func (s *Server) handleDiagnose(_ context.Context, args map[string]any) (any, error) {
	if err := requireStrings(args, "code", "language"); err != nil {
		return nil, err
	}
	in, err := mapToStruct[diagnoseArgs](args)
	if err != nil {
		return nil, err
	}
	if len(in.CheckTypes) == 0 {
		in.CheckTypes = s.deps.DefaultChecks
	}

	lang := schemas.NormalizeLanguage(in.Language)
	diags := s.deps.Diagnostics.Analyze(in.Code, lang, in.CheckTypes)
	if diags == nil {
		diags = []schemas.Diagnostic{}
	}
	return &diagnoseResult{Language: lang, Diagnostics: diags, Count: len(diags)}, nil
}

var fixRequired = []string{"errorMessage", "code", "language"}

func decodeFixRequest(args map[string]any) (schemas.ErrorFixRequest, error) {
	if err := requireStrings(args, fixRequired...); err != nil {
		return schemas.ErrorFixRequest{}, err
	}
	return mapToStruct[schemas.ErrorFixRequest](args)
}

func (s *Server) handleAutoFix(ctx context.Context, args map[string]any) (any, error) {
	req, err := decodeFixRequest(args)
	if err != nil {
		return nil, err
	}
	return s.deps.Fixer.Fix(ctx, req)
}

func (s *Server) handleQuickFix(ctx context.Context, args map[string]any) (any, error) {
	req, err := decodeFixRequest(args)
	if err != nil {
		return nil, err
	}
	return s.deps.Fixer.QuickFix(ctx, req)
}

// batchEntry is the flat wire form of a batch item.
type batchEntry struct {
	schemas.ErrorFixRequest `mapstructure:",squash"`
	Severity                schemas.Severity   `mapstructure:"severity"`
	Frequency               int                `mapstructure:"frequency"`
	Dependencies            int                `mapstructure:"dependencies"`
	Complexity              schemas.Complexity `mapstructure:"complexity"`
}

func (s *Server) handleBatchFix(ctx context.Context, args map[string]any) (any, error) {
	raw, ok := args["errors"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: 'errors' must be an array of error objects", ErrInvalidArgument)
	}
	prioritizeBy := ""
	if v, present := args["prioritizeBy"]; present && v != nil {
		if prioritizeBy, ok = v.(string); !ok {
			return nil, fmt.Errorf("%w: field 'prioritizeBy' must be a string, got %T", ErrInvalidArgument, v)
		}
	}

	items := make([]schemas.BatchItem, 0, len(raw))
	for i, r := range raw {
		entryArgs, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: errors[%d] must be an object", ErrInvalidArgument, i)
		}
		if err := requireStrings(entryArgs, fixRequired...); err != nil {
			return nil, fmt.Errorf("errors[%d]: %w", i, err)
		}
		entry, err := mapToStruct[batchEntry](entryArgs)
		if err != nil {
			return nil, fmt.Errorf("errors[%d]: %w", i, err)
		}
		items = append(items, schemas.BatchItem{
			Request:      entry.ErrorFixRequest,
			Severity:     entry.Severity,
			Frequency:    entry.Frequency,
			Dependencies: entry.Dependencies,
			Complexity:   entry.Complexity,
		})
	}
	return s.deps.Batch.FixAll(ctx, items, prioritizeBy), nil
}

type validateArgs struct {
	OriginalCode  string   `mapstructure:"originalCode"`
	FixedCode     string   `mapstructure:"fixedCode"`
	Language      string   `mapstructure:"language"`
	OriginalError string   `mapstructure:"originalError"`
	TestCases     []string `mapstructure:"testCases"`
}

func (s *Server) handleValidateFix(ctx context.Context, args map[string]any) (any, error) {
	if err := requireStrings(args, "originalCode", "fixedCode", "language", "originalError"); err != nil {
		return nil, err
	}
	in, err := mapToStruct[validateArgs](args)
	if err != nil {
		return nil, err
	}
	return s.deps.Fixer.Validate(ctx, schemas.ValidationInput{
		OriginalCode:  in.OriginalCode,
		FixedCode:     in.FixedCode,
		Language:      in.Language,
		OriginalError: in.OriginalError,
		TestCases:     in.TestCases,
	})
}

type patternResult struct {
	Language           string             `json:"language"`
	Matched            bool               `json:"matched"`
	Primary            *patterns.Pattern  `json:"primary,omitempty"`
	Matches            []patterns.Pattern `json:"matches"`
	RuleCount          int                `json:"ruleCount"`
	SupportedLanguages []string           `json:"supportedLanguages"`
}

func (s *Server) handlePatternAnalysis(_ context.Context, args map[string]any) (any, error) {
	if err := requireStrings(args, "errorMessage", "language"); err != nil {
		return nil, err
	}
	message, _ := args["errorMessage"].(string)
	lang := schemas.NormalizeLanguage(args["language"].(string))

	matches := s.deps.Catalog.MatchAll(message, lang)
	if matches == nil {
		matches = []patterns.Pattern{}
	}
	return &patternResult{
		Language:           lang,
		Matched:            len(matches) > 0,
		Primary:            s.deps.Catalog.Match(message, lang),
		Matches:            matches,
		RuleCount:          len(s.deps.Catalog.Rules(lang)),
		SupportedLanguages: s.deps.Catalog.Languages(),
	}, nil
}
