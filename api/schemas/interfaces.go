package schemas

import (
	"context"
)

// -- LLM Client Schemas & Interface --

// ModelTier allows for selecting a large language model based on a preference
// for speed versus advanced capabilities.
type ModelTier string

const (
	TierFast     ModelTier = "fast"     // Prefers a faster, potentially less capable model.
	TierPowerful ModelTier = "powerful" // Prefers a more capable, potentially slower model.
)

// GenerationOptions provides detailed parameters to control the text generation
// process of the LLM, such as creativity (temperature) and output format.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`       // Controls randomness. Lower is more deterministic.
	ForceJSONFormat bool    `json:"force_json_format"` // If true, forces the model to output valid JSON.
	TopP            float64 `json:"top_p"`             // Nucleus sampling parameter.
	TopK            int     `json:"top_k"`             // Top-k sampling parameter.
}

// GenerationRequest encapsulates a complete request to the LLM, including the
// system and user prompts, the desired model tier, and generation options.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"` // Instructions for the model's persona and task.
	UserPrompt   string            `json:"user_prompt"`   // The specific query or input from the user.
	Tier         ModelTier         `json:"tier"`          // The desired model tier (fast or powerful).
	Options      GenerationOptions `json:"options"`       // Advanced generation parameters.
}

// LLMClient defines a standard interface for interacting with a Large Language
// Model, abstracting the specifics of the underlying provider (e.g., Gemini).
type LLMClient interface {
	// Generate produces a text completion based on the provided request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close cleans up any resources held by the client (e.g., network connections, SDK resources).
	Close() error
}

// -- Inference Capability --

// ValidationInput carries everything the inference service needs to judge
// whether a fixed version of the code resolves the original error.
type ValidationInput struct {
	OriginalCode  string   `json:"original_code"`
	FixedCode     string   `json:"fixed_code"`
	Language      string   `json:"language"`
	OriginalError string   `json:"original_error"`
	TestCases     []string `json:"test_cases,omitempty"`
}

// FixGenerator proposes candidate fixes for a classified error. Implementations
// are best-effort and may fail or time out.
type FixGenerator interface {
	GenerateFixes(ctx context.Context, req ErrorFixRequest, analysis ErrorAnalysis) ([]CodeFix, error)
}

// FixValidator independently verifies a candidate fix against the original error.
type FixValidator interface {
	ValidateFix(ctx context.Context, in ValidationInput) (*ValidationResult, error)
}

// InferenceService is the full remote capability the pipeline depends on.
type InferenceService interface {
	FixGenerator
	FixValidator
}

// QuickFixGenerator is an optional capability for a single, low-latency fix
// suggestion. Generators that lack it fall back to GenerateFixes.
type QuickFixGenerator interface {
	GenerateQuickFix(ctx context.Context, req ErrorFixRequest, analysis ErrorAnalysis) (*CodeFix, error)
}
