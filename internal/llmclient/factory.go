// internal/llmclient/factory.go
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/remedy/api/schemas"
	"github.com/xkilldash9x/remedy/internal/config"
)

// NewClient builds the tier router described by the agent configuration.
// Both default models must name entries in the models map.
func NewClient(ctx context.Context, cfg config.AgentConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	routerCfg := cfg.LLM

	// 1. Resolve both tiers before creating anything.
	fastCfg, err := lookupModel(routerCfg, "DefaultFastModel", routerCfg.DefaultFastModel)
	if err != nil {
		return nil, err
	}
	powerfulCfg, err := lookupModel(routerCfg, "DefaultPowerfulModel", routerCfg.DefaultPowerfulModel)
	if err != nil {
		return nil, err
	}

	// 2. Instantiate the provider clients.
	fast, err := newProviderClient(ctx, fastCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Fast tier LLM client (Model: %s): %w", routerCfg.DefaultFastModel, err)
	}
	powerful, err := newProviderClient(ctx, powerfulCfg, logger)
	if err != nil {
		_ = fast.Close()
		return nil, fmt.Errorf("failed to initialize Powerful tier LLM client (Model: %s): %w", routerCfg.DefaultPowerfulModel, err)
	}

	// 3. Route between them.
	return NewLLMRouter(logger, fast, powerful)
}

func lookupModel(routerCfg config.LLMRouterConfig, field, name string) (config.LLMModelConfig, error) {
	if name == "" {
		return config.LLMModelConfig{}, fmt.Errorf("configuration error: %s is not specified in LLMRouterConfig", field)
	}
	modelCfg, ok := routerCfg.Models[name]
	if !ok {
		return config.LLMModelConfig{}, fmt.Errorf("configuration error: %s '%s' not found in the models map", field, name)
	}
	if modelCfg.Model == "" {
		// The map key doubles as the model name.
		modelCfg.Model = name
	}
	return modelCfg, nil
}

func newProviderClient(ctx context.Context, modelCfg config.LLMModelConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	switch modelCfg.Provider {
	case config.ProviderGemini:
		client, err := NewGoogleClient(ctx, modelCfg, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "":
		return nil, fmt.Errorf("LLM provider is not specified in the model configuration")
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s]", modelCfg.Provider, config.ProviderGemini)
	}
}
