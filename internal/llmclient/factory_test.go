package llmclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/remedy/api/schemas"
	"github.com/xkilldash9x/remedy/internal/config"
)

// -- Test Cases: Factory Initialization (NewClient) --

func TestNewClient_Success_RouterInitialization(t *testing.T) {
	logger := setupTestLogger(t)

	fastConfig := getValidLLMConfig()
	fastConfig.Model = "gemini-flash"
	fastConfig.APIKey = "key-fast"

	powerfulConfig := getValidLLMConfig()
	powerfulConfig.Model = "gemini-pro"
	powerfulConfig.APIKey = "key-powerful"

	const fastName = "FastAlias"
	const powerfulName = "PowerfulAlias"

	cfg := config.AgentConfig{
		LLM: config.LLMRouterConfig{
			DefaultFastModel:     fastName,
			DefaultPowerfulModel: powerfulName,
			Models: map[string]config.LLMModelConfig{
				fastName:     fastConfig,
				powerfulName: powerfulConfig,
			},
		},
	}

	client, err := NewClient(context.Background(), cfg, logger)
	require.NoError(t, err, "NewClient should succeed for a valid configuration")
	t.Cleanup(func() { _ = client.Close() })

	router, ok := client.(*LLMRouter)
	require.True(t, ok, "The created client should be of type *LLMRouter")

	fastClient, ok := router.clients[schemas.TierFast].(*GoogleClient)
	require.True(t, ok)
	assert.Equal(t, "gemini-flash", fastClient.config.Model)
	assert.Equal(t, "key-fast", fastClient.config.APIKey)

	powerfulClient, ok := router.clients[schemas.TierPowerful].(*GoogleClient)
	require.True(t, ok)
	assert.Equal(t, "gemini-pro", powerfulClient.config.Model)
	assert.Equal(t, "key-powerful", powerfulClient.config.APIKey)
}

func TestNewClient_DefaultConfigResolvesBothTiers(t *testing.T) {
	agentCfg := config.NewDefaultConfig().Agent()
	for name, m := range agentCfg.LLM.Models {
		m.APIKey = "test-key"
		agentCfg.LLM.Models[name] = m
	}

	client, err := NewClient(context.Background(), agentCfg, setupTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	router := client.(*LLMRouter)
	assert.Equal(t, "gemini-2.5-flash", router.clients[schemas.TierFast].(*GoogleClient).config.Model)
	assert.Equal(t, "gemini-2.5-pro", router.clients[schemas.TierPowerful].(*GoogleClient).config.Model)
}

func TestNewClient_ModelNameFallsBackToMapKey(t *testing.T) {
	modelCfg := getValidLLMConfig()
	modelCfg.Model = ""
	cfg := config.AgentConfig{LLM: config.LLMRouterConfig{
		DefaultFastModel:     "gemini-2.5-flash",
		DefaultPowerfulModel: "gemini-2.5-flash",
		Models:               map[string]config.LLMModelConfig{"gemini-2.5-flash": modelCfg},
	}}

	client, err := NewClient(context.Background(), cfg, setupTestLogger(t))
	require.NoError(t, err)

	router := client.(*LLMRouter)
	assert.Equal(t, "gemini-2.5-flash", router.clients[schemas.TierFast].(*GoogleClient).config.Model)
}

func TestNewClient_Failure_MissingConfiguration(t *testing.T) {
	validConfig := getValidLLMConfig()
	const validName = "ValidModel"

	tests := []struct {
		name          string
		routerConfig  config.LLMRouterConfig
		expectedError string
	}{
		{
			name: "Missing DefaultFastModel Name",
			routerConfig: config.LLMRouterConfig{
				DefaultPowerfulModel: validName,
				Models:               map[string]config.LLMModelConfig{validName: validConfig},
			},
			expectedError: "configuration error: DefaultFastModel is not specified in LLMRouterConfig",
		},
		{
			name: "Missing DefaultPowerfulModel Name",
			routerConfig: config.LLMRouterConfig{
				DefaultFastModel: validName,
				Models:           map[string]config.LLMModelConfig{validName: validConfig},
			},
			expectedError: "configuration error: DefaultPowerfulModel is not specified in LLMRouterConfig",
		},
		{
			name: "DefaultFastModel Not Found in Map",
			routerConfig: config.LLMRouterConfig{
				DefaultFastModel:     "MissingModel",
				DefaultPowerfulModel: validName,
				Models:               map[string]config.LLMModelConfig{validName: validConfig},
			},
			expectedError: "configuration error: DefaultFastModel 'MissingModel' not found in the models map",
		},
		{
			name: "DefaultPowerfulModel Not Found in Map",
			routerConfig: config.LLMRouterConfig{
				DefaultFastModel:     validName,
				DefaultPowerfulModel: "MissingModel",
				Models:               map[string]config.LLMModelConfig{validName: validConfig},
			},
			expectedError: "configuration error: DefaultPowerfulModel 'MissingModel' not found in the models map",
		},
		{
			name:          "Empty Router Config",
			routerConfig:  config.LLMRouterConfig{},
			expectedError: "configuration error: DefaultFastModel is not specified in LLMRouterConfig",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), config.AgentConfig{LLM: tt.routerConfig}, setupTestLogger(t))
			assert.Nil(t, client)
			assert.ErrorContains(t, err, tt.expectedError)
		})
	}
}

func TestNewClient_Failure_ProviderErrors(t *testing.T) {
	validConfig := getValidLLMConfig()

	missingKey := getValidLLMConfig()
	missingKey.APIKey = ""

	unsupported := getValidLLMConfig()
	unsupported.Provider = "unsupported-provider-xyz"

	missingProvider := getValidLLMConfig()
	missingProvider.Provider = ""

	tests := []struct {
		name     string
		fast     config.LLMModelConfig
		powerful config.LLMModelConfig
		wantErrs []string
	}{
		{
			name:     "fast client constructor error",
			fast:     missingKey,
			powerful: validConfig,
			wantErrs: []string{"failed to initialize Fast tier LLM client (Model: Fast):", "Google/Gemini API Key is required"},
		},
		{
			name:     "unsupported powerful provider",
			fast:     validConfig,
			powerful: unsupported,
			wantErrs: []string{
				"failed to initialize Powerful tier LLM client (Model: Powerful):",
				"unknown or unsupported LLM provider configured: 'unsupported-provider-xyz'",
				string(config.ProviderGemini),
			},
		},
		{
			name:     "missing provider field",
			fast:     missingProvider,
			powerful: validConfig,
			wantErrs: []string{"failed to initialize Fast tier LLM client (Model: Fast):", "LLM provider is not specified in the model configuration"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.AgentConfig{LLM: config.LLMRouterConfig{
				DefaultFastModel:     "Fast",
				DefaultPowerfulModel: "Powerful",
				Models:               map[string]config.LLMModelConfig{"Fast": tt.fast, "Powerful": tt.powerful},
			}}
			client, err := NewClient(context.Background(), cfg, setupTestLogger(t))
			assert.Nil(t, client)
			require.Error(t, err)
			for _, want := range tt.wantErrs {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}
