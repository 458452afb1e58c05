package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"

	"github.com/xkilldash9x/remedy/api/schemas"
)

// -- Test Setup Helpers --

// setupGeminiClient points a GoogleClient at a mock HTTP server and swaps in
// a fast retry policy.
func setupGeminiClient(t *testing.T, handler http.HandlerFunc) (*GoogleClient, *httptest.Server, *observer.ObservedLogs) {
	t.Helper()
	if handler == nil {
		handler = func(w http.ResponseWriter, r *http.Request) {
			t.Log("Warning: Unexpected HTTP request in test.")
			w.WriteHeader(http.StatusNotFound)
		}
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	loggerCore, observedLogs := observer.New(zap.InfoLevel)
	cfg := getValidLLMConfig()
	cfg.Endpoint = server.URL

	client, err := NewGoogleClient(context.Background(), cfg, zap.New(loggerCore))
	require.NoError(t, err, "NewGoogleClient initialization failed")

	client.backoffFactory = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 5 * time.Millisecond
		b.MaxInterval = 20 * time.Millisecond
		b.MaxElapsedTime = 500 * time.Millisecond
		return b
	}
	return client, server, observedLogs
}

func createTestRequest() schemas.GenerationRequest {
	return schemas.GenerationRequest{
		SystemPrompt: "System prompt instructions.",
		UserPrompt:   "User query.",
		Options:      schemas.GenerationOptions{Temperature: 0.5},
	}
}

func writeCandidate(w http.ResponseWriter, text, finishReason string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}},
			"finishReason": finishReason,
		}},
		"usageMetadata": map[string]any{
			"promptTokenCount":     100,
			"candidatesTokenCount": 50,
			"totalTokenCount":      150,
		},
	})
}

func writeAPIError(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": "simulated failure", "status": status},
	})
}

// -- Test Cases: Initialization --

func TestNewGoogleClient_Success(t *testing.T) {
	cfg := getValidLLMConfig()

	client, err := NewGoogleClient(context.Background(), cfg, setupTestLogger(t))

	require.NoError(t, err)
	require.NotNil(t, client)
	assert.NotNil(t, client.client, "SDK client should be initialized")
	assert.Equal(t, cfg.APITimeout, client.httpClient.Timeout)
	assert.NotNil(t, client.backoffFactory, "Backoff factory should be initialized")
	assert.NoError(t, client.Close())
}

func TestNewGoogleClient_Failure(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		cfg := getValidLLMConfig()
		cfg.APIKey = ""
		client, err := NewGoogleClient(context.Background(), cfg, setupTestLogger(t))
		assert.Nil(t, client)
		assert.ErrorContains(t, err, "Google/Gemini API Key is required")
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := getValidLLMConfig()
		cfg.Model = ""
		client, err := NewGoogleClient(context.Background(), cfg, setupTestLogger(t))
		assert.Nil(t, client)
		assert.ErrorContains(t, err, "model name is required")
	})
}

// -- Test Cases: Request Payload Generation --

func TestBuildRequestPayload_Standard(t *testing.T) {
	client, _, _ := setupGeminiClient(t, nil)
	client.config.MaxTokens = 2048
	client.config.SafetyFilters = map[string]string{
		"harm_category_harassment":        "block_none",
		"harm_category_dangerous_content": "block_only_high",
	}

	contents, genCfg := client.buildRequestPayload(createTestRequest())

	require.Len(t, contents, 1)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, "User query.", contents[0].Parts[0].Text)
	require.NotNil(t, genCfg.SystemInstruction)
	assert.Equal(t, "System prompt instructions.", genCfg.SystemInstruction.Parts[0].Text)

	require.NotNil(t, genCfg.Temperature)
	assert.Equal(t, float32(0.5), *genCfg.Temperature, "request temperature wins over config")
	require.NotNil(t, genCfg.TopP)
	assert.Equal(t, float32(0.9), *genCfg.TopP)
	require.NotNil(t, genCfg.TopK)
	assert.Equal(t, float32(50), *genCfg.TopK)
	assert.Equal(t, int32(2048), genCfg.MaxOutputTokens)
	assert.Empty(t, genCfg.ResponseMIMEType)

	// Sorted by category and upper-cased.
	require.Len(t, genCfg.SafetySettings, 2)
	assert.Equal(t, genai.HarmCategory("HARM_CATEGORY_DANGEROUS_CONTENT"), genCfg.SafetySettings[0].Category)
	assert.Equal(t, genai.HarmBlockThreshold("BLOCK_ONLY_HIGH"), genCfg.SafetySettings[0].Threshold)
	assert.Equal(t, genai.HarmCategory("HARM_CATEGORY_HARASSMENT"), genCfg.SafetySettings[1].Category)
}

func TestBuildRequestPayload_Overrides(t *testing.T) {
	client, _, _ := setupGeminiClient(t, nil)

	req := createTestRequest()
	req.SystemPrompt = ""
	req.Options = schemas.GenerationOptions{ForceJSONFormat: true, TopP: 0.5, TopK: 5}

	_, genCfg := client.buildRequestPayload(req)

	assert.Nil(t, genCfg.SystemInstruction)
	assert.Equal(t, float32(0.7), *genCfg.Temperature, "config temperature used when unset")
	assert.Equal(t, float32(0.5), *genCfg.TopP)
	assert.Equal(t, float32(5), *genCfg.TopK)
	assert.Equal(t, "application/json", genCfg.ResponseMIMEType)
	assert.Nil(t, genCfg.SafetySettings)
}

// -- Test Cases: Generate --

func TestGenerate_Success(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/test-model:generateContent"), r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("x-goog-api-key"))

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "User query.")
		assert.Contains(t, string(body), "System prompt instructions.")

		writeCandidate(w, "This is the generated content.", "STOP")
	}
	client, _, observedLogs := setupGeminiClient(t, handler)

	response, err := client.Generate(context.Background(), createTestRequest())

	require.NoError(t, err)
	assert.Equal(t, "This is the generated content.", response)

	logs := observedLogs.FilterMessage("LLM generation complete (Gemini)")
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, int64(100), fields["prompt_tokens"])
	assert.Equal(t, int64(50), fields["completion_tokens"])
	assert.Equal(t, int64(150), fields["total_tokens"])
	assert.NotNil(t, fields["duration"])
}

func TestGenerate_RetryOnTransientErrors(t *testing.T) {
	var attempts int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			writeAPIError(w, http.StatusServiceUnavailable, "UNAVAILABLE")
			return
		}
		writeCandidate(w, "Success after retry", "STOP")
	}
	client, _, observedLogs := setupGeminiClient(t, handler)

	response, err := client.Generate(context.Background(), createTestRequest())

	require.NoError(t, err)
	assert.Equal(t, "Success after retry", response)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&attempts), int32(3))
	assert.GreaterOrEqual(t, observedLogs.FilterMessage("Gemini API returned error status").Len(), 1)
}

func TestGenerate_RetryOnNetworkError(t *testing.T) {
	client, server, observedLogs := setupGeminiClient(t, nil)
	server.Close()

	_, err := client.Generate(context.Background(), createTestRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini request failed")
	assert.GreaterOrEqual(t, observedLogs.FilterMessage("Network error during LLM request, retrying...").Len(), 2,
		"network failures are retried")
}

func TestGenerate_NoRetryOnPermanentErrors(t *testing.T) {
	var attempts int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		writeAPIError(w, http.StatusBadRequest, "INVALID_ARGUMENT")
	}
	client, _, _ := setupGeminiClient(t, handler)

	_, err := client.Generate(context.Background(), createTestRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestGenerate_Failure_SafetyBlock(t *testing.T) {
	var attempts int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"finishReason":"SAFETY"}]}`))
	}
	client, _, _ := setupGeminiClient(t, handler)

	_, err := client.Generate(context.Background(), createTestRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked the request (Reason: SAFETY)")
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestGenerate_Failure_EmptyContentIsRetried(t *testing.T) {
	var attempts int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		writeCandidate(w, "", "STOP")
	}
	client, _, _ := setupGeminiClient(t, handler)

	_, err := client.Generate(context.Background(), createTestRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty content parts")
	assert.GreaterOrEqual(t, atomic.LoadInt32(&attempts), int32(2))
}

func TestGenerate_Failure_NoCandidates(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}
	client, _, _ := setupGeminiClient(t, handler)

	_, err := client.Generate(context.Background(), createTestRequest())

	assert.ErrorContains(t, err, "no candidates")
}

func TestGenerate_ContextCancellation(t *testing.T) {
	// The server may never observe the client hanging up, so the handler is
	// released explicitly before server.Close runs.
	release := make(chan struct{})
	handler := func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}
	client, server, _ := setupGeminiClient(t, handler)
	t.Cleanup(func() {
		close(release)
		server.CloseClientConnections()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Generate(ctx, createTestRequest())

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Less(t, time.Since(start), 2*time.Second, "Generate must return once the context expires")
}
