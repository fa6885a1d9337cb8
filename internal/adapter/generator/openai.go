package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"groundqa/config"
	"groundqa/internal/domain"
)

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAIGenerator answers questions through any OpenAI-compatible chat
// endpoint (OpenAI, Ollama, vLLM). Calls pass a rate limiter and a circuit
// breaker; the model name is checked against the provider's model list.
type OpenAIGenerator struct {
	client      *openai.LLM
	models      *ModelCache
	breaker     *gobreaker.CircuitBreaker
	limiter     *rate.Limiter
	model       string
	temperature float64
	logger      *slog.Logger
}

// NewOpenAIGenerator builds a generator from cfg. The API key is read from
// the variable named by cfg.APIKeyEnv; local endpoints work without one.
func NewOpenAIGenerator(cfg config.GeneratorConfig, logger *slog.Logger) (*OpenAIGenerator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		if baseURL == defaultBaseURL {
			return nil, fmt.Errorf("%w: %s", ErrAPIKeyMissing, cfg.APIKeyEnv)
		}
		apiKey = "local"
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}

	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(apiKey),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	failures := cfg.BreakerFailures
	if failures < 1 {
		failures = 5
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "generator",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	rpm := cfg.RequestsPerMinute
	limit := rate.Inf
	burst := 1
	if rpm > 0 {
		limit = rate.Limit(float64(rpm) / 60.0)
		burst = max(1, rpm/10)
	}

	lister := &modelLister{baseURL: baseURL, apiKey: apiKey, client: httpClient}

	return &OpenAIGenerator{
		client:      client,
		models:      NewModelCache(lister.List, cfg.ModelCacheTTL),
		breaker:     breaker,
		limiter:     rate.NewLimiter(limit, burst),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

// ModelName returns the configured model.
func (g *OpenAIGenerator) ModelName() string {
	return g.model
}

// Models exposes the discovery cache.
func (g *OpenAIGenerator) Models() *ModelCache {
	return g.models
}

// Generate sends question and chunks to the model and returns its raw
// reply.
func (g *OpenAIGenerator) Generate(ctx context.Context, question string, chunks []domain.Chunk) (string, error) {
	prompt, err := BuildPrompt(question, chunks)
	if err != nil {
		return "", err
	}

	model := g.models.Resolve(ctx, g.model)
	if model != g.model {
		g.logger.Warn("configured model not served, using provider default", "configured", g.model, "model", model)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		messages := []llms.MessageContent{
			{
				Role:  llms.ChatMessageTypeSystem,
				Parts: []llms.ContentPart{llms.TextPart(SystemPrompt)},
			},
			{
				Role:  llms.ChatMessageTypeHuman,
				Parts: []llms.ContentPart{llms.TextPart(prompt)},
			},
		}

		resp, err := g.client.GenerateContent(ctx, messages,
			llms.WithModel(model),
			llms.WithTemperature(g.temperature),
			llms.WithJSONMode(),
		)
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, ErrEmptyResponse
		}
		return resp.Choices[0].Content, nil
	})
	if err != nil {
		if code, ok := StatusCode(err); ok && code == http.StatusNotFound {
			g.models.Invalidate()
		}
		return "", fmt.Errorf("generation failed: %w", err)
	}

	return result.(string), nil
}

type modelLister struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// List calls GET {baseURL}/models.
func (l *modelLister) List(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200]
		}
		return nil, &StatusError{
			Code:       resp.StatusCode,
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        errors.New(preview),
		}
	}

	var parsed modelsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse models response: %w", err)
	}

	ids := make([]string, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}
