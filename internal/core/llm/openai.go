package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/brandscout/brandscout/internal/platform/config"
	"github.com/brandscout/brandscout/internal/platform/observability"
)

const (
	rateLimiterBurst = 5

	resultSuccess = "success"
	resultError   = "error"
)

// ErrCircuitBreakerOpen indicates the circuit breaker is open.
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// ErrEmptyCompletion indicates the provider returned no choices.
var ErrEmptyCompletion = errors.New("empty completion response")

type openaiClient struct {
	cfg         *config.Config
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter

	// Circuit breaker state
	consecutiveFailures int
	circuitOpenUntil    time.Time
	mu                  sync.Mutex
}

// NewOpenAI creates a generation client backed by the OpenAI API.
func NewOpenAI(cfg *config.Config, logger *zerolog.Logger) Client {
	return &openaiClient{
		cfg:         cfg,
		client:      openai.NewClient(cfg.LLMAPIKey),
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimitRPS)), rateLimiterBurst),
	}
}

func (c *openaiClient) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.circuitOpenUntil) {
		return ErrCircuitBreakerOpen
	}

	return nil
}

func (c *openaiClient) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures++

	if c.consecutiveFailures >= c.cfg.LLMCircuitLimit {
		c.circuitOpenUntil = time.Now().Add(c.cfg.LLMCircuitReset)
		c.logger.Warn().
			Int("failures", c.consecutiveFailures).
			Time("open_until", c.circuitOpenUntil).
			Msg("LLM circuit breaker opened")
	}
}

func (c *openaiClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures = 0
}

func (c *openaiClient) Generate(ctx context.Context, systemPrompt, userPrompt string, params Params) (Result, error) {
	model := params.Model
	if model == "" {
		model = c.cfg.LLMModel
	}

	if err := c.checkCircuit(); err != nil {
		return Result{}, err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limiter: %w", err)
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	})

	observability.GenerationDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())

	if err != nil {
		c.recordFailure()
		observability.GenerationRequests.WithLabelValues(resultError).Inc()

		return Result{}, fmt.Errorf("openai chat completion: %w", err)
	}

	c.recordSuccess()

	if len(resp.Choices) == 0 {
		observability.GenerationRequests.WithLabelValues(resultError).Inc()

		return Result{}, ErrEmptyCompletion
	}

	observability.GenerationRequests.WithLabelValues(resultSuccess).Inc()
	observability.GenerationTokens.Add(float64(resp.Usage.TotalTokens))

	return Result{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
