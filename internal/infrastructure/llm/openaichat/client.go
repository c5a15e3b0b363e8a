package openaichat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/stewardai/adaptive-rag/internal/core/domain"
	"github.com/stewardai/adaptive-rag/internal/infrastructure/resilience"
)

// Client talks to an OpenAI-compatible chat completions endpoint.
//
// The only transport-level retry is for rate-limit responses, with linear
// backoff. Every other failure surfaces immediately as
// domain.ErrGatewayUnavailable; callers decide how to degrade.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	Timeout     time.Duration
	BackoffStep time.Duration
	Executor    *resilience.Executor
}

func New(baseURL, apiKey, model string, maxRetries int) *Client {
	return NewWithOptions(baseURL, apiKey, model, maxRetries, Options{})
}

func NewWithOptions(baseURL, apiKey, model string, maxRetries int, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	backoffStep := options.BackoffStep
	if backoffStep <= 0 {
		backoffStep = 2 * time.Second
	}
	executor := options.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.Config{
			RetryMaxAttempts: maxRetries,
			RetryBackoffStep: backoffStep,
			RetryMaxBackoff:  5 * backoffStep,
			BreakerEnabled:   true,
		})
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

func (c *Client) Complete(ctx context.Context, messages []domain.ChatMessage, temperature float64) (string, error) {
	if c.apiKey == "" {
		return "", domain.WrapError(domain.ErrGatewayUnavailable, "chat completion", errors.New("missing api key"))
	}

	var content string
	err := c.executor.Execute(ctx, "chat.completions", func(callCtx context.Context) error {
		text, err := c.postChatCompletion(callCtx, messages, temperature)
		if err != nil {
			return err
		}
		content = text
		return nil
	}, classifyChatError)
	if err != nil {
		return "", domain.WrapError(domain.ErrGatewayUnavailable, "chat completion", err)
	}
	return content, nil
}
