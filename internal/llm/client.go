// Package llm wraps the OpenAI Responses API for topic labels and
// one-line profile commentary.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"golang.org/x/time/rate"

	"github.com/huygnguyen04/at-everyone/internal/config"
	"github.com/huygnguyen04/at-everyone/internal/logging"
	"github.com/huygnguyen04/at-everyone/internal/metrics"
	"github.com/huygnguyen04/at-everyone/internal/ratelimit"
	"github.com/huygnguyen04/at-everyone/internal/util"
)

const maxAttempts = 3

// Client sends rate-limited, retried requests to the Responses API.
type Client struct {
	api     openai.Client
	model   string
	limiter *rate.Limiter
	// waits before attempt 2 and 3, per failure class
	rateLimitWaits   []time.Duration
	serverErrorWaits []time.Duration
}

// New creates a Client. Extra options are appended after the configured
// ones (tests use option.WithBaseURL).
func New(cfg config.LLMConfig, opts ...option.RequestOption) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: missing api key")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	base := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		// retries are handled here so they are counted
		option.WithMaxRetries(0),
	}
	return &Client{
		api:              openai.NewClient(append(base, opts...)...),
		model:            cfg.Model,
		limiter:          ratelimit.New(cfg.RPS, cfg.Burst),
		rateLimitWaits:   []time.Duration{20 * time.Second, 60 * time.Second},
		serverErrorWaits: []time.Duration{5 * time.Second, 30 * time.Second},
	}, nil
}

type request struct {
	endpoint     string // metrics label
	instructions string
	input        string
	maxTokens    int64
	format       *responses.ResponseFormatTextJSONSchemaConfigParam
}

func (c *Client) complete(ctx context.Context, r request) (string, error) {
	params := responses.ResponseNewParams{
		Model:        c.model,
		Instructions: openai.String(r.instructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(r.input, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if r.maxTokens > 0 {
		params.MaxOutputTokens = openai.Int(r.maxTokens)
	}
	if r.format != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{OfJSONSchema: r.format},
		}
	}
	resp, err := c.callWithRetry(ctx, r.endpoint, params)
	if err != nil {
		return "", err
	}
	out := util.NormalizeWhitespace(resp.OutputText())
	if out == "" {
		return "", fmt.Errorf("llm %s: empty output", r.endpoint)
	}
	return out, nil
}

func (c *Client) callWithRetry(ctx context.Context, endpoint string, params responses.ResponseNewParams) (*responses.Response, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		metrics.IncCapabilityCall(endpoint)
		resp, err := c.api.Responses.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		var waits []time.Duration
		switch {
		case isRateLimitError(err):
			waits = c.rateLimitWaits
		case isServerError(err):
			waits = c.serverErrorWaits
		default:
			return nil, fmt.Errorf("llm %s: %w", endpoint, err)
		}
		if attempt == maxAttempts-1 {
			break
		}
		metrics.IncAPIRetry(endpoint)
		var wait time.Duration
		if attempt < len(waits) {
			wait = waits[attempt]
		}
		logging.Warn("llm_retry", map[string]any{"endpoint": endpoint, "attempt": attempt + 1, "wait_ms": wait.Milliseconds(), "error": err.Error()})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("llm %s: failed after %d attempts: %w", endpoint, maxAttempts, lastErr)
}

func statusCode(err error) (int, bool) {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}

func isRateLimitError(err error) bool {
	if code, ok := statusCode(err); ok {
		return code == http.StatusTooManyRequests
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "rate limit") || strings.Contains(s, "too many requests")
}

func isServerError(err error) bool {
	if code, ok := statusCode(err); ok {
		return code >= 500
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "internal server error") || strings.Contains(s, "server_error")
}
