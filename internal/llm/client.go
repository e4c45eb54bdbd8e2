package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/weftworks/weft/internal/run"
)

// Client adapts a langchaingo model to the engine's Backend capability
type Client struct {
	llm   llms.Model
	model string // default model name for API calls
}

var _ run.Backend = (*Client)(nil)

// NewClient creates a new LLM client
func NewClient(provider, apiKey, url, modelName string) (*Client, error) {
	var llmModel llms.Model
	var err error

	switch provider {
	case "openai":
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		opts := []openai.Option{
			openai.WithToken(apiKey),
		}
		// Add custom URL if provided
		if url != "" {
			opts = append(opts, openai.WithBaseURL(url))
		}
		llmModel, err = openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}

	return &Client{llm: llmModel, model: modelName}, nil
}

// Invoke sends a prompt and returns the completion text. Failures are
// classified into the engine's BackendError taxonomy so the run engine
// can apply its retry policy.
func (c *Client) Invoke(ctx context.Context, prompt string, opts run.Options) (string, error) {
	var callOpts []llms.CallOption
	model := opts.Model
	if model == "" {
		model = c.model
	}
	if model != "" {
		callOpts = append(callOpts, llms.WithModel(model))
	}
	if opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(opts.Temperature))
	}

	completion, err := c.llm.Call(ctx, prompt, callOpts...)
	if err != nil {
		return "", classify(err)
	}
	if strings.TrimSpace(completion) == "" {
		return "", &run.BackendError{Kind: run.BackendMalformed, Err: errors.New("empty completion")}
	}
	return completion, nil
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &run.BackendError{Kind: run.BackendTimeout, Err: err}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return &run.BackendError{Kind: run.BackendRateLimit, Err: err}
	case strings.Contains(msg, "unexpected") || strings.Contains(msg, "decode"):
		return &run.BackendError{Kind: run.BackendMalformed, Err: err}
	default:
		return &run.BackendError{Kind: run.BackendUnavailable, Err: err}
	}
}
