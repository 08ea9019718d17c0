package openai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/pitch-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/resilience"
)

const defaultModel = "gpt-4-turbo-preview"

type Options struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	HTTPClient  *http.Client
}

type Client struct {
	*openai.Client
	Model       string
	Temperature float32
	MaxTokens   int
	exec        *resilience.Executor
}

// NewClient builds an OpenAI chat client. exec may be nil.
func NewClient(opts Options, exec *resilience.Executor) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{
		Client:      openai.NewClientWithConfig(cfg),
		Model:       model,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		exec:        exec,
	}
}

func (c *Client) Name() string { return "openai:" + c.Model }

func (c *Client) Chat(ctx context.Context, in ai.ChatRequest) (ai.ChatResponse, error) {
	req := c.buildRequest(in)

	var resp openai.ChatCompletionResponse
	call := func(ctx context.Context) error {
		var err error
		resp, err = c.CreateChatCompletion(ctx, req)
		return err
	}
	var err error
	if c.exec != nil {
		err = c.exec.Execute(ctx, "openai.chat", call, classify)
	} else {
		err = call(ctx)
	}
	if err != nil {
		if isQuota(err) {
			return ai.ChatResponse{}, fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
		}
		return ai.ChatResponse{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ai.ChatResponse{}, ai.ErrEmptyResponse
	}

	msg := resp.Choices[0].Message
	out := ai.ChatResponse{
		Content:          msg.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ai.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}
	return out, nil
}

func (c *Client) buildRequest(in ai.ChatRequest) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{Model: c.Model}
	for _, m := range in.Messages {
		msg := openai.ChatCompletionMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:       tc.ID,
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: tc.Name, Arguments: tc.Arguments},
			})
		}
		req.Messages = append(req.Messages, msg)
	}
	for _, t := range in.Tools {
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	// Reasoning models (o1/o3/o4/gpt-5*) take MaxCompletionTokens and no temperature.
	if isReasoningModel(c.Model) {
		req.MaxCompletionTokens = c.MaxTokens
	} else {
		req.MaxTokens = c.MaxTokens
		req.Temperature = c.Temperature
	}
	return req
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func isQuota(err error) bool {
	if statusCode(err) == http.StatusTooManyRequests {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
			return true
		}
	}
	return false
}

func classify(err error) resilience.Outcome {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Outcome{}
	}
	switch code := statusCode(err); {
	case code == http.StatusTooManyRequests, code >= 500:
		return resilience.Outcome{Retry: true, Trip: true}
	case code >= 400:
		return resilience.Outcome{}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Outcome{Retry: true, Trip: true}
	}
	return resilience.Outcome{Trip: true}
}
