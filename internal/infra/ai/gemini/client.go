package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	genai "google.golang.org/genai"

	"github.com/bryanwahyu/pitch-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/resilience"
)

const defaultModel = "gemini-2.5-flash"

// Client is a text-only Gemini provider. Tool specs in a request are
// ignored, so agents answer from their prompt alone.
type Client struct {
	cli         *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	exec        *resilience.Executor
}

func NewClient(ctx context.Context, apiKey, model string, temperature float32, maxTokens int, exec *resilience.Executor) (*Client, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if model == "" || strings.HasPrefix(model, "gpt-") {
		model = defaultModel
	}
	return &Client{cli: cli, model: model, temperature: temperature, maxTokens: int32(maxTokens), exec: exec}, nil
}

func (c *Client) Name() string { return "gemini:" + c.model }

func (c *Client) Chat(ctx context.Context, req ai.ChatRequest) (ai.ChatResponse, error) {
	system, contents := toContents(req.Messages)
	temp := c.temperature
	cfg := &genai.GenerateContentConfig{Temperature: &temp}
	if c.maxTokens > 0 {
		cfg.MaxOutputTokens = c.maxTokens
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	var resp *genai.GenerateContentResponse
	call := func(ctx context.Context) error {
		var err error
		resp, err = c.cli.Models.GenerateContent(ctx, c.model, contents, cfg)
		return err
	}
	var err error
	if c.exec != nil {
		err = c.exec.Execute(ctx, "gemini.chat", call, classify)
	} else {
		err = call(ctx)
	}
	if err != nil {
		if statusCode(err) == http.StatusTooManyRequests {
			return ai.ChatResponse{}, fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
		}
		return ai.ChatResponse{}, fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return ai.ChatResponse{}, ai.ErrEmptyResponse
	}

	out := ai.ChatResponse{Content: resp.Text()}
	if u := resp.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.CompletionTokens = int(u.CandidatesTokenCount)
	}
	return out, nil
}

// toContents splits out the system prompt and maps the rest onto the two
// Gemini roles. Tool results arrive as plain user text.
func toContents(msgs []ai.Message) (string, []*genai.Content) {
	var (
		system   []string
		contents []*genai.Content
	)
	for _, m := range msgs {
		switch m.Role {
		case ai.RoleSystem:
			system = append(system, m.Content)
		case ai.RoleAssistant:
			if m.Content == "" {
				continue
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: m.Content}}})
		case ai.RoleTool:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: "Tool result:\n" + m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	return strings.Join(system, "\n\n"), contents
}

func statusCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code
	}
	return 0
}

func classify(err error) resilience.Outcome {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Outcome{}
	}
	code := statusCode(err)
	if code == http.StatusTooManyRequests || code >= 500 {
		return resilience.Outcome{Retry: true, Trip: true}
	}
	if code >= 400 {
		return resilience.Outcome{}
	}
	return resilience.Outcome{Trip: true}
}
