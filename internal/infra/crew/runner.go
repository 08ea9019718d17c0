package crew

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/bryanwahyu/pitch-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/pitch-analyzer/internal/domain/crew"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/ai/prompt"
)

const DefaultMaxIterations = 6

// SequentialRunner executes tasks one after another against a single LLM
// client, letting each agent call its tools between model turns.
type SequentialRunner struct {
	Client        ai.Client
	MaxIterations int
	Observer      crew.ToolObserver
	Log           *slog.Logger
}

func NewSequentialRunner(client ai.Client, maxIterations int, log *slog.Logger) *SequentialRunner {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if log == nil {
		log = slog.Default()
	}
	return &SequentialRunner{Client: client, MaxIterations: maxIterations, Log: log}
}

func (r *SequentialRunner) Run(ctx context.Context, c crew.Crew) (crew.Output, error) {
	if len(c.Tasks) == 0 {
		return crew.Output{}, errors.New("crew has no tasks")
	}

	outputs := make(map[string]string, len(c.Tasks))
	var out crew.Output
	for i, task := range c.Tasks {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		r.Log.Info("task started", "task", task.ID, "agent", task.Agent.Definition.ID, "position", i+1, "total", len(c.Tasks))

		var prior []prompt.PriorOutput
		for _, id := range task.Context {
			if o, ok := outputs[id]; ok {
				prior = append(prior, prompt.PriorOutput{TaskID: id, Output: o})
			}
		}

		raw, err := r.runTask(ctx, c, task, prior)
		if err != nil {
			return out, fmt.Errorf("task %s: %w", task.ID, err)
		}
		outputs[task.ID] = raw
		out.Tasks = append(out.Tasks, crew.TaskOutput{TaskID: task.ID, Agent: task.Agent.Definition.Role, Raw: raw})
		r.Log.Info("task completed", "task", task.ID, "chars", len(raw))
	}
	out.Raw = out.Tasks[len(out.Tasks)-1].Raw
	return out, nil
}

func (r *SequentialRunner) runTask(ctx context.Context, c crew.Crew, task crew.Task, prior []prompt.PriorOutput) (string, error) {
	agent := task.Agent
	tools := agent.Tools
	if agent.Definition.AllowDelegation {
		if d := newDelegateTool(r, c, agent); d != nil {
			tools = append(append([]crew.Tool(nil), tools...), d)
		}
	}

	byName := make(map[string]crew.Tool, len(tools))
	specs := make([]ai.ToolSpec, 0, len(tools))
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
		names = append(names, t.Name())
		specs = append(specs, ai.ToolSpec{Name: t.Name(), Description: t.Description(), Parameters: t.Parameters()})
	}

	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: prompt.GetSystemPrompt(agent.Definition, names)},
		{Role: ai.RoleUser, Content: prompt.GetUserPrompt(task, prior)},
	}
	log := r.Log.With("task", task.ID, "agent", agent.Definition.ID)
	verbose := agent.Definition.IsVerbose()

	for turn := 1; turn <= r.MaxIterations; turn++ {
		resp, err := r.chat(ctx, agent, ai.ChatRequest{Messages: messages, Tools: specs})
		if err != nil {
			return "", err
		}
		if verbose {
			log.Debug("agent turn", "turn", turn, "tool_calls", len(resp.ToolCalls), "content_chars", len(resp.Content))
		}
		if len(resp.ToolCalls) == 0 {
			return finalAnswer(resp)
		}

		messages = append(messages, ai.Message{Role: ai.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			result := r.callTool(ctx, byName, call, log)
			messages = append(messages, ai.Message{Role: ai.RoleTool, Content: result, ToolCallID: call.ID})
		}
	}

	log.Warn("max iterations reached, forcing final answer", "max_iterations", r.MaxIterations)
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: prompt.GetFinalAnswerPrompt()})
	resp, err := r.chat(ctx, agent, ai.ChatRequest{Messages: messages})
	if err != nil {
		return "", err
	}
	return finalAnswer(resp)
}

func (r *SequentialRunner) chat(ctx context.Context, agent *crew.Agent, req ai.ChatRequest) (ai.ChatResponse, error) {
	resp, err := r.Client.Chat(ctx, req)
	if err != nil {
		return resp, err
	}
	if r.Observer != nil {
		r.Observer.ObserveTurn(agent.Definition.ID, resp.PromptTokens, resp.CompletionTokens)
	}
	return resp, nil
}

func (r *SequentialRunner) callTool(ctx context.Context, byName map[string]crew.Tool, call ai.ToolCall, log *slog.Logger) string {
	tool, ok := byName[call.Name]
	if !ok {
		log.Warn("model requested unknown tool", "tool", call.Name)
		r.observeTool(call.Name, true)
		return fmt.Sprintf("Error: tool %q is not available. Available tools: %s", call.Name, strings.Join(keys(byName), ", "))
	}
	result := tool.Call(ctx, call.Arguments)
	failed := isToolError(result)
	r.observeTool(call.Name, failed)
	log.Info("tool called", "tool", call.Name, "failed", failed, "result_chars", len(result))
	return result
}

func (r *SequentialRunner) observeTool(name string, failed bool) {
	if r.Observer != nil {
		r.Observer.ObserveToolCall(name, failed)
	}
}

func finalAnswer(resp ai.ChatResponse) (string, error) {
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", ai.ErrEmptyResponse
	}
	return content, nil
}

func isToolError(result string) bool {
	for _, p := range []string{"Error", "Website audit failed", "Website audit error", "Search failed", "Website search failed"} {
		if strings.HasPrefix(result, p) {
			return true
		}
	}
	return false
}

func keys(m map[string]crew.Tool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
