package crew

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/pitch-analyzer/internal/domain/ai"
	"github.com/bryanwahyu/pitch-analyzer/internal/domain/crew"
	"github.com/bryanwahyu/pitch-analyzer/internal/infra/ai/prompt"
)

// delegateTool lets an agent hand a question to another agent of the crew.
// The coworker answers in a single turn without tools.
type delegateTool struct {
	runner    *SequentialRunner
	coworkers map[string]*crew.Agent
	roles     []string
}

func newDelegateTool(r *SequentialRunner, c crew.Crew, self *crew.Agent) *delegateTool {
	d := &delegateTool{runner: r, coworkers: map[string]*crew.Agent{}}
	for _, a := range c.Agents {
		if a == self {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(a.Definition.Role))
		d.coworkers[key] = a
		d.roles = append(d.roles, a.Definition.Role)
	}
	if len(d.roles) == 0 {
		return nil
	}
	return d
}

func (d *delegateTool) Name() string { return "delegate_work" }

func (d *delegateTool) Description() string {
	return fmt.Sprintf("Ask a coworker to answer a question or do a piece of work. Coworkers: %s", strings.Join(d.roles, "; "))
}

func (d *delegateTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"coworker": map[string]any{"type": "string", "description": "Role of the coworker", "enum": d.roles},
			"task":     map[string]any{"type": "string", "description": "What the coworker should do"},
			"context":  map[string]any{"type": "string", "description": "Everything the coworker needs to know"},
		},
		"required": []string{"coworker", "task"},
	}
}

func (d *delegateTool) Call(ctx context.Context, arguments string) string {
	var args struct {
		Coworker string `json:"coworker"`
		Task     string `json:"task"`
		Context  string `json:"context"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return fmt.Sprintf("Error: invalid arguments: %v", err)
	}
	agent, ok := d.coworkers[strings.ToLower(strings.TrimSpace(args.Coworker))]
	if !ok {
		return fmt.Sprintf("Error: coworker %q not found. Choose one of: %s", args.Coworker, strings.Join(d.roles, "; "))
	}
	resp, err := d.runner.chat(ctx, agent, ai.ChatRequest{Messages: []ai.Message{
		{Role: ai.RoleSystem, Content: prompt.GetSystemPrompt(agent.Definition, nil)},
		{Role: ai.RoleUser, Content: prompt.GetDelegationPrompt(args.Task, args.Context)},
	}})
	if err != nil {
		return fmt.Sprintf("Error: coworker failed: %v", err)
	}
	return resp.Content
}
