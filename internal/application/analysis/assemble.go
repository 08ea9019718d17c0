package analysis

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bryanwahyu/pitch-analyzer/internal/domain/crew"
)

// Build turns definitions into a runnable crew. Unknown tool names and tasks
// bound to unknown agents are logged and skipped. The shared context is
// appended to every task description.
func Build(defs crew.Definitions, registry map[string]crew.Tool, vars []crew.ContextVar, log *slog.Logger) crew.Crew {
	if log == nil {
		log = slog.Default()
	}

	var c crew.Crew
	byID := make(map[string]*crew.Agent, len(defs.Agents))
	for _, def := range defs.Agents {
		agent := &crew.Agent{Definition: def}
		for _, name := range def.Tools {
			tool, ok := registry[name]
			if !ok {
				log.Warn("tool not found for agent", "tool", name, "agent", def.ID)
				continue
			}
			agent.Tools = append(agent.Tools, tool)
		}
		byID[def.ID] = agent
		c.Agents = append(c.Agents, agent)
	}
	log.Info("agents created", "count", len(c.Agents))

	contextBlock := RenderContext(vars)
	seen := make(map[string]bool, len(defs.Tasks))
	for _, def := range defs.Tasks {
		agent, ok := byID[def.Agent]
		if !ok {
			log.Warn("agent not found for task", "agent", def.Agent, "task", def.ID)
			continue
		}
		var ctxIDs []string
		for _, id := range def.Context {
			if seen[id] {
				ctxIDs = append(ctxIDs, id)
			}
		}
		c.Tasks = append(c.Tasks, crew.Task{
			ID:             def.ID,
			Description:    def.Description + "\n\nContext:\n" + contextBlock,
			ExpectedOutput: def.ExpectedOutput,
			Agent:          agent,
			Context:        ctxIDs,
		})
		seen[def.ID] = true
	}
	log.Info("tasks created", "count", len(c.Tasks))
	return c
}

// RenderContext prints one "- key: value" line per entry, skipping empty values.
func RenderContext(vars []crew.ContextVar) string {
	var b strings.Builder
	for _, v := range vars {
		if v.Value == "" {
			continue
		}
		if strings.Contains(v.Value, "\n") {
			fmt.Fprintf(&b, "- %s:\n%s\n", v.Key, v.Value)
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", v.Key, v.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}
