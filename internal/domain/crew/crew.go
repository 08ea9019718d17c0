package crew

import "context"

// Tool is a capability an agent may call during a task.
// Failures are reported inside the returned text, never as Go errors,
// so the model can read and react to them.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Call(ctx context.Context, arguments string) string
}

type Agent struct {
	Definition AgentDefinition
	Tools      []Tool
}

type Task struct {
	ID             string
	Description    string
	ExpectedOutput string
	Agent          *Agent
	// Context lists earlier task IDs whose output is fed into this task.
	Context []string
}

// Crew is an ordered set of tasks executed one after another.
type Crew struct {
	Agents []*Agent
	Tasks  []Task
}

type TaskOutput struct {
	TaskID string `json:"task_id"`
	Agent  string `json:"agent"`
	Raw    string `json:"raw"`
}

type Output struct {
	Raw   string       `json:"raw"`
	Tasks []TaskOutput `json:"tasks"`
}

// Runner executes a crew.
type Runner interface {
	Run(ctx context.Context, c Crew) (Output, error)
}

// ContextVar is one entry of the shared analysis context threaded into
// every task description. Order is preserved when rendered.
type ContextVar struct {
	Key   string
	Value string
}

// ToolObserver receives tool and model call outcomes from a runner.
type ToolObserver interface {
	ObserveToolCall(tool string, failed bool)
	ObserveTurn(agent string, promptTokens, completionTokens int)
}
