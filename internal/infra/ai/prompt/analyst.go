package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/pitch-analyzer/internal/domain/crew"
)

// GetSystemPrompt frames the model as the given analyst.
func GetSystemPrompt(def crew.AgentDefinition, toolNames []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.\n%s\n\nYour personal goal is: %s\n", def.Role, def.Backstory, def.Goal)
	if len(toolNames) > 0 {
		fmt.Fprintf(&b, "\nYou can call these tools when they help: %s.\n", strings.Join(toolNames, ", "))
		b.WriteString("Call a tool only when you need information you do not already have.\n")
	}
	b.WriteString("\nWhen you have enough information, reply with your complete final answer as plain text. Do not describe tool calls in the answer.")
	return b.String()
}

// PriorOutput is the result of an earlier task handed to a later one.
type PriorOutput struct {
	TaskID string
	Output string
}

// GetUserPrompt builds the task message: description (with its context
// block), earlier task results, then the expected output.
func GetUserPrompt(task crew.Task, prior []PriorOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current Task: %s\n", task.Description)
	if len(prior) > 0 {
		b.WriteString("\nThis is the output of earlier tasks you must build on:\n")
		for _, p := range prior {
			fmt.Fprintf(&b, "\n--- %s ---\n%s\n", p.TaskID, p.Output)
		}
	}
	fmt.Fprintf(&b, "\nThis is the expected criteria for your final answer: %s\n", task.ExpectedOutput)
	b.WriteString("You MUST return the actual complete content as the final answer, not a summary.")
	return b.String()
}

// GetFinalAnswerPrompt is sent when the tool budget is spent.
func GetFinalAnswerPrompt() string {
	return "You have used all available tool calls. Using the information gathered so far, give your complete final answer now."
}

// GetDelegationPrompt frames a question handed to a coworker.
func GetDelegationPrompt(task, context string) string {
	if strings.TrimSpace(context) == "" {
		return task
	}
	return fmt.Sprintf("%s\n\nContext from your coworker:\n%s", task, context)
}
