package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/pitch-analyzer/internal/domain/crew"
)

type namedTool string

func (n namedTool) Name() string { return string(n) }
func (n namedTool) Description() string { return string(n) }
func (n namedTool) Parameters() map[string]any { return nil }
func (n namedTool) Call(context.Context, string) string { return "ok" }

func TestBuildSkipsUnknownToolsAndAgents(t *testing.T) {
	defs := crew.Definitions{
		Agents: []crew.AgentDefinition{
			{ID: "zeta_analyst", Role: "Zeta", Tools: []string{"document_processor", "missing_tool"}},
			{ID: "alpha_analyst", Role: "Alpha"},
		},
		Tasks: []crew.TaskDefinition{
			{ID: "second_task", Description: "Do zeta things", Agent: "zeta_analyst", Context: []string{"first_task"}},
			{ID: "first_task", Description: "Do alpha things", Agent: "alpha_analyst", Context: []string{"second_task"}},
			{ID: "orphan_task", Description: "Nobody owns this", Agent: "ghost"},
		},
	}
	vars := []crew.ContextVar{{Key: "company_name", Value: "Acme"}, {Key: "website_url", Value: ""}, {Key: "analysis_type", Value: "quick"}}

	c := Build(defs, map[string]crew.Tool{"document_processor": namedTool("file_processor")}, vars, quietLogger())

	require.Len(t, c.Agents, 2)
	require.Len(t, c.Agents[0].Tools, 1)
	require.Len(t, c.Tasks, 2)
	require.Equal(t, "second_task", c.Tasks[0].ID)
	require.Empty(t, c.Tasks[0].Context, "later tasks are not available as context")
	require.Equal(t, []string{"second_task"}, c.Tasks[1].Context)
	require.Same(t, c.Agents[1], c.Tasks[1].Agent)
	require.Equal(t, "Do zeta things\n\nContext:\n- company_name: Acme\n- analysis_type: quick", c.Tasks[0].Description)
}

func TestRenderContextMultiline(t *testing.T) {
	out := RenderContext([]crew.ContextVar{
		{Key: "company_name", Value: "Acme"},
		{Key: "document_content", Value: "line one\nline two"},
	})
	require.Equal(t, "- company_name: Acme\n- document_content:\nline one\nline two", out)
}
