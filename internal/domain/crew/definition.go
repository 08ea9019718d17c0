package crew

// AgentDefinition is one role entry of agents.yaml.
type AgentDefinition struct {
	ID              string   `yaml:"-" json:"id"`
	Role            string   `yaml:"role" json:"role"`
	Goal            string   `yaml:"goal" json:"goal"`
	Backstory       string   `yaml:"backstory" json:"backstory"`
	Verbose         *bool    `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	AllowDelegation bool     `yaml:"allow_delegation" json:"allow_delegation"`
	Tools           []string `yaml:"tools" json:"tools,omitempty"`
}

// IsVerbose defaults to true like the reference configuration.
func (d AgentDefinition) IsVerbose() bool {
	return d.Verbose == nil || *d.Verbose
}

// TaskDefinition is one step entry of tasks.yaml.
type TaskDefinition struct {
	ID             string   `yaml:"-" json:"id"`
	Description    string   `yaml:"description" json:"description"`
	ExpectedOutput string   `yaml:"expected_output" json:"expected_output"`
	Agent          string   `yaml:"agent" json:"agent"`
	Context        []string `yaml:"context,omitempty" json:"context,omitempty"`
}

// Definitions holds both files in declaration order.
type Definitions struct {
	Agents []AgentDefinition
	Tasks  []TaskDefinition
	// Defaulted reports that at least one file was missing and built-in
	// records were substituted.
	Defaulted bool
}

// DefaultAgents is used when agents.yaml is absent.
func DefaultAgents() []AgentDefinition {
	verbose := true
	return []AgentDefinition{{
		ID:              "structure_analyst",
		Role:            "Senior Business Analyst specializing in startup pitch deck analysis",
		Goal:            "Extract and analyze key information from pitch decks to provide comprehensive business structure insights",
		Backstory:       "You are an experienced business analyst with 10+ years of experience in evaluating startup pitch decks. You have a keen eye for identifying business model strengths, market opportunities, and potential red flags.",
		Verbose:         &verbose,
		AllowDelegation: false,
		Tools:           []string{"document_processor", "search_tool"},
	}}
}

// DefaultTasks is used when tasks.yaml is absent.
func DefaultTasks() []TaskDefinition {
	return []TaskDefinition{{
		ID:             "document_analysis_task",
		Description:    "Analyze the uploaded pitch deck document and extract detailed information. Focus on problem statement, solution, business model, market size, team, financials, and traction.",
		ExpectedOutput: "A comprehensive analysis report with executive summary, problem analysis, solution overview, business model breakdown, market analysis, team assessment, financial summary, and scoring.",
		Agent:          "structure_analyst",
	}}
}
