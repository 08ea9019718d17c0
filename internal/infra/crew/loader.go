package crew

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/pitch-analyzer/internal/domain/crew"
)

// LoadDefinitions reads agents and tasks from dir in declaration order.
// When either file is missing both fall back to the built-in records.
func LoadDefinitions(dir, agentsFile, tasksFile string, log *slog.Logger) (crew.Definitions, error) {
	if log == nil {
		log = slog.Default()
	}
	agentsPath := filepath.Join(dir, agentsFile)
	tasksPath := filepath.Join(dir, tasksFile)

	agents, err := loadAgents(agentsPath)
	if err == nil {
		var tasks []crew.TaskDefinition
		tasks, err = loadTasks(tasksPath)
		if err == nil {
			log.Info("crew configuration loaded", "agents", len(agents), "tasks", len(tasks))
			return crew.Definitions{Agents: agents, Tasks: tasks}, nil
		}
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return crew.Definitions{}, err
	}

	log.Warn("crew configuration not found, using defaults", "error", err)
	return crew.Definitions{
		Agents:    crew.DefaultAgents(),
		Tasks:     crew.DefaultTasks(),
		Defaulted: true,
	}, nil
}

func loadAgents(path string) ([]crew.AgentDefinition, error) {
	var out []crew.AgentDefinition
	err := decodeOrdered(path, func(id string, node *yaml.Node) error {
		var def crew.AgentDefinition
		if err := node.Decode(&def); err != nil {
			return err
		}
		def.ID = id
		out = append(out, def)
		return nil
	})
	return out, err
}

func loadTasks(path string) ([]crew.TaskDefinition, error) {
	var out []crew.TaskDefinition
	err := decodeOrdered(path, func(id string, node *yaml.Node) error {
		var def crew.TaskDefinition
		if err := node.Decode(&def); err != nil {
			return err
		}
		def.ID = id
		out = append(out, def)
		return nil
	})
	return out, err
}

// decodeOrdered walks a top-level mapping keeping key order, which a Go map
// would lose.
func decodeOrdered(path string, fn func(id string, node *yaml.Node) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("crew: read %s: %w", path, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("crew: decode %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("crew: %s: top level must be a mapping", path)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		id := root.Content[i].Value
		if err := fn(id, root.Content[i+1]); err != nil {
			return fmt.Errorf("crew: %s: entry %q: %w", path, id, err)
		}
	}
	return nil
}
