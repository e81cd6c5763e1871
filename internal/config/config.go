package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownAgent = errors.New("unknown agent")
	ErrUnknownTask  = errors.New("unknown task")
)

const (
	AgentsFile = "agents.yaml"
	TasksFile  = "tasks.yaml"
	ToolsFile  = "tools.yaml"
)

type Agent struct {
	Role      string `yaml:"role"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`

	// Per-agent completion endpoint; empty fields fall back to the env defaults.
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	LLMAPIURL       string `yaml:"llmAPIURL"`
	LLMAPIKeyEnvVar string `yaml:"llmAPIKeyEnvVar"`

	Tools   []string `yaml:"tools"` // tool source names from tools.yaml
	Verbose bool     `yaml:"verbose"`
}

type Task struct {
	Description    string `yaml:"description"`
	ExpectedOutput string `yaml:"expected_output"`
	Agent          string `yaml:"agent"`
}

type ToolSource struct {
	Name      string            `yaml:"name"`
	Transport string            `yaml:"transport"` // http, stdio
	URL       string            `yaml:"url"`
	Command   string            `yaml:"command"`
	Args      []string          `yaml:"args"`
	Env       map[string]string `yaml:"env"`
	TimeoutMs int               `yaml:"timeout"`
}

type Config struct {
	Agents     map[string]Agent
	AgentOrder []string
	Tasks      map[string]Task
	TaskOrder  []string
	Tools      map[string]ToolSource
	ToolOrder  []string
}

// Agent looks up an agent by key.
func (c *Config) Agent(name string) (Agent, error) {
	a, ok := c.Agents[name]
	if !ok {
		return Agent{}, fmt.Errorf("%w '%s'", ErrUnknownAgent, name)
	}
	return a, nil
}

// Task looks up a task by key.
func (c *Config) Task(name string) (Task, error) {
	t, ok := c.Tasks[name]
	if !ok {
		return Task{}, fmt.Errorf("%w '%s'", ErrUnknownTask, name)
	}
	return t, nil
}

// LoadFromDir reads agents.yaml and tasks.yaml (required) and tools.yaml
// (optional) from base.
func LoadFromDir(base string) (*Config, error) {
	cfg := &Config{
		Agents: make(map[string]Agent),
		Tasks:  make(map[string]Task),
		Tools:  make(map[string]ToolSource),
	}

	order, err := loadMapping(filepath.Join(base, AgentsFile), cfg.Agents)
	if err != nil {
		return nil, err
	}
	cfg.AgentOrder = order

	order, err = loadMapping(filepath.Join(base, TasksFile), cfg.Tasks)
	if err != nil {
		return nil, err
	}
	cfg.TaskOrder = order

	if err := loadTools(filepath.Join(base, ToolsFile), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadMapping decodes a top-level "name: {...}" document into out and returns
// the keys in declaration order.
func loadMapping[T any](path string, out map[string]T) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing %s: expected a mapping at top level", path)
	}

	order := make([]string, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		var v T
		if err := root.Content[i+1].Decode(&v); err != nil {
			return nil, fmt.Errorf("parsing %s (%s): %w", path, key, err)
		}
		if _, dup := out[key]; !dup {
			order = append(order, key)
		}
		out[key] = v
	}
	return order, nil
}

func loadTools(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var raw struct {
		Tools []ToolSource `yaml:"tools"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, t := range raw.Tools {
		if t.Name == "" {
			continue
		}
		if _, dup := cfg.Tools[t.Name]; !dup {
			cfg.ToolOrder = append(cfg.ToolOrder, t.Name)
		}
		cfg.Tools[t.Name] = t
	}
	return nil
}
