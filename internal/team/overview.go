package team

import (
	"strings"

	"github.com/ccastromar/aos-research-team/internal/llm"
	"github.com/ccastromar/aos-research-team/internal/tools"
)

type Overview struct {
	Backend Backend        `json:"backend"`
	Agents  []AgentInfo    `json:"agents"`
	Tasks   []TaskInfo     `json:"tasks"`
	Tools   []tools.Source `json:"tools"`
}

// Backend describes the default endpoint. The API key is never exposed.
type Backend struct {
	Provider    string  `json:"provider"`
	BaseURL     string  `json:"base_url"`
	Model       string  `json:"model"`
	APIKeySet   bool    `json:"api_key_set"`
	Temperature float64 `json:"temperature"`
	Timeout     string  `json:"timeout"`
}

type AgentInfo struct {
	Name      string   `json:"name"`
	Role      string   `json:"role"`
	Goal      string   `json:"goal"`
	Backstory string   `json:"backstory,omitempty"`
	Provider  string   `json:"provider"`
	Model     string   `json:"model"`
	BaseURL   string   `json:"base_url,omitempty"`
	Tools     []string `json:"tools,omitempty"`
	Verbose   bool     `json:"verbose,omitempty"`
}

type TaskInfo struct {
	Name           string `json:"name"`
	Stage          string `json:"stage,omitempty"`
	Agent          string `json:"agent"`
	Description    string `json:"description"`
	ExpectedOutput string `json:"expected_output,omitempty"`
}

// Overview summarises the team for the UI and /api/team. Agents and tasks
// keep their declaration order.
func (t *Team) Overview() Overview {
	stageOf := make(map[string]string, len(t.members))
	for _, m := range t.members {
		stageOf[m.Task] = m.Stage
	}

	ov := Overview{
		Backend: Backend{
			Provider:    t.defaultEP.Provider,
			BaseURL:     t.defaultEP.BaseURL,
			Model:       t.defaultEP.Model,
			APIKeySet:   strings.TrimSpace(t.defaultEP.APIKey) != "",
			Temperature: t.env.LLMTemperature,
			Timeout:     t.env.LLMTimeout.String(),
		},
		Tools: t.catalog.Sources,
	}

	for _, name := range t.cfg.AgentOrder {
		a := t.cfg.Agents[name]
		ep := t.endpointView(name)
		role := a.Role
		if role == "" {
			role = name
		}
		ov.Agents = append(ov.Agents, AgentInfo{
			Name:      name,
			Role:      role,
			Goal:      a.Goal,
			Backstory: strings.TrimSpace(a.Backstory),
			Provider:  ep.Provider,
			Model:     ep.Model,
			BaseURL:   ep.BaseURL,
			Tools:     a.Tools,
			Verbose:   a.Verbose,
		})
	}

	for _, name := range t.cfg.TaskOrder {
		task := t.cfg.Tasks[name]
		ov.Tasks = append(ov.Tasks, TaskInfo{
			Name:           name,
			Stage:          stageOf[name],
			Agent:          task.Agent,
			Description:    strings.TrimSpace(task.Description),
			ExpectedOutput: strings.TrimSpace(task.ExpectedOutput),
		})
	}
	return ov
}

// endpointView reports an agent's resolved endpoint. Agents outside the
// blueprint were never resolved and show the default.
func (t *Team) endpointView(agent string) llm.Endpoint {
	if ep, ok := t.endpoints[agent]; ok {
		return ep
	}
	return t.defaultEP
}
