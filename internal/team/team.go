// Package team turns the YAML definitions into a ready to run research
// pipeline. Endpoints and clients are resolved once, here, so a run only
// does lookups.
package team

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ccastromar/aos-research-team/internal/config"
	"github.com/ccastromar/aos-research-team/internal/llm"
	"github.com/ccastromar/aos-research-team/internal/logx"
	"github.com/ccastromar/aos-research-team/internal/pipeline"
	"github.com/ccastromar/aos-research-team/internal/tools"
)

// ClientFactory builds a completion client for an endpoint.
type ClientFactory func(ep llm.Endpoint, timeout time.Duration) (llm.Client, error)

// Member is a resolved stage: who runs it, for which task, against which endpoint.
type Member struct {
	Stage    string
	Task     string
	Agent    string
	Endpoint llm.Endpoint
}

type Team struct {
	cfg           *config.Config
	env           *config.EnvVars
	members       []Member
	endpoints     map[string]llm.Endpoint // agent key -> endpoint
	clients       map[string]llm.Client   // endpoint key -> client
	defaultEP     llm.Endpoint
	defaultClient llm.Client
	catalog       tools.Catalog
	pipeline      *pipeline.Pipeline
	newClient     ClientFactory
	getenv        func(string) string
	pipelineOpt   []pipeline.Option
}

type Option func(*Team)

// WithClientFactory replaces llm.New, mostly for tests.
func WithClientFactory(f ClientFactory) Option {
	return func(t *Team) { t.newClient = f }
}

// WithGetenv replaces os.Getenv for llmAPIKeyEnvVar lookups.
func WithGetenv(f func(string) string) Option {
	return func(t *Team) { t.getenv = f }
}

// WithCatalog attaches discovered tools, shown in the overview.
func WithCatalog(c tools.Catalog) Option {
	return func(t *Team) { t.catalog = c }
}

func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(t *Team) { t.pipelineOpt = append(t.pipelineOpt, opts...) }
}

// New resolves every Blueprint step against cfg. A missing task or agent is
// a setup error.
func New(cfg *config.Config, env *config.EnvVars, opts ...Option) (*Team, error) {
	t := &Team{
		cfg:       cfg,
		env:       env,
		endpoints: make(map[string]llm.Endpoint),
		clients:   make(map[string]llm.Client),
		newClient: llm.New,
		getenv:    os.Getenv,
	}
	for _, o := range opts {
		o(t)
	}
	t.defaultEP = llm.Endpoint{
		Provider: env.LLMProvider,
		BaseURL:  env.LLMBaseURL,
		APIKey:   env.LLMAPIKey,
		Model:    env.LLMModel,
	}
	dc, err := t.client(t.defaultEP)
	if err != nil {
		return nil, err
	}
	t.defaultClient = dc

	stages := make([]pipeline.Stage, 0, len(Blueprint))
	for _, step := range Blueprint {
		task, err := cfg.Task(step.Task)
		if err != nil {
			return nil, err
		}
		agentKey := task.Agent
		agent, ok := cfg.Agents[agentKey]
		if !ok {
			return nil, fmt.Errorf("%w: task '%s' references unknown agent '%s'", config.ErrUnknownAgent, step.Task, agentKey)
		}

		ep := t.endpointFor(agentKey, agent)
		c, err := t.client(ep)
		if err != nil {
			return nil, fmt.Errorf("agent '%s': %w", agentKey, err)
		}

		role := agent.Role
		if role == "" {
			role = agentKey
		}
		spec := pipeline.StageSpec{
			Name: step.Stage,
			Prompt: pipeline.Prompt{
				Role:           role,
				Goal:           agent.Goal,
				Backstory:      agent.Backstory,
				Description:    task.Description,
				ExpectedOutput: task.ExpectedOutput,
			},
			Reads:    step.Reads,
			Writes:   step.Writes,
			Upstream: step.Upstream,
		}
		stages = append(stages, pipeline.NewLLMStage(spec, c, ep.Model, env.LLMTemperature))
		t.members = append(t.members, Member{Stage: step.Stage, Task: step.Task, Agent: agentKey, Endpoint: ep})

		logx.Debug("Team", "stage %s -> agent %s (%s %s)", step.Stage, agentKey, ep.Provider, ep.Model)
	}

	p, err := pipeline.New(stages, t.pipelineOpt...)
	if err != nil {
		return nil, err
	}
	t.pipeline = p
	return t, nil
}

// endpointFor overlays an agent's overrides on the default endpoint.
func (t *Team) endpointFor(key string, a config.Agent) llm.Endpoint {
	if ep, ok := t.endpoints[key]; ok {
		return ep
	}
	ep := t.defaultEP
	if a.Provider != "" {
		ep.Provider = a.Provider
	}
	if a.LLMAPIURL != "" {
		ep.BaseURL = a.LLMAPIURL
	}
	if a.LLMAPIKeyEnvVar != "" {
		if v := t.getenv(a.LLMAPIKeyEnvVar); v != "" {
			ep.APIKey = v
		}
	}
	if a.Model != "" {
		ep.Model = a.Model
	}
	t.endpoints[key] = ep
	return ep
}

// client returns the shared client for ep, building it on first use.
func (t *Team) client(ep llm.Endpoint) (llm.Client, error) {
	if c, ok := t.clients[ep.Key()]; ok {
		return c, nil
	}
	c, err := t.newClient(ep, t.env.LLMTimeout)
	if err != nil {
		return nil, err
	}
	t.clients[ep.Key()] = c
	return c, nil
}

// Run executes the team for topic and returns the final result and logs.
func (t *Team) Run(ctx context.Context, topic string) (string, []string, error) {
	return t.pipeline.Run(ctx, topic)
}

// RunState executes the team and returns every stage output.
func (t *Team) RunState(ctx context.Context, topic string) (*pipeline.State, error) {
	st := pipeline.NewState(topic)
	err := t.pipeline.RunState(ctx, st)
	return st, err
}

// Ping checks the default endpoint, which backs readiness.
func (t *Team) Ping(ctx context.Context) error {
	return t.defaultClient.Ping(ctx)
}

// Members lists the resolved stages in run order.
func (t *Team) Members() []Member {
	return append([]Member(nil), t.members...)
}

// Clients reports how many distinct completion clients back the team.
func (t *Team) Clients() int {
	return len(t.clients)
}
