package guard

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ccastromar/aos-research-team/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Agents: map[string]config.Agent{
			"researcher": {Role: "R", Tools: []string{"docs"}},
			"writer":     {Role: "W"},
		},
		AgentOrder: []string{"researcher", "writer"},
		Tasks: map[string]config.Task{
			"research_topic": {Description: "d", Agent: "researcher"},
			"write_draft":    {Description: "d", Agent: "writer"},
		},
		TaskOrder: []string{"research_topic", "write_draft"},
		Tools: map[string]config.ToolSource{
			"docs": {Name: "docs", Transport: "http", URL: "http://localhost:8811/mcp"},
		},
		ToolOrder: []string{"docs"},
	}
}

func TestValidateTeam_OK(t *testing.T) {
	require.NoError(t, ValidateTeam(baseConfig()))
}

func TestValidateTeam_UnknownAgent(t *testing.T) {
	cfg := baseConfig()
	cfg.Tasks["write_draft"] = config.Task{Description: "d", Agent: "ghostwriter"}

	err := ValidateTeam(cfg)
	require.True(t, errors.Is(err, config.ErrUnknownAgent))
	require.Contains(t, err.Error(), "task 'write_draft' references unknown agent 'ghostwriter'")
}

func TestValidateTeam_TaskWithoutAgent(t *testing.T) {
	cfg := baseConfig()
	cfg.Tasks["write_draft"] = config.Task{Description: "d"}

	err := ValidateTeam(cfg)
	require.True(t, errors.Is(err, config.ErrUnknownAgent))
	require.Contains(t, err.Error(), "task 'write_draft' references unknown agent ''")
}

func TestValidateTeam_UnknownToolSource(t *testing.T) {
	cfg := baseConfig()
	cfg.Agents["writer"] = config.Agent{Role: "W", Tools: []string{"browser"}}

	err := ValidateTeam(cfg)
	require.True(t, errors.Is(err, ErrUnknownSource))
	require.Contains(t, err.Error(), "'writer'")
}

func TestValidateToolSources(t *testing.T) {
	cases := map[string]config.ToolSource{
		"http without url":  {Transport: "http"},
		"stdio without cmd": {Transport: "stdio", URL: "http://x"},
		"unknown transport": {Transport: "sse2", URL: "http://x"},
		"negative timeout":  {Transport: "http", URL: "http://x", TimeoutMs: -1},
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.Tools["docs"] = src
			require.Error(t, ValidateToolSources(cfg))
		})
	}

	cfg := baseConfig()
	cfg.Tools["docs"] = config.ToolSource{Transport: "stdio", Command: "npx", Args: []string{"docs-mcp"}}
	require.NoError(t, ValidateToolSources(cfg))
}

func TestValidateTopic(t *testing.T) {
	got, err := ValidateTopic("  CrewAI vs\tLangGraph\x00 \n")
	require.NoError(t, err)
	require.Equal(t, "CrewAI vs LangGraph", got)

	_, err = ValidateTopic(" \n\t ")
	require.ErrorIs(t, err, ErrEmptyTopic)

	_, err = ValidateTopic(strings.Repeat("é", MaxTopicRunes+1))
	require.ErrorIs(t, err, ErrTopicTooLong)

	got, err = ValidateTopic(strings.Repeat("é", MaxTopicRunes))
	require.NoError(t, err)
	require.Len(t, []rune(got), MaxTopicRunes)
}
