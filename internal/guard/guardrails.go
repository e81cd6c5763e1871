package guard

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ccastromar/aos-research-team/internal/config"
)

// MaxTopicRunes bounds the topic accepted from the UI, API and CLI.
const MaxTopicRunes = 500

var (
	ErrEmptyTopic    = errors.New("topic is required")
	ErrTopicTooLong  = fmt.Errorf("topic exceeds %d characters", MaxTopicRunes)
	ErrUnknownSource = errors.New("unknown tool source")
)

// ---- team definitions ----

// ValidateTaskAgents checks every task names a declared agent. A task
// without an agent is rejected too.
func ValidateTaskAgents(cfg *config.Config) error {
	for _, name := range cfg.TaskOrder {
		t := cfg.Tasks[name]
		if _, ok := cfg.Agents[t.Agent]; !ok {
			return fmt.Errorf("%w: task '%s' references unknown agent '%s'", config.ErrUnknownAgent, name, t.Agent)
		}
	}
	return nil
}

// ValidateAgentTools checks every agent tool reference names a declared source.
func ValidateAgentTools(cfg *config.Config) error {
	for _, name := range cfg.AgentOrder {
		for _, src := range cfg.Agents[name].Tools {
			if _, ok := cfg.Tools[src]; !ok {
				return fmt.Errorf("%w: agent '%s' uses '%s'", ErrUnknownSource, name, src)
			}
		}
	}
	return nil
}

// ValidateToolSources checks each source has what its transport needs.
func ValidateToolSources(cfg *config.Config) error {
	for _, name := range cfg.ToolOrder {
		src := cfg.Tools[name]
		switch strings.ToLower(src.Transport) {
		case "", "http":
			if src.URL == "" && src.Command == "" {
				return fmt.Errorf("tool source '%s': url is required", name)
			}
		case "stdio":
			if src.Command == "" {
				return fmt.Errorf("tool source '%s': command is required for stdio", name)
			}
		default:
			return fmt.Errorf("tool source '%s': unsupported transport '%s'", name, src.Transport)
		}
		if src.TimeoutMs < 0 {
			return fmt.Errorf("tool source '%s': timeout must not be negative", name)
		}
	}
	return nil
}

// ValidateTeam runs every definition check; the first failure wins.
func ValidateTeam(cfg *config.Config) error {
	if err := ValidateTaskAgents(cfg); err != nil {
		return err
	}
	if err := ValidateAgentTools(cfg); err != nil {
		return err
	}
	return ValidateToolSources(cfg)
}

// ---- run input ----

// ValidateTopic trims the topic, drops control characters and enforces the
// length limit. It returns the cleaned topic.
func ValidateTopic(topic string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, topic)
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return "", ErrEmptyTopic
	}
	if utf8.RuneCountInString(cleaned) > MaxTopicRunes {
		return "", ErrTopicTooLong
	}
	return cleaned, nil
}
