package pipeline

import (
	"sort"
	"strings"

	"github.com/ccastromar/aos-research-team/internal/llm"
)

// Prompt is the agent persona plus the task it is asked to do.
type Prompt struct {
	Role           string
	Goal           string
	Backstory      string
	Description    string
	ExpectedOutput string
}

// BuildMessages renders p as a system message (persona) and a user message
// (task, upstream context, expected output hint).
func BuildMessages(p Prompt, extraUser string) []llm.Message {
	sys := "You are a helpful " + p.Role + ".\nGoal: " + p.Goal + "\n"
	if p.Backstory != "" {
		sys += "Backstory: " + p.Backstory
	}

	user := p.Description + "\n\n" + extraUser + "\n"
	if p.ExpectedOutput != "" {
		user += "Expected output: " + p.ExpectedOutput
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: strings.TrimSpace(sys)},
		{Role: llm.RoleUser, Content: strings.TrimSpace(user)},
	}
}

// Interpolate replaces {key} placeholders with inputs[key]. Unknown
// placeholders are left untouched.
func Interpolate(s string, inputs map[string]string) string {
	if len(inputs) == 0 || !strings.Contains(s, "{") {
		return s
	}
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", inputs[k])
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// Interpolated returns a copy of p with Interpolate applied to every field.
func (p Prompt) Interpolated(inputs map[string]string) Prompt {
	return Prompt{
		Role:           Interpolate(p.Role, inputs),
		Goal:           Interpolate(p.Goal, inputs),
		Backstory:      Interpolate(p.Backstory, inputs),
		Description:    Interpolate(p.Description, inputs),
		ExpectedOutput: Interpolate(p.ExpectedOutput, inputs),
	}
}
