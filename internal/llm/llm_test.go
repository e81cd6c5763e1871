package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_DispatchesOnProvider(t *testing.T) {
	c, err := New(Endpoint{BaseURL: "http://gw/v1", APIKey: "k"}, time.Second)
	require.NoError(t, err)
	require.IsType(t, &OpenAIClient{}, c)

	c, err = New(Endpoint{Provider: "Anthropic", APIKey: "k"}, time.Second)
	require.NoError(t, err)
	require.IsType(t, &AnthropicClient{}, c)

	c, err = New(Endpoint{Provider: "ollama", BaseURL: "http://localhost:11434/"}, 5*time.Second)
	require.NoError(t, err)
	oc := c.(*OllamaClient)
	require.Equal(t, "http://localhost:11434", oc.BaseURL)
	require.Equal(t, 5*time.Second, oc.Timeout)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Endpoint{Provider: "watsonx"}, time.Second)
	require.True(t, errors.Is(err, ErrUnknownProvider))
}

func TestEndpointKey_IgnoresModel(t *testing.T) {
	a := Endpoint{BaseURL: "u", APIKey: "k", Model: "m1"}
	b := Endpoint{Provider: "openai", BaseURL: "u", APIKey: "k", Model: "m2"}
	require.Equal(t, a.Key(), b.Key())
	require.NotEqual(t, a.Key(), Endpoint{BaseURL: "u", APIKey: "other"}.Key())
}

func TestSplitSystem(t *testing.T) {
	sys, rest := SplitSystem([]Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleSystem, Content: "b"},
	})
	require.Equal(t, "a\n\nb", sys)
	require.Equal(t, []Message{{Role: RoleUser, Content: "u"}}, rest)
}
