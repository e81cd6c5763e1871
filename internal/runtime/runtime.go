package runtime

import (
	"github.com/ccastromar/aos-research-team/internal/llm"
)

// Runtime is what readiness looks at: whether the definitions loaded and
// how to reach the default completion endpoint. It is fixed once the app is
// built.
type Runtime struct {
	configLoaded bool
	LLM          llm.Pinger
}

func New(configLoaded bool, p llm.Pinger) *Runtime {
	return &Runtime{configLoaded: configLoaded, LLM: p}
}

func (r *Runtime) ConfigLoaded() bool { return r.configLoaded }
