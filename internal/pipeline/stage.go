package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ccastromar/aos-research-team/internal/llm"
	"github.com/ccastromar/aos-research-team/internal/logx"
	"github.com/ccastromar/aos-research-team/internal/metrics"
)

// Stage is one step of a pipeline. Run must only write st.Get(Writes) and
// may only read Reads; New checks the declared fields, not the function.
type Stage struct {
	Name   string
	Reads  []Field
	Writes Field
	Run    func(ctx context.Context, st *State)
}

// StageSpec describes a stage backed by a completion call.
type StageSpec struct {
	Name   string
	Prompt Prompt
	Reads  []Field
	Writes Field

	// Upstream renders the fields this stage reads into the user message.
	Upstream func(st State) string
}

// NewLLMStage builds the standard stage: prompt the model once and store the
// reply. {topic} placeholders in the prompt are filled from the run's topic.
// Completion errors never escape; they are logged and stored inline as
// "LLM error in <stage>: <err>" so later stages still run.
func NewLLMStage(spec StageSpec, client llm.Completer, model string, temperature float64) Stage {
	title := Title(spec.Name)
	return Stage{
		Name:   spec.Name,
		Reads:  spec.Reads,
		Writes: spec.Writes,
		Run: func(ctx context.Context, st *State) {
			log := logx.FromContext(ctx)
			log.Info(title + " running")

			var upstream string
			if spec.Upstream != nil {
				upstream = spec.Upstream(*st)
			}

			timer := logx.Start(log, st.Topic, "pipeline", spec.Name)
			out, err := client.Complete(ctx, llm.Request{
				Model:       model,
				Messages:    BuildMessages(spec.Prompt.Interpolated(map[string]string{"topic": st.Topic}), upstream),
				Temperature: temperature,
			})
			timer.End()

			if err != nil {
				log.Error(title+" failed", "error", err)
				metrics.Stages.WithLabelValues(spec.Name, "error").Inc()
				st.Set(spec.Writes, fmt.Sprintf("LLM error in %s: %v", spec.Name, err))
				return
			}
			metrics.Stages.WithLabelValues(spec.Name, "ok").Inc()
			st.Set(spec.Writes, out)
		},
	}
}

// Title upper-cases the first letter of a stage name for log lines.
func Title(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
