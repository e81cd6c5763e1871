package team

import "github.com/ccastromar/aos-research-team/internal/pipeline"

// Step binds one pipeline stage to the task that drives it. The agent comes
// from the task definition.
type Step struct {
	Stage    string
	Task     string
	Reads    []pipeline.Field
	Writes   pipeline.Field
	Upstream func(st pipeline.State) string
}

// Blueprint is the research team: researcher, writer, reviewer, finalizer.
var Blueprint = []Step{
	{
		Stage:  "researcher",
		Task:   "research_topic",
		Reads:  []pipeline.Field{pipeline.FieldTopic},
		Writes: pipeline.FieldResearch,
		Upstream: func(st pipeline.State) string {
			return "Topic: " + st.Topic
		},
	},
	{
		Stage:  "writer",
		Task:   "write_draft",
		Reads:  []pipeline.Field{pipeline.FieldResearch},
		Writes: pipeline.FieldDraft,
		Upstream: func(st pipeline.State) string {
			return "Use this research:\n\n" + st.Research
		},
	},
	{
		Stage:  "reviewer",
		Task:   "review_draft",
		Reads:  []pipeline.Field{pipeline.FieldDraft},
		Writes: pipeline.FieldReview,
		Upstream: func(st pipeline.State) string {
			return "Review and improve this draft:\n\n" + st.Draft
		},
	},
	{
		Stage:  "finalizer",
		Task:   "finalize_output",
		Reads:  []pipeline.Field{pipeline.FieldTopic, pipeline.FieldResearch, pipeline.FieldDraft, pipeline.FieldReview},
		Writes: pipeline.FieldResult,
		Upstream: func(st pipeline.State) string {
			return "Topic: " + st.Topic +
				"\n\nResearch:\n" + st.Research +
				"\n\nDraft:\n" + st.Draft +
				"\n\nReviewer notes:\n" + st.Review +
				"\n\nProduce the final result."
		},
	},
}
