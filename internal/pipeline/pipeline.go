// Package pipeline runs a fixed, strictly ordered list of stages over a
// shared State and captures what the stages log while they run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ccastromar/aos-research-team/internal/logx"
	"github.com/ccastromar/aos-research-team/internal/metrics"
)

var (
	ErrInvalidOrder = errors.New("invalid stage order")
	ErrRunFailed    = errors.New("run failed")
)

const defaultLoggerName = "team"

type Pipeline struct {
	stages      []Stage
	console     slog.Handler
	consoleSet  bool
	captureOpts []logx.CaptureOption
	loggerName  string
}

type Option func(*Pipeline)

// WithConsole sets the handler that receives run logs next to the capture.
// Nil disables it. By default the process default logger's handler is used.
func WithConsole(h slog.Handler) Option {
	return func(p *Pipeline) {
		p.console = h
		p.consoleSet = true
	}
}

func WithCaptureOptions(opts ...logx.CaptureOption) Option {
	return func(p *Pipeline) { p.captureOpts = append(p.captureOpts, opts...) }
}

// WithLoggerName sets the logger name stages log under. Default "team".
func WithLoggerName(name string) Option {
	return func(p *Pipeline) { p.loggerName = name }
}

// New validates the stage order: every read must be the topic or a field
// written by an earlier stage, no field is written twice and nothing writes
// the topic.
func New(stages []Stage, opts ...Option) (*Pipeline, error) {
	written := map[Field]string{FieldTopic: ""}
	for i, s := range stages {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: stage %d has no name", ErrInvalidOrder, i)
		}
		if s.Run == nil {
			return nil, fmt.Errorf("%w: stage %q has no run function", ErrInvalidOrder, s.Name)
		}
		if !s.Writes.valid() || s.Writes == FieldTopic {
			return nil, fmt.Errorf("%w: stage %q cannot write %s", ErrInvalidOrder, s.Name, s.Writes)
		}
		for _, r := range s.Reads {
			if _, ok := written[r]; !ok {
				return nil, fmt.Errorf("%w: stage %q reads %s before it is written", ErrInvalidOrder, s.Name, r)
			}
		}
		if prev, dup := written[s.Writes]; dup {
			return nil, fmt.Errorf("%w: stages %q and %q both write %s", ErrInvalidOrder, prev, s.Name, s.Writes)
		}
		written[s.Writes] = s.Name
	}

	p := &Pipeline{
		stages:     append([]Stage(nil), stages...),
		loggerName: defaultLoggerName,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// StageNames lists the stages in execution order.
func (p *Pipeline) StageNames() []string {
	out := make([]string, len(p.stages))
	for i, s := range p.stages {
		out[i] = s.Name
	}
	return out
}

// Run executes every stage for topic and returns the last stage's output
// together with the captured log lines.
func (p *Pipeline) Run(ctx context.Context, topic string) (string, []string, error) {
	st := NewState(topic)
	err := p.RunState(ctx, st)
	var result string
	if n := len(p.stages); n > 0 {
		result = st.Get(p.stages[n-1].Writes)
	}
	return result, st.Logs, err
}

// RunState executes every stage against st. Logs emitted through the run
// context are captured into st.Logs even when the run fails. A stage panic
// stops the run with ErrRunFailed; a cancelled context stops it before the
// next stage with the context error.
func (p *Pipeline) RunState(ctx context.Context, st *State) (err error) {
	capture := logx.NewCapture(p.captureOpts...)
	console := p.console
	if !p.consoleSet {
		console = slog.Default().Handler()
	}
	log := slog.New(logx.Tee(console, capture)).With(logx.LoggerKey, p.loggerName)
	ctx = logx.WithLogger(ctx, log)

	start := time.Now()
	defer func() {
		st.Logs = capture.Lines()
		outcome := "ok"
		if err != nil {
			outcome = "failed"
		}
		metrics.Runs.WithLabelValues(outcome).Inc()
		metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("before stage %s: %w", s.Name, err)
		}
		if err := runStage(ctx, s, st); err != nil {
			return err
		}
	}
	return nil
}

func runStage(ctx context.Context, s Stage, st *State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.FromContext(ctx).Error(Title(s.Name)+" crashed", "panic", fmt.Sprint(r))
			err = fmt.Errorf("%w: stage %s: %v", ErrRunFailed, s.Name, r)
		}
	}()
	s.Run(ctx, st)
	return nil
}
