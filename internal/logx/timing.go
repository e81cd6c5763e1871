package logx

import (
	"log/slog"
	"time"
)

type Timer struct {
	start time.Time
	id    string
	comp  string
	op    string
	log   *slog.Logger
}

// Start begins timing op. A nil logger falls back to the default one.
func Start(log *slog.Logger, id, comp, op string) *Timer {
	if log == nil {
		log = slog.Default()
	}
	return &Timer{
		start: time.Now(),
		id:    id,
		comp:  comp,
		op:    op,
		log:   log,
	}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// End logs the elapsed time at debug level and returns it.
func (t *Timer) End() time.Duration {
	elapsed := t.Duration()
	t.log.Debug("timing", "component", t.comp, "id", t.id, "op", t.op, "elapsed", elapsed)
	return elapsed
}
