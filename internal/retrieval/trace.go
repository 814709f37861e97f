package retrieval

// TraceStep records one retrieval plan step for observability.
type TraceStep struct {
	Step   string
	Params map[string]any
	Counts map[string]int
}

// Trace accumulates steps and truncates past 10 in summary mode, per spec
// §4.6.
type Trace struct {
	steps     []TraceStep
	truncated bool
	level     DetailLevel
}

func NewTrace(level DetailLevel) *Trace {
	return &Trace{level: level}
}

func (t *Trace) Append(step string, params map[string]any, counts map[string]int) {
	if t.truncated {
		return
	}
	if t.level == DetailSummary && len(t.steps) >= 10 {
		t.truncated = true
		t.steps = append(t.steps, TraceStep{Step: "summary_truncated", Counts: map[string]int{"omitted_steps": -1}})
		return
	}
	t.steps = append(t.steps, TraceStep{Step: step, Params: params, Counts: counts})
}

func (t *Trace) Steps() []TraceStep { return t.steps }
