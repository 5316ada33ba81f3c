package workload

import "fmt"

// Outcome is a three-way classification of a terminal workload, grounded on
// the teacher's runtime.DetermineOutcome (which classifies a subprocess run
// from an exit code and a terminal event into success/script-error/crash).
// Here the classification is simpler because the state machine is already
// the source of truth: it exists purely to give CLI/telemetry consumers one
// human-readable summary instead of re-deriving it from (State, error) at
// every call site.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeFaulted
	OutcomeCanceled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFaulted:
		return "faulted"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Classify turns a terminal (state, error) pair into an Outcome plus a
// human-readable message. Calling it on a non-terminal state is a caller
// error; it returns OutcomeFaulted with a diagnostic message rather than
// panicking, since this is an informational helper, not a core transition.
func Classify(state State, err error) (Outcome, string) {
	switch state {
	case RanToCompletion:
		return OutcomeCompleted, "workload completed successfully"
	case Canceled:
		return OutcomeCanceled, "workload was canceled"
	case Faulted:
		msg := "workload faulted"
		if err != nil {
			msg = err.Error()
		}
		return OutcomeFaulted, msg
	default:
		return OutcomeFaulted, fmt.Sprintf("classify called on non-terminal state %s", state)
	}
}

// ClassifyWorkload is a convenience wrapper over Classify that reads w's
// current state and result in one call.
func ClassifyWorkload(w *Workload) (Outcome, string) {
	_, err := w.Result()
	return Classify(w.State(), err)
}
