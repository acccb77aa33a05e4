package api

import "fmt"

// OutcomeKind tags the result of one recognition submission.
type OutcomeKind int

const (
	// OutcomeMatched means the face was verified and the attendance record
	// was created. The workflow ends and the camera is closed.
	OutcomeMatched OutcomeKind = iota
	// OutcomeRetryable covers low-confidence and no-match rejections. The
	// camera stays open and the user may capture a fresh frame.
	OutcomeRetryable
	// OutcomeAlreadyMarked means the server refused a duplicate for today.
	// The camera stays open like any other rejection; the daily gate closes
	// so no further submission is offered.
	OutcomeAlreadyMarked
	// OutcomeTransportError covers timeouts and network failures. Retryable
	// with a generic message; no credential impact.
	OutcomeTransportError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeMatched:
		return "matched"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeAlreadyMarked:
		return "already-marked"
	case OutcomeTransportError:
		return "transport-error"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the classified response of one attendance submission. It is
// transient: it drives the workflow's next state and the message shown to
// the user, then is discarded.
type Outcome struct {
	Kind          OutcomeKind
	Message       string
	Confidence    float64 // valid only when HasConfidence
	HasConfidence bool
	Threshold     float64
	Suggestions   []string
	Details       string
	Blinks        int // blink count from burst submissions
	Record        *AttendanceRecord
}

// Terminal reports whether the workflow ends after this outcome. Only a
// match closes the camera; every other outcome leaves it open.
func (o *Outcome) Terminal() bool {
	return o.Kind == OutcomeMatched
}
