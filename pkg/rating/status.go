package rating

// Status is the lifecycle state of an IPCRF submission.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
)

var nextStatus = map[Status]Status{
	StatusDraft:     StatusSubmitted,
	StatusSubmitted: StatusApproved,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved:
		return true
	}
	return false
}

// Editable reports whether ratings may still be replaced.
func (s Status) Editable() bool {
	return s == StatusDraft || s == StatusSubmitted
}

// Transition validates a single forward step. Backward moves, skips and
// no-op moves are all rejected.
func Transition(from, to Status) error {
	if next, ok := nextStatus[from]; ok && next == to {
		return nil
	}
	return &InvalidTransitionError{From: from, To: to}
}
