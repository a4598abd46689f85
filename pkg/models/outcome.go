package models

// OutcomeStatus is what happened to one item of an action batch
type OutcomeStatus string

const (
	// OutcomeOK indicates the action was performed
	OutcomeOK OutcomeStatus = "ok"
	// OutcomeSkipped indicates nothing was done and nothing went wrong
	// (target exists without overwrite, or the source is already gone)
	OutcomeSkipped OutcomeStatus = "skipped"
	// OutcomeFailed indicates the action failed for this item
	OutcomeFailed OutcomeStatus = "failed"
)

// ItemOutcome is the per-item result of a file action.
// Path is always the source path the outcome refers to.
type ItemOutcome struct {
	Path   string
	Status OutcomeStatus
	Err    error
}

// OK builds a successful outcome
func OK(path string) ItemOutcome {
	return ItemOutcome{Path: path, Status: OutcomeOK}
}

// Skipped builds a skipped outcome
func Skipped(path string) ItemOutcome {
	return ItemOutcome{Path: path, Status: OutcomeSkipped}
}

// Failed builds a failed outcome
func Failed(path string, err error) ItemOutcome {
	return ItemOutcome{Path: path, Status: OutcomeFailed, Err: err}
}
