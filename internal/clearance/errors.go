package clearance

import "fmt"

// Stage identifies which step of an anchoring or verification sequence
// failed, so a caller can resume from that step instead of restarting the
// whole flow blindly.
type Stage string

const (
	StageStore  Stage = "store"
	StageIndex  Stage = "index"
	StageLedger Stage = "ledger"
)

// StageError wraps an adapter failure with the stage it occurred in. The
// wrapped error keeps the adapter's taxonomy — unavailable vs rejected vs
// conflict — intact for errors.Is checks.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
