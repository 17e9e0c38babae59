package pipeline

import "fmt"

// Pipeline stages, used to attribute failures.
const (
	StageParse        = "parse"
	StageCanonicalize = "canonicalize"
	StageHash         = "hash"
	StageSelect       = "select"
	StageKey          = "key"
	StageEncode       = "encode"
	StageAssemble     = "assemble"
)

// Error attributes a failure to a pipeline stage. The wrapped error is one of
// the sentinel values exported by the email, witness and prover packages, so
// callers can branch with errors.Is while still seeing where it happened.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("%s stage: %v", e.Stage, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

func stageErr(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Stage: stage, Err: err}
}
