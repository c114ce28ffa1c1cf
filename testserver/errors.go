package testserver

import (
	"errors"
	"fmt"

	"github.com/drblury/contractserver/contract"
)

// Stage names a step of the server pipeline.
type Stage string

const (
	StageLoad     Stage = "load"
	StageResolve  Stage = "resolve"
	StageBuild    Stage = "build"
	StageMutate   Stage = "mutate"
	StageFinalize Stage = "finalize"
	StageServe    Stage = "serve"
)

// State is the progress of one pipeline run.
type State string

const (
	StateUnloaded State = "unloaded"
	StateResolved State = "resolved"
	StateBuilt    State = "built"
	StateMutated  State = "mutated"
	StateServing  State = "serving"
	StateFailed   State = "failed"
)

var (
	// ErrFactory reports that the route builder factory failed.
	ErrFactory = errors.New("route builder factory failed")
	// ErrMutation reports that the caller's mutator failed or returned no builder.
	ErrMutation = errors.New("route builder mutation failed")
	// ErrFinalize reports that the builder could not be turned into a router.
	ErrFinalize = errors.New("router finalization failed")
	// ErrBind reports that the server could not listen or never became ready.
	ErrBind = errors.New("server bind failed")
	// ErrAlreadyCreated is returned by a Harness asked for a second server.
	ErrAlreadyCreated = errors.New("server already created for this test")
)

// StageError is returned for any pipeline failure. State is the last state
// reached before the failure. Kind is the sentinel of the failing stage.
type StageError struct {
	Stage Stage
	State State
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("testserver: %s stage failed after %s: %v", e.Stage, e.State, e.Err)
}

// Unwrap exposes both the stage kind and the cause to errors.Is and errors.As.
func (e *StageError) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Kind, e.Err}
}

func stageKind(stage Stage, err error) error {
	switch stage {
	case StageLoad:
		if errors.Is(err, contract.ErrParse) {
			return contract.ErrParse
		}
		return contract.ErrRead
	case StageResolve:
		return contract.ErrResolve
	case StageBuild:
		return ErrFactory
	case StageMutate:
		return ErrMutation
	case StageFinalize:
		return ErrFinalize
	case StageServe:
		return ErrBind
	}
	return nil
}
