package chat

import "errors"

var (
	// ErrReformulationFailed means the history-aware reformulation call
	// failed; callers fall back to the verbatim question.
	ErrReformulationFailed = errors.New("query reformulation failed")

	// ErrGenerationFailed means answer generation failed; the turn is
	// surfaced to the user as a generic failure and not recorded.
	ErrGenerationFailed = errors.New("answer generation failed")

	// ErrMaxStepsExceeded means the agent loop hit its step limit
	// before producing a final answer.
	ErrMaxStepsExceeded = errors.New("agent exceeded maximum steps")
)
