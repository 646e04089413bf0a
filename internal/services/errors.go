package services

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyAssistantResponse means a run completed but the thread's latest
	// assistant message carried no text.
	ErrEmptyAssistantResponse = errors.New("assistant produced an empty response")

	// ErrScoringFailed means the quality model returned something that could
	// not be read as a score.
	ErrScoringFailed = errors.New("quality scoring failed")

	// ErrThreadAssistantMismatch is returned when a caller-supplied thread id
	// belongs to a different assistant.
	ErrThreadAssistantMismatch = errors.New("thread belongs to a different assistant")

	// ErrFunctionHandlerMissing means an assistant requires tool servicing but
	// no handler registry was configured.
	ErrFunctionHandlerMissing = errors.New("no function handler registry configured")
)

// RunFailedError reports a run that reached a non-completed terminal status.
type RunFailedError struct {
	Status  string
	Message string
}

func (e *RunFailedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("run ended with status %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("run ended with status %s", e.Status)
}
