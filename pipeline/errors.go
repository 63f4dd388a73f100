package pipeline

import (
	"errors"
	"fmt"
)

// Stage names, in pipeline order.
const (
	StageAcquisition   = "acquisition"
	StageTranscription = "transcription"
	StageGeneration    = "generation"
	StagePersistence   = "persistence"
)

// Classified failure kinds. Clients only ever see the kind, never the
// underlying error text.
const (
	KindInput                = "InputError"
	KindAcquisition          = "AcquisitionError"
	KindTranscriptionInput   = "TranscriptionInputError"
	KindTranscriptionService = "TranscriptionServiceError"
	KindGenerationService    = "GenerationServiceError"
	KindGenerationParse      = "GenerationParseError"
	KindPersistence          = "PersistenceError"
)

// StageError is a pipeline failure as an ordinary value: which stage failed,
// its classified kind, a short reason, and the underlying error for logs.
type StageError struct {
	Stage  string
	Kind   string
	Reason string
	Err    error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Reason)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *StageError) Unwrap() error {
	return e.Err
}

// ClientMessage is the only error text exposed outside the server.
func (e *StageError) ClientMessage() string {
	return fmt.Sprintf("Server processing failed: %s - check server logs for details.", e.Kind)
}

func stageErr(stage, kind, reason string, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Reason: reason, Err: err}
}

// AsStageError extracts a *StageError, or classifies an unknown error under
// the given stage and kind.
func AsStageError(err error, stage, kind string) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	return stageErr(stage, kind, err.Error(), err)
}
