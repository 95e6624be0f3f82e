package ingest

import "fmt"

// Stage names the pipeline step that failed.
type Stage string

const (
	StageDetect  Stage = "detect"
	StageDecode  Stage = "decode"
	StageEncode  Stage = "encode"
	StagePersist Stage = "persist"
)

// StageError tags a pipeline failure with the step that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
