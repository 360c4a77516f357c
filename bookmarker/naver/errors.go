package naver

import (
	"errors"
	"fmt"
	"strings"

	"naver-map-bookmarker/models"
)

var errEmptyQuery = errors.New("row has neither business name nor address")

// ElementNotFoundError means every selector candidate for a stage timed out.
type ElementNotFoundError struct {
	Stage models.Stage
	Tried []string
	Err   error // last candidate's error
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("%s: no element matched (tried %s): %v",
		e.Stage, strings.Join(e.Tried, " | "), e.Err)
}

func (e *ElementNotFoundError) Unwrap() error { return e.Err }

// RowFault is a panic recovered while processing a single row.
type RowFault struct {
	Row   int
	Value any
	Stack []byte
}

func (e *RowFault) Error() string {
	return fmt.Sprintf("unexpected fault on row %d: %v", e.Row, e.Value)
}

// TopLevelFault is a failure outside the row loop: opening the login or map
// page, an operator prompt, or a panic in the run itself.
type TopLevelFault struct {
	Err   error
	Stack []byte
}

func (e *TopLevelFault) Error() string {
	return "run aborted: " + e.Err.Error()
}

func (e *TopLevelFault) Unwrap() error { return e.Err }
