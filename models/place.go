package models

import (
	"strings"
	"time"
)

// RawPlace is one spreadsheet data row exactly as read from the input file.
type RawPlace struct {
	Row     int // 1-based sheet row, header is row 1
	Name    string
	Address string
}

// Place is a cleaned row ready to be searched on the map.
type Place struct {
	Row     int
	Name    string
	Address string
}

// Query returns the text typed into the map search box.
func (p *Place) Query() string {
	return strings.TrimSpace(p.Name + " " + p.Address)
}

// Stage names a step of the per-row bookmarking sequence.
type Stage string

const (
	StageSearch       Stage = "search"
	StageSelectResult Stage = "select_result"
	StageBookmark     Stage = "bookmark"
	StageDone         Stage = "done"
)

// RowResult is the outcome of processing a single place.
type RowResult struct {
	Place    *Place
	Stage    Stage // last stage reached; StageDone on success
	Err      error
	Duration time.Duration
}

// OK reports whether the row finished the full sequence.
func (r *RowResult) OK() bool {
	return r.Err == nil && r.Stage == StageDone
}

// Summary holds the run counters printed at the end.
type Summary struct {
	Total       int
	Success     int
	Failure     int
	Interrupted bool
}

// Remaining is the number of rows never attempted.
func (s *Summary) Remaining() int {
	return s.Total - s.Success - s.Failure
}
