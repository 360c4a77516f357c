package services

import (
	"fmt"
	"io"
	"strings"

	"naver-map-bookmarker/models"
)

const previewRows = 5

// Reporter prints the console summaries that bracket a run.
type Reporter struct {
	out io.Writer
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// PrintPreview shows how many rows were loaded and a sample of the first few.
func (r *Reporter) PrintPreview(places []*models.Place) {
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(r.out, "\n\033[1;33m  Loaded %d places\033[0m\n", len(places))
	fmt.Fprintf(r.out, "  %s\n", thin)
	if len(places) == 0 {
		fmt.Fprintf(r.out, "  No data rows found\n\n")
		return
	}

	n := len(places)
	if n > previewRows {
		n = previewRows
	}
	for _, p := range places[:n] {
		fmt.Fprintf(r.out, "  %4d  %-24s %s\n", p.Row, truncate(p.Name, 24), truncate(p.Address, 40))
	}
	if len(places) > n {
		fmt.Fprintf(r.out, "  ... and %d more\n", len(places)-n)
	}
	fmt.Fprintln(r.out)
}

// PrintSummary prints the final counters.
func (r *Reporter) PrintSummary(s *models.Summary) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(r.out, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(r.out, "\033[1;35m  NAVER MAP BOOKMARK RESULTS\033[0m\n")
	fmt.Fprintf(r.out, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(r.out, "  %s\n", thin)
	fmt.Fprintf(r.out, "  Total   : \033[1m%d\033[0m\n", s.Total)
	fmt.Fprintf(r.out, "  Success : \033[1;32m%d\033[0m\n", s.Success)
	fmt.Fprintf(r.out, "  Failure : \033[1;31m%d\033[0m\n", s.Failure)
	if s.Interrupted {
		fmt.Fprintf(r.out, "  Skipped : \033[1;33m%d\033[0m (run interrupted)\n", s.Remaining())
	}

	fmt.Fprintf(r.out, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
