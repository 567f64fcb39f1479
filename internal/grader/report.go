package grader

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
)

// WriteText renders the report as an aligned table followed by the tally.
// Passing challenges are listed only when all is set.
func (r *Report) WriteText(w io.Writer, all bool) error {
	table := uitable.New()
	table.MaxColWidth = 72
	table.Wrap = true
	table.AddRow("ID", "MODE", "STATUS", "TIME", "MESSAGE")

	listed := 0
	for _, res := range r.Results {
		if !all && res.Status == StatusPass {
			continue
		}
		table.AddRow(res.ChallengeID, res.Mode, strings.ToUpper(string(res.Status)), res.Duration.Round(time.Millisecond), res.Message)
		listed++
	}
	if listed > 0 {
		if _, err := fmt.Fprintln(w, table); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%s challenges: %s in %s\n",
		humanize.Comma(int64(r.Total())), r.Summary(), r.Duration().Round(time.Millisecond))
	return err
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Failures returns the results that failed or errored.
func (r *Report) Failures() []CheckResult {
	var out []CheckResult
	for _, res := range r.Results {
		if res.Status == StatusFail || res.Status == StatusError {
			out = append(out, res)
		}
	}
	return out
}
