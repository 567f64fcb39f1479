package dto

import (
	"github.com/yigit/sqlguide/internal/grader"
	"github.com/yigit/sqlguide/internal/pkg/resultset"
)

// ResultSetData is a result set as the API shows it: cells as strings with
// SQL NULL as null, plus the psql rendering.
type ResultSetData struct {
	Columns  []string    `json:"columns"`
	Rows     [][]*string `json:"rows"`
	Tag      string      `json:"tag" example:"SELECT 1"`
	Rendered string      `json:"rendered"`
}

// AttemptResponse is the grading verdict for learner SQL
type AttemptResponse struct {
	ChallengeID string                 `json:"challengeId" example:"1.9"`
	Verdict     string                 `json:"verdict" example:"correct" enums:"correct,incorrect,error,timeout"`
	Message     string                 `json:"message,omitempty"`
	Hint        string                 `json:"hint,omitempty"`
	Diff        *resultset.Diff        `json:"diff,omitempty"`
	Error       *grader.StatementError `json:"error,omitempty"`
	Result      *ResultSetData         `json:"result,omitempty"`
	DurationMs  int64                  `json:"durationMs"`
}

// CheckResponse reports whether a reference solution reproduces its
// documented output
type CheckResponse struct {
	ChallengeID string                 `json:"challengeId" example:"1.9"`
	Status      string                 `json:"status" example:"pass" enums:"pass,fail,skip,error"`
	Message     string                 `json:"message,omitempty"`
	Diff        *resultset.Diff        `json:"diff,omitempty"`
	Error       *grader.StatementError `json:"error,omitempty"`
	DurationMs  int64                  `json:"durationMs"`
}

// FromResultSet converts a resultset.ResultSet to ResultSetData
func FromResultSet(rs *resultset.ResultSet) *ResultSetData {
	if rs == nil {
		return nil
	}
	data := &ResultSetData{
		Columns:  rs.ColumnNames(),
		Rows:     make([][]*string, 0, len(rs.Rows)),
		Tag:      rs.Tag,
		Rendered: rs.String(),
	}
	for _, row := range rs.Rows {
		cells := make([]*string, len(row))
		for i, cell := range row {
			if !cell.Null {
				v := cell.Value
				cells[i] = &v
			}
		}
		data.Rows = append(data.Rows, cells)
	}
	return data
}

// FromAttemptResult converts a grader.AttemptResult to an AttemptResponse
func FromAttemptResult(res *grader.AttemptResult) AttemptResponse {
	return AttemptResponse{
		ChallengeID: res.ChallengeID,
		Verdict:     string(res.Verdict),
		Message:     res.Message,
		Hint:        res.Hint,
		Diff:        res.Diff,
		Error:       res.Error,
		Result:      FromResultSet(res.Result),
		DurationMs:  res.Duration.Milliseconds(),
	}
}

// FromCheckResult converts a grader.CheckResult to a CheckResponse
func FromCheckResult(res *grader.CheckResult) CheckResponse {
	return CheckResponse{
		ChallengeID: res.ChallengeID,
		Status:      string(res.Status),
		Message:     res.Message,
		Diff:        res.Diff,
		Error:       res.Error,
		DurationMs:  res.Duration.Milliseconds(),
	}
}
