package dberrors

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the application reacts to.
const (
	CodeUniqueViolation     = "23505"
	CodeCheckViolation      = "23514"
	CodeForeignKeyViolation = "23503"
	CodeNotNullViolation    = "23502"
	CodeSyntaxError         = "42601"
	CodeUndefinedTable      = "42P01"
	CodeUndefinedColumn     = "42703"
	CodeUndefinedFunction   = "42883"
	CodeQueryCanceled       = "57014"
	CodeActiveSQLTx         = "25001"
	CodeLockNotAvailable    = "55P03"
	CodeDeadlockDetected    = "40P01"
)

// Kind groups SQLSTATE codes into the categories shown to learners.
type Kind string

const (
	KindSyntax     Kind = "syntax"
	KindUndefined  Kind = "undefined_object"
	KindConstraint Kind = "constraint_violation"
	KindTimeout    Kind = "timeout"
	KindConflict   Kind = "concurrency"
	KindData       Kind = "data_exception"
	KindOther      Kind = "other"
)

// Classified is the part of a PostgreSQL error worth reporting.
type Classified struct {
	Kind     Kind   `json:"kind"`
	SQLState string `json:"sqlstate"`
	Message  string `json:"message"`
	Detail   string `json:"detail,omitempty"`
	Hint     string `json:"hint,omitempty"`
	Position int32  `json:"position,omitempty"`
}

// Classify extracts the PostgreSQL error from err. The boolean is false when
// err did not come from the server; a context deadline counts as a timeout.
func Classify(err error) (Classified, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return Classified{
			Kind:     kindOf(pgErr.Code),
			SQLState: pgErr.Code,
			Message:  pgErr.Message,
			Detail:   pgErr.Detail,
			Hint:     pgErr.Hint,
			Position: pgErr.Position,
		}, true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Classified{Kind: KindTimeout, SQLState: CodeQueryCanceled, Message: "canceling statement due to statement timeout"}, true
	}
	return Classified{}, false
}

func kindOf(code string) Kind {
	switch {
	case code == CodeQueryCanceled || code == CodeLockNotAvailable:
		return KindTimeout
	case code == CodeDeadlockDetected || code == "40001":
		return KindConflict
	case code == CodeSyntaxError || code == "42804" || code == "42803" || code == "42702":
		return KindSyntax
	case len(code) == 5 && code[:2] == "42":
		return KindUndefined
	case len(code) == 5 && code[:2] == "23":
		return KindConstraint
	case len(code) == 5 && code[:2] == "22":
		return KindData
	}
	return KindOther
}
