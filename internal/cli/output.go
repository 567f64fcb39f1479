package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/yigit/sqlguide/internal/app/models/dto"
	"github.com/yigit/sqlguide/internal/middleware"
	"github.com/yigit/sqlguide/internal/pkg/resultset"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // A check, attempt, lint or verification did not pass
	ExitCommandError = 2 // Command error (bad arguments, database unreachable, etc.)
)

// ExitError represents an error with a specific exit code. Commands report
// an ExitError through their formatter before returning it.
type ExitError struct {
	Code    int    // Exit code (ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Errors that are not an
// ExitError are command errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// fail reports err and returns it as an ExitError with code.
func (f *OutputFormatter) fail(code int, message string, err error) error {
	_ = f.Error(err)
	return WrapExitError(code, message, err)
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Verbose and progress output, kept off Writer so JSON stays clean
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"` // "ok", "failed" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Result writes data in the configured format. In text mode, text renders
// it. ok selects the JSON status.
func (f *OutputFormatter) Result(ok bool, data interface{}, text func(w io.Writer) error) error {
	if f.Format == "json" {
		status := "ok"
		if !ok {
			status = "failed"
		}
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: status, Data: data})
	}
	return text(f.Writer)
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(err error) error {
	code := string(errorCode(err))
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: err.Error()},
		})
	}

	_, werr := fmt.Fprintf(f.GetErrWriter(), "Error [%s]: %v\n", code, err)
	return werr
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the writer for diagnostic output.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// errorCode maps an error onto the codes the HTTP API uses.
func errorCode(err error) dto.ErrorCode {
	_, code := middleware.LookupError(err)
	return code
}

// writeDiff prints the differences of a failed comparison, one per line.
func writeDiff(w io.Writer, diff *resultset.Diff) {
	if diff == nil {
		return
	}
	for _, c := range diff.Columns {
		fmt.Fprintf(w, "  columns: %s\n", c)
	}
	for _, row := range diff.Missing {
		fmt.Fprintf(w, "  - %s\n", row)
	}
	for _, row := range diff.Unexpected {
		fmt.Fprintf(w, "  + %s\n", row)
	}
	if diff.RowCount != "" {
		fmt.Fprintf(w, "  rows: %s\n", diff.RowCount)
	}
}
