package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yigit/sqlguide/internal/pkg/apperrors"
	"github.com/yigit/sqlguide/internal/pkg/auth"
)

// NewHashPasswordCommand creates the hash-password command.
func NewHashPasswordCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for the admin password",
		Long:  "Hash a password for admin.password_hash (ADMIN_PASSWORD_HASH). Without an argument the password is read from the first line of standard input.",
		Example: `  sqlguide hash-password 's3cret'
  echo 's3cret' | sqlguide hash-password`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return formatter.fail(ExitCommandError, "failed to read password", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return formatter.fail(ExitCommandError, "empty password", fmt.Errorf("%w: password must not be empty", apperrors.ErrBadRequest))
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return formatter.fail(ExitCommandError, "failed to hash password", err)
			}
			return formatter.Result(true, map[string]string{"hash": hash}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, hash)
				return err
			})
		},
	}
}
