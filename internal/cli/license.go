package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/lwgate/internal/gate"
	"github.com/roach88/lwgate/internal/license"
)

// MachineCodeResult is the machine-code command payload.
type MachineCodeResult struct {
	MachineCode string `json:"machine_code"`
}

// NewMachineCodeCommand creates the machine-code command.
func NewMachineCodeCommand(rootOpts *RootOptions) *cobra.Command {
	var params license.Params

	cmd := &cobra.Command{
		Use:   "machine-code",
		Short: "Print the machine code for this host",
		Long: `Print the machine code.

--mc is used verbatim when it looks like a machine code (1-5 digits, dash,
1-5 digits). Otherwise --home and --ver seed the hash; with neither set the
Go runtime platform and version are used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			mc := license.DeriveMachineID(params, license.RuntimeEnv{})
			if formatter.Format == "json" {
				return formatter.Success(MachineCodeResult{MachineCode: mc})
			}
			return formatter.Success(mc)
		},
	}

	cmd.Flags().StringVar(&params.MC, "mc", "", "machine code override")
	cmd.Flags().StringVar(&params.Home, "home", "", "seed component")
	cmd.Flags().StringVar(&params.Ver, "ver", "", "seed component")

	return cmd
}

// LicenseResult is the license command payload.
type LicenseResult struct {
	MachineCode string `json:"machine_code"`
	License     string `json:"license"`
}

// NewLicenseCommand creates the license command.
func NewLicenseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "license <machine-code>",
		Short: "Derive the license code for a machine code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			code := license.DeriveCode(args[0])
			if code == license.ErrorCode {
				return formatter.Fail(ExitFailure, ErrCodeInvalidInput,
					fmt.Sprintf("malformed machine code %q", args[0]), nil)
			}
			if formatter.Format == "json" {
				return formatter.Success(LicenseResult{MachineCode: args[0], License: code})
			}
			return formatter.Success(code)
		},
	}
}

// VerifyResult is the verify command payload.
type VerifyResult struct {
	Valid       bool   `json:"valid"`
	MachineCode string `json:"machine_code"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <machine-code> <license>",
		Short: "Check a license against a machine code",
		Long: `Check a license against a machine code using the same gate transition
the site runs. Exits 1 when the license is refused.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			g := gate.New(gate.NewMemoryStore(), gate.WithLogger(newLogger(rootOpts, cmd.ErrOrStderr(), slog.LevelWarn)))
			_, err := g.Verify(cmd.Context(), args[0], args[1])

			var verr *gate.VerifyError
			switch {
			case err == nil:
				if formatter.Format == "json" {
					return formatter.Success(VerifyResult{Valid: true, MachineCode: args[0]})
				}
				return formatter.Success("✓ license valid")
			case errors.As(err, &verr):
				return formatter.Fail(ExitFailure, ErrCodeRefused, "license refused",
					map[string]string{"reason": string(verr.Reason)})
			default:
				return WrapExitError(ExitCommandError, "verify", err)
			}
		},
	}
}
