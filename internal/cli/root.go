// Package cli implements the tripdeck command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/tripdeck/pkg/tripdeck"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	backend   string
	jsonMode  bool
	logJSON   bool
}

var flags rootFlags

// conf is the loaded configuration, set before any subcommand runs.
var conf *viper.Viper

// NewRootCmd creates the top-level "tripdeck" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	conf = nil
	root := &cobra.Command{
		Use:     "tripdeck",
		Short:   "Plan a trip day by day",
		Long:    "tripdeck keeps a multi-day itinerary and an expense ledger, and serves\nthem to the planner UI over HTTP.",
		Version: tripdeck.Version,
		// Errors are printed once by Execute.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			v, err := loadConfig()
			if err != nil {
				return sysError(err)
			}
			conf = v
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	pf.StringVar(&flags.backend, "backend", "", "storage backend: sqlite, mongo or memory")
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVar(&flags.logJSON, "log-json", false, "write logs as JSON")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newServeCmd(),
		newSeedCmd(),
		newDaysCmd(),
		newItemCmd(),
		newMoveCmd(),
		newTrashCmd(),
		newExpensesCmd(),
		newChecklistCmd(),
		newDoctorCmd(),
	)
	return root
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(stderr, "tripdeck:", err)
	}
	return exitCode(err)
}

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func sysError(err error) error {
	return &exitError{code: exitSysError, err: err}
}

func userError(format string, args ...any) error {
	return &exitError{code: exitUserError, err: fmt.Errorf(format, args...)}
}

// exitCode maps err to a process exit code: store and I/O failures are
// system errors, everything else is the user's to fix.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, types.ErrStoreUnavailable) ||
		errors.Is(err, types.ErrWriteFailed) ||
		errors.Is(err, types.ErrDetached) {
		return exitSysError
	}
	return exitUserError
}
