package cli

import (
	"github.com/spf13/cobra"

	"github.com/polagate/dotledger/internal/output"
	"github.com/polagate/dotledger/internal/session"
)

// deviceImportCmd is the parent command for the account import workflow.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var deviceImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Manage the device account import workflow",
	Long: `Manage the device account import workflow.

While an import is in progress the session carries an importing marker;
cancelling the import clears the marker and the status-code history in
one step.`,
}

// deviceImportStartCmd runs the full import sequence: device identity
// first, then the account address, with the importing marker set for
// the duration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var deviceImportStartCmd = &cobra.Command{
	Use:     "start",
	Short:   "Begin an account import from the device",
	Example: `  dotledger device import start --account 1`,
	RunE:    runDeviceImportStart,
}

// deviceImportCancelCmd abandons the import.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var deviceImportCancelCmd = &cobra.Command{
	Use:     "cancel",
	Short:   "Cancel the import and clear the status history",
	Example: `  dotledger device import cancel`,
	RunE:    runDeviceImportCancel,
}

// deviceImportStatusCmd reports whether an import is in progress.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var deviceImportStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show whether an import is in progress",
	Example: `  dotledger device import status`,
	RunE:    runDeviceImportStatus,
}

// Import command flags.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var (
	importAccount uint32
	importConfirm bool
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	deviceCmd.AddCommand(deviceImportCmd)
	deviceImportCmd.AddCommand(deviceImportStartCmd)
	deviceImportCmd.AddCommand(deviceImportCancelCmd)
	deviceImportCmd.AddCommand(deviceImportStatusCmd)

	deviceImportStartCmd.Flags().Uint32Var(&importAccount, "account", 0, "account index in the derivation path")
	deviceImportStartCmd.Flags().BoolVar(&importConfirm, "confirm", false, "require on-device address confirmation")
}

func runDeviceImportStart(cmd *cobra.Command, _ []string) error {
	mgr := sessionFactory()

	account := importAccount
	if !cmd.Flags().Changed("account") {
		account = cfg.Device.DefaultAccount
	}

	mgr.SetImporting(true)

	ctx, cancel := contextWithTimeout(cmd, cfg.OpenTimeout())
	defer cancel()

	opts := session.Options{
		AccountIndex:   account,
		ConfirmAddress: importConfirm || cfg.Device.ConfirmAddress,
	}
	tasks := []session.Task{session.TaskGetDeviceInfo, session.TaskGetAddress}
	if err := mgr.Run(ctx, tasks, opts); err != nil {
		mgr.SetImporting(false)
		return err
	}

	// A derived address completes the import. After a task failure the
	// marker stays set so the user can retry or cancel. The newest
	// history entry is the outcome of this sequence; the response slot
	// survives from older ones.
	if codes := mgr.StatusCodes(); len(codes) > 0 &&
		codes[0].Acknowledgement == session.AckSuccess &&
		codes[0].StatusCode == session.CodeReceivedAddress {
		mgr.SetImporting(false)
	}

	return renderOutcome(cmd, mgr)
}

func runDeviceImportCancel(cmd *cobra.Command, _ []string) error {
	mgr := sessionFactory()

	mgr.CancelImport()

	if formatter.Format() == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), struct {
			Importing bool `json:"importing"`
		}{Importing: false})
	}
	outln(cmd.OutOrStdout(), "Import cancelled; status history cleared")
	return nil
}

func runDeviceImportStatus(cmd *cobra.Command, _ []string) error {
	mgr := sessionFactory()

	importing := mgr.IsImporting()

	if formatter.Format() == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), struct {
			Importing bool `json:"importing"`
		}{Importing: importing})
	}

	if importing {
		outln(cmd.OutOrStdout(), "Import in progress")
	} else {
		outln(cmd.OutOrStdout(), "No import in progress")
	}
	return nil
}
