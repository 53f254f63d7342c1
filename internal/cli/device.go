package cli

import (
	"github.com/spf13/cobra"

	"github.com/polagate/dotledger/internal/output"
	"github.com/polagate/dotledger/internal/session"
)

// Address command flags.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var (
	addressAccount uint32
	addressConfirm bool
	historyReset   bool
)

// deviceCmd is the parent command for hardware device operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Interact with a Ledger hardware device",
	Long: `Interact with a Ledger hardware device over USB.

Device commands talk to the Polkadot app on the device. Connect the
device, unlock it, and open the Polkadot app before deriving addresses.`,
}

// devicePairedCmd probes device connectivity.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var devicePairedCmd = &cobra.Command{
	Use:     "paired",
	Short:   "Check whether a device is connected and reachable",
	Long:    `Probe the USB transport and report whether a Ledger device can be reached.`,
	Example: `  dotledger device paired`,
	RunE:    runDevicePaired,
}

// deviceInfoCmd reads the device identity.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var deviceInfoCmd = &cobra.Command{
	Use:     "info",
	Short:   "Read and cache the connected device identity",
	Long:    `Open a transport session, read the device identity, and cache it in the session state.`,
	Example: `  dotledger device info`,
	RunE:    runDeviceInfo,
}

// deviceAddressCmd derives an account address.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var deviceAddressCmd = &cobra.Command{
	Use:   "address",
	Short: "Derive a Polkadot account address on the device",
	Long: `Derive the Polkadot address for an account index on the device.

The derivation path is fixed to 44'/354'/{account}'/0/0. With --confirm
the device displays the address for on-screen verification.`,
	Example: `  dotledger device address --account 2 --confirm`,
	RunE:    runDeviceAddress,
}

// deviceHistoryCmd shows or clears the status-code history.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var deviceHistoryCmd = &cobra.Command{
	Use:     "history",
	Short:   "Show the device status-code history",
	Long:    `Show the bounded status-code history of recent device interactions, newest first.`,
	Example: `  dotledger device history
  dotledger device history --reset`,
	RunE: runDeviceHistory,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(deviceCmd)
	deviceCmd.AddCommand(devicePairedCmd)
	deviceCmd.AddCommand(deviceInfoCmd)
	deviceCmd.AddCommand(deviceAddressCmd)
	deviceCmd.AddCommand(deviceHistoryCmd)

	deviceAddressCmd.Flags().Uint32Var(&addressAccount, "account", 0, "account index in the derivation path")
	deviceAddressCmd.Flags().BoolVar(&addressConfirm, "confirm", false, "require on-device address confirmation")
	deviceHistoryCmd.Flags().BoolVar(&historyReset, "reset", false, "clear the status-code history")
}

func runDevicePaired(cmd *cobra.Command, _ []string) error {
	mgr := sessionFactory()

	ctx, cancel := contextWithTimeout(cmd, cfg.OpenTimeout())
	defer cancel()

	paired := mgr.CheckPaired(ctx)
	status := session.NotPaired
	if paired {
		status = session.Paired
	}
	mgr.SetPaired(status)

	if formatter.Format() == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), struct {
			Paired bool `json:"paired"`
		}{Paired: paired})
	}

	if paired {
		outln(cmd.OutOrStdout(), "Device is connected")
	} else {
		outln(cmd.OutOrStdout(), "No device found (is it connected and unlocked?)")
	}
	return nil
}

func runDeviceInfo(cmd *cobra.Command, _ []string) error {
	mgr := sessionFactory()

	ctx, cancel := contextWithTimeout(cmd, cfg.OpenTimeout())
	defer cancel()

	if err := mgr.Run(ctx, []session.Task{session.TaskGetDeviceInfo}, session.Options{}); err != nil {
		return err
	}

	return renderOutcome(cmd, mgr)
}

func runDeviceAddress(cmd *cobra.Command, _ []string) error {
	mgr := sessionFactory()

	account := addressAccount
	if !cmd.Flags().Changed("account") {
		account = cfg.Device.DefaultAccount
	}
	confirm := addressConfirm || cfg.Device.ConfirmAddress

	ctx, cancel := contextWithTimeout(cmd, cfg.OpenTimeout())
	defer cancel()

	opts := session.Options{AccountIndex: account, ConfirmAddress: confirm}
	if err := mgr.Run(ctx, []session.Task{session.TaskGetAddress}, opts); err != nil {
		return err
	}

	return renderOutcome(cmd, mgr)
}

func runDeviceHistory(cmd *cobra.Command, _ []string) error {
	mgr := sessionFactory()

	if historyReset {
		mgr.ResetStatusCodes()
		if formatter.Format() == output.FormatJSON {
			return writeJSON(cmd.OutOrStdout(), struct {
				Reset bool `json:"reset"`
			}{Reset: true})
		}
		outln(cmd.OutOrStdout(), "Status-code history cleared")
		return nil
	}

	codes := mgr.StatusCodes()

	if formatter.Format() == output.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), struct {
			StatusCodes []session.StatusCode `json:"status_codes"`
		}{StatusCodes: codes})
	}

	w := cmd.OutOrStdout()
	if len(codes) == 0 {
		outln(w, "No status codes recorded")
		return nil
	}

	outln(w, "Status codes (newest first):")
	for _, c := range codes {
		out(w, "  %-8s %s\n", c.Acknowledgement, c.StatusCode)
	}
	return nil
}

// renderOutcome prints the most recent response or error recorded by the
// task sequence. Task failures surface here, not as command errors. The
// newest history entry tells this sequence's outcome; the error and
// response slots survive from older sequences.
func renderOutcome(cmd *cobra.Command, mgr *session.Manager) error {
	w := cmd.OutOrStdout()

	codes := mgr.StatusCodes()
	failed := len(codes) > 0 && codes[0].Acknowledgement == session.AckFailure

	if lastErr := mgr.LastError(); failed && lastErr != nil {
		if formatter.Format() == output.FormatJSON {
			return writeJSON(w, lastErr)
		}
		out(w, "Device task failed: %s\n", lastErr.StatusCode)
		if lastErr.StatusCode == session.CodeDeviceNotConnected {
			outln(w, "Connect and unlock the device, then retry")
		} else {
			outln(w, "Open the Polkadot app on the device, then retry")
		}
		return nil
	}

	resp := mgr.LastResponse()
	if resp == nil {
		outln(w, "No response recorded")
		return nil
	}

	if formatter.Format() == output.FormatJSON {
		return writeJSON(w, resp)
	}

	switch resp.StatusCode {
	case session.CodeReceivedDeviceInfo:
		if resp.Device != nil {
			out(w, "Device: %s (serial %s)\n", resp.Device.ProductName, resp.Device.ID)
		}
	case session.CodeReceivedAddress:
		for _, line := range resp.Body {
			out(w, "Address (account %d): %s\n", resp.AccountIndex, line)
		}
		if resp.ConfirmAddress {
			outln(w, "Confirmed on device")
		}
	default:
		out(w, "%s\n", resp.StatusCode)
	}
	return nil
}
