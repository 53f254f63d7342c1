package cli

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"

	"github.com/polagate/dotledger/internal/session"
	dlerr "github.com/polagate/dotledger/pkg/errors"
)

// maxTaskTypoDistance is the edit distance within which an unknown task
// name earns a "did you mean" suggestion.
const maxTaskTypoDistance = 3

// deviceRunCmd executes an explicit task sequence.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var deviceRunCmd = &cobra.Command{
	Use:   "run <task>...",
	Short: "Run an explicit device task sequence",
	Long: `Run an explicit sequence of device tasks in one transport session pair.

Known tasks:
  get_device_info   read and cache the device identity
  get_address       derive the account address`,
	Example: `  dotledger device run get_device_info get_address --account 1`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runDeviceRun,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	deviceCmd.AddCommand(deviceRunCmd)
	deviceRunCmd.Flags().Uint32Var(&addressAccount, "account", 0, "account index in the derivation path")
	deviceRunCmd.Flags().BoolVar(&addressConfirm, "confirm", false, "require on-device address confirmation")
}

func runDeviceRun(cmd *cobra.Command, args []string) error {
	tasks := make([]session.Task, 0, len(args))
	for _, arg := range args {
		task, err := session.ParseTask(arg)
		if err != nil {
			if suggestion := suggestTask(arg); suggestion != "" {
				return dlerr.WithSuggestion(err, "did you mean \""+suggestion+"\"?")
			}
			return err
		}
		tasks = append(tasks, task)
	}

	mgr := sessionFactory()

	account := addressAccount
	if !cmd.Flags().Changed("account") {
		account = cfg.Device.DefaultAccount
	}

	ctx, cancel := contextWithTimeout(cmd, cfg.OpenTimeout())
	defer cancel()

	opts := session.Options{
		AccountIndex:   account,
		ConfirmAddress: addressConfirm || cfg.Device.ConfirmAddress,
	}
	if err := mgr.Run(ctx, tasks, opts); err != nil {
		return err
	}

	return renderOutcome(cmd, mgr)
}

// suggestTask returns the closest known task name within the typo
// distance bound, or "" when nothing is close enough.
func suggestTask(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))

	best := ""
	minDist := maxTaskTypoDistance + 1
	for _, task := range session.KnownTasks() {
		dist := levenshtein.ComputeDistance(input, string(task))
		if dist < minDist {
			minDist = dist
			best = string(task)
		}
	}
	return best
}
