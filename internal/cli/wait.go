package cli

import (
	"time"

	"github.com/spf13/cobra"

	"mpijobctl/internal/mpijob"
)

func newWaitCmd(root *rootOptions) *cobra.Command {
	var timeout, poll time.Duration
	cmd := &cobra.Command{
		Use:   "wait NAME",
		Short: "Block until an MPIJob completes",
		Long: `Block until an MPIJob succeeds or fails.

Exits non-zero when the job fails or the timeout passes first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := root.clientFor()
			if err != nil {
				return err
			}
			if timeout <= 0 {
				timeout = root.cfg.WaitTimeout.D()
			}
			if poll <= 0 {
				poll = root.cfg.PollInterval.D()
			}
			return waitAndReport(cmd, c.Job(args[0], ""), timeout, poll)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Maximum time to wait (defaults to the configured wait timeout, "+mpijob.DefaultWaitTimeout.String()+")")
	cmd.Flags().DurationVar(&poll, "poll-interval", 0, "Time between status checks (defaults to the configured poll interval)")
	return cmd
}
