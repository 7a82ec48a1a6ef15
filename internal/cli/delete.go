package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mpijobctl/internal/mpijob"
	"mpijobctl/pkg/types"
)

func newDeleteCmd(root *rootOptions) *cobra.Command {
	var (
		wait    bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete an MPIJob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := root.clientFor()
			if err != nil {
				return err
			}
			if timeout <= 0 {
				timeout = root.cfg.DeleteTimeout.D()
			}
			deleted, err := c.Delete(cmd.Context(), args[0], "", mpijob.DeleteOptions{Wait: wait, Timeout: timeout})
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("timed out after %s waiting for MPIJob %s to be deleted", timeout, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mpijob.%s/%s deleted\n", types.Group, args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the job is gone")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "How long --wait blocks (defaults to the configured delete timeout)")
	return cmd
}
