package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mpijobctl/internal/mpijob"
)

type logsOptions struct {
	*rootOptions

	worker    string
	container string
	tail      int64
	aggregate bool
}

func newLogsCmd(root *rootOptions) *cobra.Command {
	o := &logsOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "logs NAME",
		Short: "Print pod logs of an MPIJob",
		Example: `  # Launcher logs
  mpijobctl logs my-job

  # Last 100 lines of worker 2
  mpijobctl logs my-job --worker=2 --tail=100

  # Every worker, each block prefixed with its pod name
  mpijobctl logs my-job --aggregate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args[0])
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.worker, "worker", "", "Worker index, 'all', or 'launcher' (default launcher)")
	f.StringVar(&o.container, "container", "", "Container name")
	f.Int64Var(&o.tail, "tail", 0, "Lines of recent logs to display per pod")
	f.BoolVar(&o.aggregate, "aggregate", false, "Read logs of every worker")
	return cmd
}

func (o *logsOptions) logOptions() (mpijob.LogOptions, error) {
	opts := mpijob.LauncherLogs()
	switch w := strings.ToLower(o.worker); {
	case o.aggregate || w == "all":
		opts = mpijob.WorkerLogs(mpijob.AllWorkers)
	case w == "" || w == "launcher":
	default:
		n, err := strconv.Atoi(w)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("--worker must be an index, 'all' or 'launcher', got %q", o.worker)
		}
		opts = mpijob.WorkerLogs(n)
	}
	if o.tail < 0 {
		return opts, fmt.Errorf("--tail must not be negative")
	}
	opts.Container = o.container
	opts.TailLines = o.tail
	return opts, nil
}

func (o *logsOptions) run(cmd *cobra.Command, name string) error {
	opts, err := o.logOptions()
	if err != nil {
		return err
	}
	c, err := o.clientFor()
	if err != nil {
		return err
	}
	job, err := c.Get(cmd.Context(), name, "")
	if err != nil {
		return err
	}
	logs, err := job.Logs(cmd.Context(), opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(logs) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "No pods found for MPIJob %s\n", name)
		return nil
	}
	pods := make([]string, 0, len(logs))
	for p := range logs {
		pods = append(pods, p)
	}
	sort.Strings(pods)
	// a single pod prints bare, like kubectl logs
	if len(pods) == 1 {
		fmt.Fprint(out, logs[pods[0]])
		return nil
	}
	for _, p := range pods {
		fmt.Fprintf(out, "==> %s <==\n", p)
		fmt.Fprint(out, logs[p])
		if !strings.HasSuffix(logs[p], "\n") {
			fmt.Fprintln(out)
		}
	}
	return nil
}
