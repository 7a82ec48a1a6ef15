package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/printers"

	"mpijobctl/internal/mpijob"
	"mpijobctl/pkg/types"
)

type describeOptions struct {
	*rootOptions

	output string
	watch  bool
}

func newDescribeCmd(root *rootOptions) *cobra.Command {
	o := &describeOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "describe NAME",
		Short: "Show details of an MPIJob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args[0])
		},
	}
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Output format (json|yaml)")
	cmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "Print each phase change until the job completes")
	return cmd
}

func (o *describeOptions) run(cmd *cobra.Command, name string) error {
	c, err := o.clientFor()
	if err != nil {
		return err
	}
	job, err := c.Get(cmd.Context(), name, "")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch o.output {
	case "json":
		return (&printers.JSONPrinter{}).PrintObj(job.Raw(), out)
	case "yaml":
		return (&printers.YAMLPrinter{}).PrintObj(job.Raw(), out)
	case "":
	default:
		return fmt.Errorf("unsupported output format %q (want json or yaml)", o.output)
	}
	if err := describeJob(job, out); err != nil {
		return err
	}
	if !o.watch {
		return nil
	}
	fmt.Fprintln(out)
	return job.Monitor(cmd.Context(), o.cfg.PollInterval.D(), func(p mpijob.Phase, st types.JobStatus) {
		w := st.ReplicaStatuses[types.RoleWorker]
		fmt.Fprintf(out, "%s\tphase=%s\tworkers active=%d succeeded=%d failed=%d\n",
			o.deps.Clock.Now().UTC().Format("15:04:05"), p, w.Active, w.Succeeded, w.Failed)
	})
}

func describeJob(job *mpijob.Job, out io.Writer) error {
	report := job.StatusReport()
	tw := printers.GetNewTabWriter(out)
	fmt.Fprintf(tw, "Name:\t%s\n", report.Name)
	fmt.Fprintf(tw, "Namespace:\t%s\n", report.Namespace)
	fmt.Fprintf(tw, "Status:\t%s\n", report.Phase)
	if t := job.Created(); !t.IsZero() {
		fmt.Fprintf(tw, "Created:\t%s\n", t.UTC().Format("2006-01-02T15:04:05Z"))
	}
	if report.StartTime != "" {
		fmt.Fprintf(tw, "Started:\t%s\n", report.StartTime)
	}
	if report.CompletionTime != "" {
		fmt.Fprintf(tw, "Completed:\t%s\n", report.CompletionTime)
	}
	fmt.Fprintf(tw, "Workers:\t%d\n", job.Replicas(types.RoleWorker))
	if report.WorkerResources != "" {
		fmt.Fprintf(tw, "Worker Resources:\t%s\n", report.WorkerResources)
		fmt.Fprintf(tw, "Total Resources:\t%s\n", report.TotalResources)
	}
	if doc, err := job.Document(); err == nil {
		if rs, ok := doc.Spec.MPIReplicaSpecs[types.RoleWorker]; ok && len(rs.Template.Spec.Containers) > 0 {
			c := rs.Template.Spec.Containers[0]
			fmt.Fprintf(tw, "Image:\t%s\n", c.Image)
			if len(c.Command) > 0 {
				fmt.Fprintf(tw, "Command:\t%s\n", strings.Join(append(append([]string{}, c.Command...), c.Args...), " "))
			}
		}
		if doc.Spec.MPIImplementation != "" {
			fmt.Fprintf(tw, "MPI Implementation:\t%s\n", doc.Spec.MPIImplementation)
		}
		if doc.Spec.SlotsPerWorker != nil {
			fmt.Fprintf(tw, "Slots Per Worker:\t%d\n", *doc.Spec.SlotsPerWorker)
		}
	}
	fmt.Fprintf(tw, "Replicas:\n")
	for _, role := range []string{types.RoleLauncher, types.RoleWorker} {
		rc := report.Replicas[role]
		fmt.Fprintf(tw, "  %s:\tactive=%d succeeded=%d failed=%d\n", role, rc.Active, rc.Succeeded, rc.Failed)
	}
	if len(report.Conditions) > 0 {
		fmt.Fprintf(tw, "Conditions:\n")
		fmt.Fprintf(tw, "  TYPE\tSTATUS\tREASON\tLAST TRANSITION\tMESSAGE\n")
		for _, c := range report.Conditions {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", c.Type, c.Status, c.Reason, c.LastTransitionTime, c.Message)
		}
	}
	return tw.Flush()
}
